package controller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spoken-corpus/anom-oral/cleanup"
	"github.com/spoken-corpus/anom-oral/db"
	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	"github.com/spoken-corpus/anom-oral/input"
	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/spoken-corpus/anom-oral/transcript"
	"github.com/spoken-corpus/anom-oral/wave"
	"github.com/spoken-corpus/anom-oral/worker"
)

// Exit codes of a batch.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// Summary is the result of a batch, outcomes in input order.
type Summary struct {
	RunID       string
	DatasetName string
	Started     time.Time
	Finished    time.Time
	Outcomes    []Outcome
	Succeeded   int
	Skipped     int
	Failed      int
}

// ExitCode is 0 unless a document failed. Skipped documents do not fail
// the batch.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return ExitFailed
	}
	return ExitOK
}

func (s Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Run is the ledger row of the batch.
func (s Summary) Run() db.Run {
	return db.Run{
		RunID:       s.RunID,
		DatasetName: s.DatasetName,
		Started:     s.Started,
		Finished:    s.Finished,
		Succeeded:   s.Succeeded,
		Skipped:     s.Skipped,
		Failed:      s.Failed,
		ExitCode:    s.ExitCode(),
	}
}

// Records converts outcomes to ledger rows. Documents that failed before
// their id was known are keyed by their source.
func (s Summary) Records() []db.Document {
	var results []db.Document
	seen := make(map[string]bool)
	for _, o := range s.Outcomes {
		var rec db.Document
		rec.RunID = s.RunID
		rec.DocID = o.DocID
		if rec.DocID == `` || seen[rec.DocID] {
			rec.DocID = o.Source
		}
		seen[rec.DocID] = true
		rec.Source = o.Source
		rec.Outcome = o.Kind.String()
		if o.Status != nil {
			rec.Status = o.Status.Status
			rec.Message = o.Status.Error()
		} else {
			rec.Status = 200
		}
		if o.Kind == Success {
			rec.Output = o.Output
		}
		rec.Seconds = o.Seconds
		rec.Channels = o.Channels
		for _, span := range o.Spans {
			rec.Spans = append(rec.Spans, db.Span{
				Seq:         span.Seq,
				Text:        span.Text,
				StartTS:     span.StartTS,
				EndTS:       span.EndTS,
				StartSample: span.StartSample,
				EndSample:   span.EndSample,
				Peak:        span.Peak,
			})
		}
		results = append(results, rec)
	}
	return results
}

// Outputs lists the files written by the batch.
func (s Summary) Outputs() []string {
	var results []string
	for _, o := range s.Outcomes {
		if o.Kind == Success {
			results = append(results, o.Output)
		}
	}
	return results
}

type docJob struct {
	seq       int
	req       request.Request
	pending   transcript.Pending
	collector *collector
}

func (j *docJob) ID() string {
	return j.pending.Name()
}

func (j *docJob) Execute(ctx context.Context) error {
	outcome := ProcessDocument(ctx, j.req, j.pending)
	j.collector.add(j.seq, outcome)
	if outcome.Kind == Failed && outcome.Status != nil {
		return outcome.Status
	}
	return nil
}

type collector struct {
	mu       sync.Mutex
	outcomes map[int]Outcome
}

func (c *collector) add(seq int, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[seq] = outcome
}

func (c *collector) ordered() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]int, 0, len(c.outcomes))
	for k := range c.outcomes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	results := make([]Outcome, 0, len(keys))
	for _, k := range keys {
		results = append(results, c.outcomes[k])
	}
	return results
}

// RunBatch processes every document of the request's input on a pool of
// req.Workers workers. The returned status is set only when the input
// itself cannot be opened; per-document problems are in the summary.
func RunBatch(ctx context.Context, req request.Request) (Summary, *log.Status) {
	var summary Summary
	summary.RunID = uuid.NewString()
	summary.DatasetName = req.DatasetName
	summary.Started = time.Now()
	ctx = log.WithField(ctx, `run`, summary.RunID)
	source, closer, status := input.OpenSource(ctx, req)
	if status != nil {
		return summary, status
	}
	defer closer.Close()
	_, _ = cleanup.CleanupDirectory(ctx, req.OutputDir, `*`+wave.PartExt, cleanup.StalePartAge)
	log.Info(ctx, "Starting", req.DatasetName, "with", req.Workers, "workers")
	results := &collector{outcomes: make(map[int]Outcome)}
	dispatcher := worker.NewDispatcher(ctx, req.Workers, req.Workers*2)
	dispatcher.Run()
	seq := 0
	for {
		pending, err := source.Next()
		if err != nil {
			results.add(seq, Outcome{Source: req.Input, Kind: Failed,
				Status: log.Error(ctx, 500, err, "Unable to read input", req.Input)})
			break
		}
		if pending == nil {
			break
		}
		err = dispatcher.SubmitJob(&docJob{seq: seq, req: req, pending: pending, collector: results})
		if err != nil {
			results.add(seq, Outcome{Source: pending.Name(), Kind: Failed,
				Status: log.Error(ctx, 500, err, "Batch cancelled before", pending.Name())})
			break
		}
		seq++
	}
	dispatcher.Stop()
	summary.Outcomes = results.ordered()
	summary.Finished = time.Now()
	for _, o := range summary.Outcomes {
		switch o.Kind {
		case Success:
			summary.Succeeded++
		case Skipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	if summary.Skipped > 0 {
		log.Warn(ctx, "Some already existing files were not overwritten.")
	}
	log.Info(ctx, "Finished", summary.Succeeded, "saved,", summary.Skipped, "skipped,", summary.Failed, "failed in",
		summary.Duration().Round(time.Millisecond))
	return summary, nil
}
