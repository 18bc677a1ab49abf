package controller

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spoken-corpus/anom-oral/anonymize"
	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/spoken-corpus/anom-oral/transcript"
	"github.com/spoken-corpus/anom-oral/utility/ffmpeg"
	"github.com/spoken-corpus/anom-oral/wave"
)

type Kind int

const (
	Success Kind = iota
	Skipped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return `success`
	case Skipped:
		return `skipped`
	default:
		return `failed`
	}
}

// Outcome is the result of one document. Status is nil on success.
type Outcome struct {
	DocID    string
	Source   string
	Kind     Kind
	Status   *log.Status
	Output   string
	Spans    []anonymize.Span
	Channels int
	Seconds  float64 // recording length
	Elapsed  time.Duration
}

// ProcessDocument runs read, anonymize and write for one document. Every
// error ends up in the outcome; an existing output file is a skip.
func ProcessDocument(ctx context.Context, req request.Request, pending transcript.Pending) Outcome {
	start := time.Now()
	outcome := processDocument(ctx, req, pending)
	outcome.Elapsed = time.Since(start)
	return outcome
}

func processDocument(ctx context.Context, req request.Request, pending transcript.Pending) Outcome {
	var result Outcome
	result.Source = pending.Name()
	doc, err := pending.Load()
	result.DocID = doc.ID
	if err != nil {
		result.Kind = Failed
		result.Status = loadError(ctx, err, pending.Name())
		return result
	}
	ctx = log.WithField(ctx, `doc`, doc.ID)
	outPath := filepath.Join(req.OutputDir, doc.ID+`.wav`)
	result.Output = outPath
	if _, err = os.Stat(outPath); err == nil {
		return skip(ctx, result, outPath)
	}
	w, spans, status := anonymize.Anonymize(ctx, doc, req.InputDir, req.ToneHz,
		anonymize.Options{CheckOverlap: req.CheckOverlap})
	if status != nil {
		result.Kind = Failed
		result.Status = status
		return result
	}
	result.Spans = spans
	result.Channels = w.Channels
	result.Seconds = w.Duration()
	err = wave.Save(outPath, w)
	if errors.Is(err, wave.ErrOutputExists) {
		return skip(ctx, result, outPath)
	}
	if err != nil {
		result.Kind = Failed
		result.Status = log.Error(ctx, 500, err, "Unable to write", outPath)
		return result
	}
	if req.VerifyOutput {
		status = ffmpeg.CompareDurations(ctx, filepath.Join(req.InputDir, doc.ID+`.wav`), outPath)
		if status != nil {
			result.Kind = Failed
			result.Status = status
			return result
		}
	}
	log.Info(ctx, "Saved", outPath)
	result.Kind = Success
	return result
}

func skip(ctx context.Context, result Outcome, outPath string) Outcome {
	msg := "Target file " + filepath.Base(outPath) + " already exists in output directory " +
		filepath.Dir(outPath) + ". Please remove it or specify a different output dir."
	log.Warn(ctx, msg)
	result.Kind = Skipped
	result.Status = log.NewStatus(409, wave.ErrOutputExists, msg)
	result.Spans = nil
	return result
}

func loadError(ctx context.Context, err error, name string) *log.Status {
	var parseErr *transcript.ParseError
	var missing *transcript.MissingAttributeError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &missing):
		return log.Error(ctx, 400, err, "Malformed transcript", name)
	case errors.Is(err, fs.ErrNotExist):
		return log.Error(ctx, 404, err, "Transcript not found", name)
	default:
		return log.Error(ctx, 500, err, "Unable to read transcript", name)
	}
}
