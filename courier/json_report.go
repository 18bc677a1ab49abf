package courier

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spoken-corpus/anom-oral/anonymize"
	"github.com/spoken-corpus/anom-oral/controller"
	log "github.com/spoken-corpus/anom-oral/logger"
)

type Report struct {
	RunID       string           `json:"run_id"`
	DatasetName string           `json:"dataset_name"`
	Started     time.Time        `json:"started"`
	Finished    time.Time        `json:"finished"`
	Succeeded   int              `json:"succeeded"`
	Skipped     int              `json:"skipped"`
	Failed      int              `json:"failed"`
	ExitCode    int              `json:"exit_code"`
	Documents   []ReportDocument `json:"documents"`
}

type ReportDocument struct {
	DocID   string           `json:"doc_id"`
	Source  string           `json:"source"`
	Outcome string           `json:"outcome"`
	Status  *log.Status      `json:"status,omitempty"`
	Output  string           `json:"output,omitempty"`
	Seconds float64          `json:"seconds,omitempty"`
	Spans   []anonymize.Span `json:"spans,omitempty"`
}

func NewReport(summary controller.Summary) Report {
	var r Report
	r.RunID = summary.RunID
	r.DatasetName = summary.DatasetName
	r.Started = summary.Started
	r.Finished = summary.Finished
	r.Succeeded = summary.Succeeded
	r.Skipped = summary.Skipped
	r.Failed = summary.Failed
	r.ExitCode = summary.ExitCode()
	for _, o := range summary.Outcomes {
		var doc ReportDocument
		doc.DocID = o.DocID
		doc.Source = o.Source
		doc.Outcome = o.Kind.String()
		doc.Status = o.Status
		if o.Kind == controller.Success {
			doc.Output = o.Output
		}
		doc.Seconds = o.Seconds
		doc.Spans = o.Spans
		r.Documents = append(r.Documents, doc)
	}
	return r
}

// WriteJSON saves the summary of a batch as indented JSON.
func WriteJSON(ctx context.Context, summary controller.Summary, filePath string) *log.Status {
	jsonData, err := json.MarshalIndent(NewReport(summary), "", "  ")
	if err != nil {
		return log.Error(ctx, 500, err, "Failed to marshal", filePath)
	}
	err = os.WriteFile(filePath, jsonData, 0644)
	if err != nil {
		return log.Error(ctx, 500, err, "Failed to write", filePath)
	}
	return nil
}
