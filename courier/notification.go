package courier

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spoken-corpus/anom-oral/controller"
	"github.com/spoken-corpus/anom-oral/decode_yaml"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// NotifyMessage is the body enqueued for SQS recipients.
type NotifyMessage struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	RunID    string `json:"run_id"`
	Dataset  string `json:"dataset_name"`
	ExitCode int    `json:"exit_code"`
}

// Notification sends the outcome of a run to notify_ok, or to notify_err
// when the run failed or a document failed. status is the run-level error,
// if any.
func (b *Courier) Notification(summary controller.Summary, status *log.Status) *log.Status {
	if testing.Testing() && !b.IsUnitTest {
		return nil
	}
	subject, message, recipients := b.compose(summary, status)
	emailTo, queues := splitRecipients(recipients)
	var result *log.Status
	if len(emailTo) > 0 {
		attachments := append(b.GetOutputByExt(".json"), b.GetOutputByExt(".xlsx")...)
		st := GoMailSendMail(b.ctx, emailTo, subject, message, attachments)
		if st != nil {
			result = st
		}
	}
	for _, queue := range queues {
		msg := NotifyMessage{Subject: subject, Message: message, RunID: b.runID, Dataset: b.dataset,
			ExitCode: exitCode(summary, status)}
		_, st := SQSEnqueue(b.ctx, b.region, queue, msg)
		if st != nil && result == nil {
			result = st
		}
	}
	return result
}

func (b *Courier) compose(summary controller.Summary, status *log.Status) (string, string, []string) {
	if status == nil && summary.Failed == 0 {
		return "SUCCESS: " + b.dataset, b.successMsg(summary), b.notifyOk
	}
	return "FAILED: " + b.dataset, b.failureMsg(summary, status), b.notifyErr
}

func exitCode(summary controller.Summary, status *log.Status) int {
	if status != nil {
		return controller.ExitUsage
	}
	return summary.ExitCode()
}

func splitRecipients(addresses []string) ([]string, []string) {
	var emailTo, queues []string
	for _, a := range addresses {
		if decode_yaml.IsEmail(a) {
			emailTo = append(emailTo, a)
		} else if decode_yaml.IsQueue(a) {
			queues = append(queues, a)
		}
	}
	return emailTo, queues
}

func (b *Courier) counts(summary controller.Summary) string {
	return fmt.Sprintf("Saved: %d, Skipped: %d, Failed: %d", summary.Succeeded, summary.Skipped, summary.Failed)
}

func (b *Courier) successMsg(summary controller.Summary) string {
	var message []string
	message = append(message, "SUCCESS: "+b.dataset)
	message = append(message, "Run: "+b.runID)
	message = append(message, "Duration: "+summary.Duration().String())
	message = append(message, b.counts(summary))
	if summary.Skipped > 0 {
		message = append(message, "Some already existing files were not overwritten.")
	}
	if len(b.outputKeys) > 0 {
		for _, key := range b.outputKeys {
			message = append(message, "s3://"+b.bucket+"/"+key)
		}
	} else {
		message = append(message, b.outputs...)
	}
	return strings.Join(message, "\n")
}

func (b *Courier) failureMsg(summary controller.Summary, status *log.Status) string {
	var message []string
	message = append(message, "FAILED: "+b.dataset)
	message = append(message, "Run: "+b.runID)
	if status != nil {
		message = append(message, status.String())
	}
	message = append(message, "Duration: "+summary.Duration().String())
	message = append(message, b.counts(summary))
	for _, o := range summary.Outcomes {
		if o.Kind != controller.Failed || o.Status == nil {
			continue
		}
		name := o.DocID
		if name == `` {
			name = o.Source
		}
		message = append(message, name+": "+o.Status.String())
	}
	return strings.Join(message, "\n")
}
