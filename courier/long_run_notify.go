package courier

import (
	"context"
	"strconv"
	"time"

	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// LongRunNotify warns the notify_err recipients once a run has lasted
// notify_after_minutes. The returned func ends the watch and must be
// called when the run finishes.
func LongRunNotify(ctx context.Context, req request.Request) func() {
	if req.NotifyAfter <= 0 || len(req.NotifyErr) == 0 {
		return func() {}
	}
	log.Info(ctx, "Process will notify if it runs over", req.NotifyAfter, "minutes.")
	threshold := time.Duration(req.NotifyAfter) * time.Minute
	return watch(threshold, func() {
		subject := "anom_oral: Long Running Job"
		msg := "dataset_name: " + req.DatasetName + "\n" +
			"Has been running for " + strconv.Itoa(req.NotifyAfter) + " minutes."
		emailTo, queues := splitRecipients(req.NotifyErr)
		if len(emailTo) > 0 {
			_ = GoMailSendMail(ctx, emailTo, subject, msg, nil)
		}
		for _, queue := range queues {
			_, _ = SQSEnqueue(ctx, req.Bucket.Region, queue, NotifyMessage{Subject: subject, Message: msg,
				Dataset: req.DatasetName, ExitCode: -1})
		}
	})
}

// watch calls send once after threshold unless stop is called first.
func watch(threshold time.Duration, send func()) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		timer := time.NewTimer(threshold)
		defer timer.Stop()
		select {
		case <-timer.C:
			send()
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
