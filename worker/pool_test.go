package worker

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

type countJob struct {
	id      int
	running *atomic.Int64
	peak    *atomic.Int64
	done    *atomic.Int64
}

func (j countJob) ID() string {
	return strconv.Itoa(j.id)
}

func (j countJob) Execute(ctx context.Context) error {
	n := j.running.Add(1)
	for {
		p := j.peak.Load()
		if n <= p || j.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	j.running.Add(-1)
	j.done.Add(1)
	if j.id%10 == 0 {
		return errors.New("failed " + j.ID())
	}
	return nil
}

func TestDispatcher_RunsEveryJob(t *testing.T) {
	ctx := context.Background()
	var running, peak, done atomic.Int64
	d := NewDispatcher(ctx, 4, 2)
	d.Run()
	for i := 1; i <= 50; i++ {
		err := d.SubmitJob(countJob{id: i, running: &running, peak: &peak, done: &done})
		if err != nil {
			t.Fatal(err)
		}
	}
	d.Stop()
	if done.Load() != 50 {
		t.Error("expected 50 jobs done, got", done.Load())
	}
	if peak.Load() > 4 {
		t.Error("more than 4 jobs ran at once:", peak.Load())
	}
	if d.Failed() != 5 {
		t.Error("expected 5 failed jobs, got", d.Failed())
	}
}

func TestDispatcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(ctx, 1, 0)
	// Not running, so nothing receives from the queue.
	cancel()
	var running, peak, done atomic.Int64
	err := d.SubmitJob(countJob{id: 1, running: &running, peak: &peak, done: &done})
	if !errors.Is(err, context.Canceled) {
		t.Fatal("expected context.Canceled, got", err)
	}
}

func TestDispatcher_NoJobs(t *testing.T) {
	d := NewDispatcher(context.Background(), 0, 0)
	d.Run()
	d.Stop()
	if d.MaxWorkers != 1 {
		t.Error("expected at least one worker", d.MaxWorkers)
	}
}
