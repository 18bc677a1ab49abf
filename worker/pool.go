package worker

import (
	"context"
	"sync"
	"sync/atomic"

	log "github.com/spoken-corpus/anom-oral/logger"
)

// Job is one unit of work. Units share no state, so a job never waits on
// another one.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Worker runs in its own goroutine and receives jobs on its own channel,
// which it registers in the pool each time it is idle.
type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Quit       chan struct{}
	Wg         *sync.WaitGroup
	failed     *atomic.Int64
}

func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, failed *atomic.Int64) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Quit:       make(chan struct{}),
		Wg:         wg,
		failed:     failed,
	}
}

func (w Worker) Start(ctx context.Context) {
	ctx = log.WithField(ctx, `worker`, w.ID)
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		for {
			w.WorkerPool <- w.JobChannel
			select {
			case job := <-w.JobChannel:
				log.Debug(ctx, "Started job", job.ID())
				if err := job.Execute(ctx); err != nil {
					w.failed.Add(1)
					log.Debug(ctx, "Job", job.ID(), "failed:", err)
				} else {
					log.Debug(ctx, "Finished job", job.ID())
				}
			case <-w.Quit:
				return
			}
		}
	}()
}

// Dispatcher hands queued jobs to idle workers. Jobs are handed over one at
// a time, so a full queue blocks SubmitJob instead of dropping work.
type Dispatcher struct {
	ctx        context.Context
	MaxWorkers int
	WorkerPool chan chan Job
	JobQueue   chan Job
	Workers    []Worker
	Wg         sync.WaitGroup
	done       chan struct{}
	failed     atomic.Int64
}

func NewDispatcher(ctx context.Context, maxWorkers int, jobQueueSize int) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Dispatcher{
		ctx:        ctx,
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		done:       make(chan struct{}),
	}
}

func (d *Dispatcher) Run() {
	log.Debug(d.ctx, "Dispatcher starting with", d.MaxWorkers, "workers")
	for i := 1; i <= d.MaxWorkers; i++ {
		worker := NewWorker(i, d.WorkerPool, &d.Wg, &d.failed)
		d.Workers = append(d.Workers, worker)
		worker.Start(d.ctx)
	}
	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	defer close(d.done)
	for job := range d.JobQueue {
		jobChannel := <-d.WorkerPool
		jobChannel <- job
	}
	for _, worker := range d.Workers {
		close(worker.Quit)
	}
}

// SubmitJob queues job, waiting for room in the queue unless the
// dispatcher's context is cancelled first.
func (d *Dispatcher) SubmitJob(job Job) error {
	select {
	case d.JobQueue <- job:
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// Stop lets every submitted job finish, then stops the workers. No job may
// be submitted after Stop.
func (d *Dispatcher) Stop() {
	close(d.JobQueue)
	<-d.done
	d.Wg.Wait()
	log.Debug(d.ctx, "Dispatcher stopped")
}

// Failed counts jobs whose Execute returned an error.
func (d *Dispatcher) Failed() int {
	return int(d.failed.Load())
}
