package jobs

import (
	"context"
	"time"

	"git.collab.network/collab/src/logging"
	"git.collab.network/collab/src/utils"
	"github.com/rs/zerolog"
)

/*
Background work that can be canceled and waited on. The notifications
dispatcher and sweeper both run as Jobs, and the website cancels them all on
shutdown with CancelAndWait.
*/
type Job struct {
	Name   string
	Ctx    context.Context
	Logger zerolog.Logger
	cancel func()
	done   chan struct{}
}

func New(name string) *Job {
	return NewWithParent(context.Background(), name)
}

// Creates a job that is also canceled when parent is.
func NewWithParent(parent context.Context, name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(parent)
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

/*
Runs work on a new goroutine and finishes the job when it returns. A panic in
work is logged and also finishes the job, so CancelAndWait never hangs on a
crashed job.
*/
func Go(parent context.Context, name string, work func(job *Job) error) *Job {
	job := NewWithParent(parent, name)
	go func() {
		defer job.Finish()

		err := func() (err error) {
			defer utils.RecoverPanicAsError(&err)
			return work(job)
		}()
		if err != nil && job.Ctx.Err() == nil {
			job.Logger.Error().Err(err).Msg("Job exited with an error")
		}
	}()
	return job
}

// Sends a cancel signal to the Job. Internally, this cancels the Job's
// context.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Marks the Job as finished. Expected to be called by the job itself when its
// work is done.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

func (j *Job) Finished() <-chan struct{} {
	return j.done
}

type Jobs []*Job

// Cancels all tracked jobs and waits for them to finish, up to timeout.
// Returns the names of the jobs that did not finish in time.
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	allDoneChan := make(chan struct{})
	for _, job := range jobs {
		job.Cancel()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDoneChan)
	}()

	select {
	case <-timer.C:
		return jobs.ListUnfinished()
	case <-allDoneChan:
		return nil
	}
}

func (jobs Jobs) ListUnfinished() []string {
	unfinished := []string{}
	for _, job := range jobs {
		select {
		case <-job.Finished():
			continue
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}
