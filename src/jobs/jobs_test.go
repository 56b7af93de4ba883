package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCancelAndWait(t *testing.T) {
	t.Run("finishes fast enough", func(t *testing.T) {
		testJobs := Jobs{
			FakeJob("Job A", time.Millisecond*100),
			FakeJob("Job B", time.Millisecond*200),
		}

		before := time.Now()
		unfinished := testJobs.CancelAndWait(time.Second * 1)
		after := time.Now()
		assert.WithinDuration(t, after, before, time.Millisecond*500, "tracker.Finish did not finish fast enough")
		assert.Len(t, unfinished, 0)
	})
	t.Run("reports unfinished jobs", func(t *testing.T) {
		testJobs := Jobs{
			FakeJob("Job A", time.Millisecond*100),
			FakeJob("Job B", time.Second*10),
		}

		unfinished := testJobs.CancelAndWait(time.Second * 1)
		assert.Equal(t, []string{"Job B"}, unfinished)
	})
}

func TestGo(t *testing.T) {
	t.Run("finishes when work returns", func(t *testing.T) {
		job := Go(context.Background(), "quick", func(job *Job) error {
			return errors.New("oh no")
		})
		select {
		case <-job.Finished():
		case <-time.After(time.Second):
			t.Fatal("job did not finish")
		}
	})
	t.Run("finishes after a panic", func(t *testing.T) {
		job := Go(context.Background(), "panicky", func(job *Job) error {
			panic("aaaaa")
		})
		select {
		case <-job.Finished():
		case <-time.After(time.Second):
			t.Fatal("job did not finish")
		}
	})
	t.Run("canceled with parent", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		job := Go(parent, "waiting", func(job *Job) error {
			<-job.Canceled()
			return nil
		})
		cancel()
		assert.Empty(t, Jobs{job}.CancelAndWait(time.Second))
	})
}

func FakeJob(name string, timeout time.Duration) *Job {
	job := New(name)
	go func() {
		<-job.Ctx.Done()
		timer := time.NewTimer(timeout)
		<-timer.C
		job.Finish()
	}()
	return job
}
