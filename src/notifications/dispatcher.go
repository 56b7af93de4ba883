package notifications

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/jobs"
	"git.collab.network/collab/src/utils"
	"github.com/jpillora/backoff"
)

type Processor interface {
	Process(ctx context.Context, t events.Transition) error
}

/*
Pulls transitions off the queue and processes them on a fixed number of
goroutines. All transitions for one entity go to the same goroutine, so a
single entity is never processed twice at once and its notifications can't be
delivered twice.
*/
func RunDispatcher(parent context.Context, queue events.Queue, processor Processor, numWorkers int) *jobs.Job {
	numWorkers = utils.OrDefault(numWorkers, 1)

	return jobs.Go(parent, "notifications dispatcher", func(job *jobs.Job) error {
		lanes := make([]chan events.Transition, numWorkers)
		var wg sync.WaitGroup
		for i := range lanes {
			lanes[i] = make(chan events.Transition, 16)
			wg.Add(1)
			go func(lane <-chan events.Transition) {
				defer wg.Done()
				for t := range lane {
					processOne(job, processor, t)
				}
			}(lanes[i])
		}
		defer func() {
			for _, lane := range lanes {
				close(lane)
			}
			wg.Wait()
		}()

		boff := backoff.Backoff{
			Min: 1 * time.Second,
			Max: 1 * time.Minute,
		}

		for {
			t, err := queue.Next(job.Ctx)
			if err != nil {
				if job.Ctx.Err() != nil {
					return nil
				}

				dur := boff.Duration()
				job.Logger.Error().
					Err(err).
					Dur("retrying after", dur).
					Msg("Failed to read from transition queue")
				if utils.SleepContext(job.Ctx, dur) != nil {
					return nil
				}
				continue
			}
			boff.Reset()

			select {
			case lanes[laneFor(t, numWorkers)] <- t:
			case <-job.Canceled():
				return nil
			}
		}
	})
}

func processOne(job *jobs.Job, processor Processor, t events.Transition) {
	err := func() (err error) {
		defer utils.RecoverPanicAsError(&err)
		return processor.Process(job.Ctx, t)
	}()
	if err != nil && !errors.Is(err, utils.ErrSleepInterrupted) {
		job.Logger.Error().
			Err(err).
			Str("kind", string(t.Kind)).
			Int("id", t.EntityID).
			Msg("Failed to process transition")
	}
}

func laneFor(t events.Transition, numLanes int) int {
	h := fnv.New32a()
	h.Write([]byte(string(t.Kind) + ":" + strconv.Itoa(t.EntityID)))
	return int(h.Sum32() % uint32(numLanes))
}
