package notifications

import (
	"context"
	"time"

	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/jobs"
	"git.collab.network/collab/src/lifecycle"
	"git.collab.network/collab/src/utils"
)

const sweepBatchSize = 100

// Mentions younger than this are assumed to still have their own transition
// event on the way.
const sweepGracePeriod = 1 * time.Minute

/*
Re-enqueues entities whose mentions were persisted but never turned into
delivered notifications, for example because the process died between
committing a save and dispatching its event. Recovery always starts from the
persisted mentions; nothing is re-extracted.
*/
func Sweep(ctx context.Context, store Store, publisher events.Publisher, now time.Time) (int, error) {
	refs, err := store.UndispatchedEntities(ctx, now.Add(-sweepGracePeriod), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	for i, ref := range refs {
		err := publisher.Publish(ctx, events.Transition{
			Kind:       ref.Kind,
			EntityID:   ref.ID,
			Event:      lifecycle.EventEdit,
			OccurredAt: now,
		})
		if err != nil {
			return i, err
		}
	}
	return len(refs), nil
}

func RunSweeper(parent context.Context, store Store, publisher events.Publisher, interval time.Duration) *jobs.Job {
	interval = utils.OrDefault(interval, 5*time.Minute)

	return jobs.Go(parent, "notifications sweeper", func(job *jobs.Job) error {
		timer := utils.MakeAutoResetTimer(job.Ctx, interval, true)
		for range timer.C {
			err := func() (err error) {
				defer utils.RecoverPanicAsError(&err)

				n, err := Sweep(job.Ctx, store, publisher, time.Now())
				if n > 0 {
					job.Logger.Info().Int("entities", n).Msg("Re-enqueued undispatched notifications")
				}
				return err
			}()
			if err != nil && job.Ctx.Err() == nil {
				job.Logger.Error().Err(err).Msg("Failed to sweep notifications")
			}
		}
		return nil
	})
}
