/*
Transition events, emitted after a save that advanced (or re-entered) a
content lifecycle state has been committed to the database. The notifications
dispatcher consumes them; nothing in the save path knows about notifications.
*/
package events

import (
	"context"
	"time"

	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/lifecycle"
	"git.collab.network/collab/src/logging"
	"git.collab.network/collab/src/models"
)

type Transition struct {
	Kind     models.ContentKind  `json:"kind"`
	EntityID int                 `json:"entity_id"`
	Event    lifecycle.Event     `json:"event"`
	From     models.ContentState `json:"from"`
	To       models.ContentState `json:"to"`

	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, t Transition) error
}

type Queue interface {
	Publisher

	// Blocks until a transition is available or ctx is done, in which case
	// ctx.Err() is returned.
	Next(ctx context.Context) (Transition, error)
}

// Uses Redis when a URL is configured, and an in-process queue otherwise.
// The in-process queue loses anything not yet dispatched when the process
// exits; the sweeper picks those up again on the next start.
func NewQueue(cfg config.RedisConfig) (Queue, error) {
	if cfg.Url == "" {
		logging.Info().Msg("No Redis configured; using in-memory transition queue")
		return NewMemoryQueue(1024), nil
	}
	return NewRedisQueue(cfg.Url, cfg.QueueKey)
}
