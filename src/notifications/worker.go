package notifications

import (
	"context"
	"errors"
	"time"

	"git.collab.network/collab/src/collaburl"
	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/logging"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/oops"
	"git.collab.network/collab/src/utils"
	"github.com/jpillora/backoff"
)

var ErrNoEmailAddress = errors.New("recipient has no email address")

type Worker struct {
	Store     Store
	Deliverer Deliverer

	MaxAttempts int
	RetryMin    time.Duration
	RetryMax    time.Duration
	ClaimLease  time.Duration

	// Used to build links in messages.
	BaseUrl string

	Now func() time.Time
}

func NewWorker(store Store, deliverer Deliverer, cfg config.CollabConfig) *Worker {
	return &Worker{
		Store:       store,
		Deliverer:   deliverer,
		MaxAttempts: cfg.Notifications.MaxAttempts,
		RetryMin:    cfg.Notifications.RetryMin,
		RetryMax:    cfg.Notifications.RetryMax,
		ClaimLease:  cfg.Notifications.ClaimLease,
		BaseUrl:     cfg.BaseUrl,
	}
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

/*
Handles one transition. The entity's mentions are re-read from the database
rather than taken from the event, so a transition that is processed late (or
twice) still acts on the current state of things.

Pending notifications are claimed before delivery, so workers processing the
same entity at the same time (in this process or another) never deliver the
same notification twice. A claim left behind by a worker that died runs out
after ClaimLease and is picked up by the sweeper.

Delivery failures are retried with backoff until MaxAttempts, after which the
notification is marked failed. They are never returned; only store errors and
cancellation are.
*/
func (w *Worker) Process(ctx context.Context, t events.Transition) error {
	return w.ProcessEntity(ctx, EntityRef{Kind: t.Kind, ID: t.EntityID})
}

func (w *Worker) ProcessEntity(ctx context.Context, ref EntityRef) error {
	log := logging.ExtractLogger(ctx).With().
		Str("kind", string(ref.Kind)).
		Int("id", ref.ID).
		Logger()

	created, err := w.Store.CreatePendingNotifications(ctx, ref)
	if err != nil {
		return oops.New(err, "failed to create notifications for %s %d", ref.Kind, ref.ID)
	}
	if created > 0 {
		log.Debug().Int("created", created).Msg("Created notifications")
	}

	now := w.now()
	pending, err := w.Store.ClaimPendingNotifications(ctx, ref, now, now.Add(utils.OrDefault(w.ClaimLease, 15*time.Minute)))
	if err != nil {
		return oops.New(err, "failed to claim pending notifications for %s %d", ref.Kind, ref.ID)
	}
	if len(pending) == 0 {
		return nil
	}

	subject, err := w.Store.FetchSubject(ctx, ref)
	if errors.Is(err, db.NotFound) {
		log.Warn().Msg("Content for pending notifications no longer exists")
		return nil
	} else if err != nil {
		return oops.New(err, "failed to fetch notification subject")
	}

	for _, n := range pending {
		if err := w.deliver(ctx, n, subject); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, n *models.Notification, subject *Subject) error {
	log := logging.ExtractLogger(ctx).With().Int("notification", n.ID).Int("user", n.UserID).Logger()

	recipient, err := w.Store.FetchUser(ctx, n.UserID)
	if err != nil {
		return oops.New(err, "failed to fetch recipient of notification %d", n.ID)
	}

	msg := Message{
		Recipient:    recipient,
		Subject:      subject,
		Notification: n,
		URL:          w.urlFor(subject),
	}

	maxAttempts := utils.OrDefault(w.MaxAttempts, 1)
	boff := backoff.Backoff{
		Min:    utils.OrDefault(w.RetryMin, time.Second),
		Max:    utils.OrDefault(w.RetryMax, time.Minute),
		Factor: 2,
		Jitter: true,
	}

	for n.Attempts < maxAttempts {
		n.Attempts++

		var deliverErr error
		if recipient.Email == "" {
			deliverErr = ErrNoEmailAddress
		} else {
			deliverErr = func() (err error) {
				defer utils.RecoverPanicAsError(&err)
				return w.Deliverer.Deliver(ctx, msg)
			}()
		}

		if deliverErr == nil {
			if err := w.Store.MarkNotificationSent(ctx, n.ID, n.Attempts, w.now()); err != nil {
				return oops.New(err, "failed to mark notification %d sent", n.ID)
			}
			n.State = models.NotificationStateSent
			log.Info().Int("attempts", n.Attempts).Msg("Delivered notification")
			return nil
		}

		n.LastError = deliverErr.Error()
		if n.Attempts >= maxAttempts || errors.Is(deliverErr, ErrNoEmailAddress) {
			if err := w.Store.MarkNotificationFailed(ctx, n.ID, n.Attempts, n.LastError); err != nil {
				return oops.New(err, "failed to mark notification %d failed", n.ID)
			}
			n.State = models.NotificationStateFailed
			log.Error().Err(deliverErr).Int("attempts", n.Attempts).Msg("Giving up on notification")
			return nil
		}

		if err := w.Store.RecordDeliveryAttempt(ctx, n.ID, n.Attempts, n.LastError); err != nil {
			return oops.New(err, "failed to record delivery attempt for notification %d", n.ID)
		}

		dur := boff.Duration()
		log.Warn().Err(deliverErr).Dur("retrying after", dur).Msg("Failed to deliver notification")
		if err := utils.SleepContext(ctx, dur); err != nil {
			return err
		}
	}

	// Attempts were already used up by an earlier run.
	if err := w.Store.MarkNotificationFailed(ctx, n.ID, n.Attempts, n.LastError); err != nil {
		return oops.New(err, "failed to mark notification %d failed", n.ID)
	}
	n.State = models.NotificationStateFailed
	return nil
}

func (w *Worker) urlFor(subject *Subject) string {
	urls := collaburl.UrlContext{BaseUrl: w.BaseUrl}
	if subject.Kind == models.ContentKindComment {
		return urls.BuildCommentOnPost(subject.PostID, subject.EntityID)
	}
	return urls.BuildPost(subject.PostID)
}
