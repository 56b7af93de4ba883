/*
Telling users they were mentioned.

Saves publish a transition event once their transaction commits. The
dispatcher job pulls those events off the queue and hands them to a Worker,
which turns the entity's persisted mentions into notification rows and delivers
them. A notification row is unique per (entity, user), so the same entity can
be processed any number of times without anyone hearing about it twice.
*/
package notifications

import (
	"context"
	"time"

	"git.collab.network/collab/src/models"
)

type EntityRef struct {
	Kind models.ContentKind `db:"entity_kind"`
	ID   int                `db:"entity_id"`
}

// What a notification is about, as shown to the recipient.
type Subject struct {
	Kind       models.ContentKind
	EntityID   int
	PostID     int
	PostTitle  string
	AuthorName string
	Markdown   string
}

type Store interface {
	// Inserts a pending notification for every current mention of the entity
	// that does not already have one. Returns how many were created.
	CreatePendingNotifications(ctx context.Context, ref EntityRef) (int, error)

	// Claims the entity's pending notifications that are not claimed by
	// anyone else as of now, holding them until the given time, and returns
	// them. A notification is only ever returned to one caller per claim.
	ClaimPendingNotifications(ctx context.Context, ref EntityRef, now, until time.Time) ([]*models.Notification, error)

	// Returns an error wrapping db.NotFound if the entity is gone.
	FetchSubject(ctx context.Context, ref EntityRef) (*Subject, error)
	FetchUser(ctx context.Context, id int) (*models.User, error)

	RecordDeliveryAttempt(ctx context.Context, id int, attempts int, lastError string) error
	MarkNotificationSent(ctx context.Context, id int, attempts int, sentAt time.Time) error
	MarkNotificationFailed(ctx context.Context, id int, attempts int, lastError string) error

	// Entities with mentions that have no notification yet, or with
	// unclaimed notifications still pending. Ignores mentions newer than
	// olderThan so that in-flight saves are left to their own events.
	UndispatchedEntities(ctx context.Context, olderThan time.Time, limit int) ([]EntityRef, error)
}

type Message struct {
	Recipient    *models.User
	Subject      *Subject
	Notification *models.Notification
	URL          string
}

type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}
