package models

import "time"

type NotificationState string

const (
	NotificationStatePending NotificationState = "pending"
	NotificationStateSent    NotificationState = "sent"
	NotificationStateFailed  NotificationState = "failed"
)

/*
One user being told about being mentioned in one entity. There is at most one
notification per (entity, user), which is what keeps repeated dispatches of the
same entity from notifying anybody twice.
*/
type Notification struct {
	ID int `db:"id"`

	EntityKind ContentKind `db:"entity_kind"`
	EntityID   int         `db:"entity_id"`
	UserID     int         `db:"user_id"`
	MentionID  *int        `db:"mention_id"` // nil once the mention has been regenerated away

	State     NotificationState `db:"state"`
	Attempts  int               `db:"attempts"`
	LastError string            `db:"last_error"`

	// Set while a worker is delivering the notification.
	ClaimedUntil *time.Time `db:"claimed_until"`

	InsertedAt time.Time  `db:"inserted_at"`
	SentAt     *time.Time `db:"sent_at"`
}
