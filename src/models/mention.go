package models

import "time"

// A reference from a post or comment to a user. Mentions are derived from the
// committed text of their entity and replaced wholesale whenever it is saved.
type Mention struct {
	ID int `db:"id"`

	EntityKind ContentKind `db:"entity_kind"`
	EntityID   int         `db:"entity_id"`
	UserID     int         `db:"user_id"`

	InsertedAt time.Time `db:"inserted_at"`
}
