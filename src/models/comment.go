package models

type Comment struct {
	ID int `db:"id"`

	PostID int `db:"post_id"`
	UserID int `db:"user_id"`

	ContentFields
}
