package models

type Post struct {
	ID int `db:"id"`

	ProjectID int `db:"project_id"`
	UserID    int `db:"user_id"`

	Title string `db:"title"`

	// Assigned when the post is first published, and never changed after.
	// Unique within the project.
	Number *int `db:"number"`

	ContentFields
}
