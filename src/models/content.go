package models

import "time"

type ContentState string

const (
	ContentStateDraft     ContentState = "draft"
	ContentStatePublished ContentState = "published"
	ContentStateEdited    ContentState = "edited"
)

// Published and edited content is visible to everyone; drafts only to their authors.
var ActiveContentStates = []ContentState{ContentStatePublished, ContentStateEdited}

func (s ContentState) IsActive() bool {
	return s == ContentStatePublished || s == ContentStateEdited
}

type ContentKind string

const (
	ContentKindPost    ContentKind = "post"
	ContentKindComment ContentKind = "comment"
)

/*
The fields shared by every piece of user-authored content. The preview fields
hold staged text and are rewritten on every save; the committed fields only
change when a save commits, at which point they are copied from the preview.
*/
type ContentFields struct {
	MarkdownPreview *string      `db:"markdown_preview"`
	BodyPreview     *string      `db:"body_preview"`
	Markdown        *string      `db:"markdown"`
	Body            *string      `db:"body"`
	State           ContentState `db:"state"`

	InsertedAt time.Time `db:"inserted_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Returns the last modification time of edited content, and nil otherwise.
func (c *ContentFields) EditedAt() *time.Time {
	if c.State != ContentStateEdited {
		return nil
	}
	t := c.UpdatedAt
	return &t
}

func (c *ContentFields) IsDraft() bool {
	return c.State == ContentStateDraft
}
