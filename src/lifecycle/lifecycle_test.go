package lifecycle

import (
	"errors"
	"testing"

	"git.collab.network/collab/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		to, err := Next(models.ContentStateDraft, EventPublish)
		assert.Nil(t, err)
		assert.Equal(t, models.ContentStatePublished, to)

		to, err = Next(models.ContentStatePublished, EventEdit)
		assert.Nil(t, err)
		assert.Equal(t, models.ContentStateEdited, to)

		to, err = Next(models.ContentStateEdited, EventEdit)
		assert.Nil(t, err)
		assert.Equal(t, models.ContentStateEdited, to)
	})
	t.Run("rejected", func(t *testing.T) {
		for _, from := range []models.ContentState{models.ContentStateDraft, models.ContentStatePublished, models.ContentStateEdited, "bogus"} {
			for _, event := range []Event{EventPublish, EventEdit} {
				if _, ok := transitions[from][event]; ok {
					continue
				}
				_, err := Next(from, event)
				var invalid *InvalidTransitionError
				if assert.True(t, errors.As(err, &invalid), "%s x %s", from, event) {
					assert.Equal(t, from, invalid.From)
					assert.Equal(t, event, invalid.Event)
				}
			}
		}
	})
	t.Run("no direct draft to edited", func(t *testing.T) {
		_, err := Next(models.ContentStateDraft, EventEdit)
		assert.Error(t, err)
	})
}

func TestEventFor(t *testing.T) {
	assert.Equal(t, EventPublish, EventFor(models.ContentStateDraft))
	assert.Equal(t, EventEdit, EventFor(models.ContentStatePublished))
	assert.Equal(t, EventEdit, EventFor(models.ContentStateEdited))
}

func TestStage(t *testing.T) {
	var fields models.ContentFields
	Stage(&fields, "# Hello World\n\nHello, world.")

	require.NotNil(t, fields.MarkdownPreview)
	require.NotNil(t, fields.BodyPreview)
	assert.Equal(t, "# Hello World\n\nHello, world.", *fields.MarkdownPreview)
	assert.Equal(t, "<h1>Hello World</h1>\n\n<p>Hello, world.</p>", *fields.BodyPreview)
	assert.Nil(t, fields.Markdown)
	assert.Nil(t, fields.Body)
}

func TestCommit(t *testing.T) {
	t.Run("preview save changes nothing", func(t *testing.T) {
		markdown, body := "old", "<p>old</p>"
		fields := models.ContentFields{Markdown: &markdown, Body: &body, State: models.ContentStatePublished}
		Stage(&fields, "new")

		transition, err := Commit(&fields, false)
		assert.Nil(t, err)
		assert.False(t, transition.Happened())
		assert.Equal(t, "old", *fields.Markdown)
		assert.Equal(t, "<p>old</p>", *fields.Body)
		assert.Equal(t, models.ContentStatePublished, fields.State)
	})
	t.Run("draft is published", func(t *testing.T) {
		fields := models.ContentFields{State: models.ContentStateDraft}
		Stage(&fields, "Hi *there*")

		transition, err := Commit(&fields, true)
		assert.Nil(t, err)
		assert.True(t, transition.Happened())
		assert.True(t, transition.IsFirstPublish())
		assert.Equal(t, EventPublish, transition.Event)
		assert.Equal(t, models.ContentStatePublished, fields.State)
		assert.Equal(t, "Hi *there*", *fields.Markdown)
		assert.Equal(t, "<p>Hi <em>there</em></p>", *fields.Body)
	})
	t.Run("published is edited", func(t *testing.T) {
		fields := models.ContentFields{State: models.ContentStatePublished}
		Stage(&fields, "edited")

		transition, err := Commit(&fields, true)
		assert.Nil(t, err)
		assert.False(t, transition.IsFirstPublish())
		assert.Equal(t, Transition{From: models.ContentStatePublished, To: models.ContentStateEdited, Event: EventEdit}, transition)
		assert.Equal(t, "edited", *fields.Markdown)
	})
	t.Run("edited stays edited but content updates", func(t *testing.T) {
		old := "v2"
		fields := models.ContentFields{Markdown: &old, State: models.ContentStateEdited}
		Stage(&fields, "v3")

		transition, err := Commit(&fields, true)
		assert.Nil(t, err)
		assert.True(t, transition.Happened())
		assert.Equal(t, models.ContentStateEdited, fields.State)
		assert.Equal(t, "v3", *fields.Markdown)
	})
	t.Run("invalid state leaves fields alone", func(t *testing.T) {
		fields := models.ContentFields{State: "archived"}
		Stage(&fields, "text")

		_, err := Commit(&fields, true)
		var invalid *InvalidTransitionError
		assert.True(t, errors.As(err, &invalid))
		assert.Nil(t, fields.Markdown)
		assert.Equal(t, models.ContentState("archived"), fields.State)
	})
	t.Run("committed fields are copies", func(t *testing.T) {
		fields := models.ContentFields{State: models.ContentStateDraft}
		Stage(&fields, "first")
		_, err := Commit(&fields, true)
		require.Nil(t, err)

		Stage(&fields, "second")
		assert.Equal(t, "first", *fields.Markdown)
	})
}
