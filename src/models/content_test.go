package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEditedAt(t *testing.T) {
	updated := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	for _, state := range []ContentState{ContentStateDraft, ContentStatePublished} {
		c := ContentFields{State: state, UpdatedAt: updated}
		assert.Nil(t, c.EditedAt(), string(state))
	}

	c := ContentFields{State: ContentStateEdited, UpdatedAt: updated}
	if assert.NotNil(t, c.EditedAt()) {
		assert.Equal(t, updated, *c.EditedAt())
	}
}

func TestIsActive(t *testing.T) {
	assert.False(t, ContentStateDraft.IsActive())
	assert.True(t, ContentStatePublished.IsActive())
	assert.True(t, ContentStateEdited.IsActive())
}
