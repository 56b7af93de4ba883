package admintools

import (
	"testing"

	"git.collab.network/collab/src/models"
	"github.com/stretchr/testify/assert"
)

func TestTestMessage(t *testing.T) {
	msg := testMessage("ben@example.com", "Ben")
	assert.Equal(t, "ben@example.com", msg.Recipient.Email)
	assert.Equal(t, "Ben", msg.Recipient.BestName())
	assert.Equal(t, models.ContentKindComment, msg.Subject.Kind)
	assert.Contains(t, msg.Subject.Markdown, "@Ben")
}
