package auth

import (
	"errors"
	"testing"
	"time"

	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy(t *testing.T) {
	var policy Policy

	author := &models.User{ID: 1, Username: "author"}
	other := &models.User{ID: 2, Username: "other"}
	staff := &models.User{ID: 3, Username: "staff", IsStaff: true}

	draft := &models.Post{UserID: 1, ContentFields: models.ContentFields{State: models.ContentStateDraft}}
	published := &models.Post{UserID: 1, ContentFields: models.ContentFields{State: models.ContentStatePublished}}
	comment := &models.Comment{UserID: 1, ContentFields: models.ContentFields{State: models.ContentStateEdited}}

	t.Run("viewing", func(t *testing.T) {
		assert.True(t, policy.Authorized(nil, ActionView, published))
		assert.True(t, policy.Authorized(author, ActionView, draft))
		assert.True(t, policy.Authorized(staff, ActionView, draft))
		assert.False(t, policy.Authorized(other, ActionView, draft))
		assert.False(t, policy.Authorized(nil, ActionView, draft))
		assert.True(t, policy.Authorized(nil, ActionView, comment))
	})
	t.Run("editing", func(t *testing.T) {
		assert.True(t, policy.Authorized(author, ActionEdit, published))
		assert.True(t, policy.Authorized(staff, ActionEdit, published))
		assert.False(t, policy.Authorized(other, ActionEdit, published))
		assert.False(t, policy.Authorized(nil, ActionEdit, published))
		assert.False(t, policy.Authorized(other, ActionEdit, comment))
	})
	t.Run("creating", func(t *testing.T) {
		project := &models.Project{ID: 1}
		assert.True(t, policy.Authorized(other, ActionCreatePost, project))
		assert.False(t, policy.Authorized(nil, ActionCreatePost, project))
		assert.True(t, policy.Authorized(other, ActionComment, published))
		assert.False(t, policy.Authorized(other, ActionComment, draft))
		assert.False(t, policy.Authorized(nil, ActionComment, published))
	})
	t.Run("visible drafts", func(t *testing.T) {
		assert.True(t, policy.VisibleDrafts(nil).None())
		assert.Equal(t, DraftScope{AuthorID: 1}, policy.VisibleDrafts(author))
		assert.True(t, policy.VisibleDrafts(author).Includes(1))
		assert.False(t, policy.VisibleDrafts(other).Includes(1))
		assert.True(t, policy.VisibleDrafts(staff).Includes(1))
		assert.False(t, DraftScope{}.Includes(0))
	})
	t.Run("unknown", func(t *testing.T) {
		assert.False(t, policy.Authorized(staff, ActionCreatePost, published))
		assert.False(t, policy.Authorized(staff, ActionEdit, "something else"))
	})
}

func TestTokens(t *testing.T) {
	cfg := config.AuthConfig{
		TokenSecret: "test-secret",
		TokenIssuer: "collab-test",
		TokenTTL:    time.Hour,
	}

	t.Run("round trip", func(t *testing.T) {
		token, err := IssueToken(cfg, 42, "ben", time.Now())
		require.Nil(t, err)

		claims, err := ParseToken(cfg, "Bearer "+token)
		require.Nil(t, err)
		assert.Equal(t, "ben", claims.Username)
		id, err := claims.UserID()
		assert.Nil(t, err)
		assert.Equal(t, 42, id)
	})
	t.Run("expired", func(t *testing.T) {
		token, err := IssueToken(cfg, 42, "ben", time.Now().Add(-2*time.Hour))
		require.Nil(t, err)

		_, err = ParseToken(cfg, token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
	t.Run("wrong secret", func(t *testing.T) {
		token, err := IssueToken(cfg, 42, "ben", time.Now())
		require.Nil(t, err)

		other := cfg
		other.TokenSecret = "nope"
		_, err = ParseToken(other, token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
	t.Run("wrong issuer", func(t *testing.T) {
		token, err := IssueToken(cfg, 42, "ben", time.Now())
		require.Nil(t, err)

		other := cfg
		other.TokenIssuer = "someone-else"
		_, err = ParseToken(other, token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
	t.Run("empty", func(t *testing.T) {
		_, err := ParseToken(cfg, "")
		assert.True(t, errors.Is(err, ErrInvalidToken))
		_, err = ParseToken(cfg, "Bearer ")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}
