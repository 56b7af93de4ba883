package content

import (
	"strings"
	"testing"

	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/utils"
	"github.com/stretchr/testify/assert"
)

func TestValidatePost(t *testing.T) {
	valid := func() *models.Post {
		return &models.Post{
			ProjectID: 1,
			UserID:    2,
			Title:     "Title",
			ContentFields: models.ContentFields{
				MarkdownPreview: utils.P("text"),
				State:           models.ContentStatePublished,
			},
		}
	}

	assert.Empty(t, validatePost(valid()))

	t.Run("title only required once published", func(t *testing.T) {
		post := valid()
		post.Title = "   "
		assert.Equal(t, []string{"can't be blank"}, validatePost(post)["title"])

		post.State = models.ContentStateDraft
		assert.Empty(t, validatePost(post))
	})
	t.Run("project and user always required", func(t *testing.T) {
		post := valid()
		post.State = models.ContentStateDraft
		post.ProjectID = 0
		post.UserID = 0
		errs := validatePost(post)
		assert.Contains(t, errs, "project_id")
		assert.Contains(t, errs, "user_id")
	})
	t.Run("content must exist somewhere", func(t *testing.T) {
		post := valid()
		post.MarkdownPreview = nil
		assert.Contains(t, validatePost(post), "markdown_preview")

		post.Markdown = utils.P("committed")
		assert.Empty(t, validatePost(post))
	})
	t.Run("title length", func(t *testing.T) {
		post := valid()
		post.Title = strings.Repeat("a", 256)
		assert.Equal(t, []string{"is too long (maximum is 255)"}, validatePost(post)["title"])
	})
	t.Run("state", func(t *testing.T) {
		post := valid()
		post.State = "archived"
		assert.Equal(t, []string{"is invalid"}, validatePost(post)["state"])
	})
}

func TestValidateComment(t *testing.T) {
	comment := &models.Comment{
		ContentFields: models.ContentFields{
			MarkdownPreview: utils.P("text"),
			State:           models.ContentStateDraft,
		},
	}
	errs := validateComment(comment)
	assert.Contains(t, errs, "post_id")
	assert.Contains(t, errs, "user_id")
	assert.NotContains(t, errs, "markdown_preview")
}
