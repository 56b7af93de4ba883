package contentdata

import (
	"strings"
	"testing"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/content"
	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "ORDER BY number DESC NULLS LAST, id DESC", orderClause(content.OrderNumberDesc))
	assert.Equal(t, "ORDER BY number ASC NULLS LAST, id DESC", orderClause(content.OrderNumberAsc))
	assert.Equal(t, "ORDER BY id DESC", orderClause(content.OrderNewest))
	assert.Equal(t, "ORDER BY id ASC", orderClause(content.OrderOldest))
	assert.Equal(t, orderClause(content.OrderNumberDesc), orderClause(""))
}

func TestListPostsQuery(t *testing.T) {
	t.Run("no drafts in scope", func(t *testing.T) {
		qb := listPostsQuery(content.PostsQuery{ProjectID: 3})
		assert.Contains(t, qb.String(), "WHERE project_id = $1")
		assert.Contains(t, qb.String(), "AND "+activeStatesCondition)
		assert.NotContains(t, qb.String(), "LIMIT")
		assert.Contains(t, qb.String(), "NULLS LAST")
		assert.Equal(t, []interface{}{3}, qb.Args())
	})
	t.Run("everything", func(t *testing.T) {
		qb := listPostsQuery(content.PostsQuery{ProjectID: 3, Drafts: auth.DraftScope{All: true}})
		assert.NotContains(t, qb.String(), activeStatesCondition)
		assert.Equal(t, []interface{}{3}, qb.Args())
	})
	t.Run("own drafts are filtered before paging", func(t *testing.T) {
		qb := listPostsQuery(content.PostsQuery{
			ProjectID: 3,
			Drafts:    auth.DraftScope{AuthorID: 7},
			Order:     content.OrderNewest,
			Limit:     1,
		})
		sql := qb.String()
		assert.Contains(t, sql, "AND ("+activeStatesCondition+" OR user_id = $2)")
		assert.Less(t, strings.Index(sql, "user_id"), strings.Index(sql, "LIMIT $3"))
		assert.Equal(t, []interface{}{3, 7, 1}, qb.Args())
	})
	t.Run("active only ignores drafts", func(t *testing.T) {
		qb := listPostsQuery(content.PostsQuery{ProjectID: 3, ActiveOnly: true, Drafts: auth.DraftScope{All: true}})
		assert.Contains(t, qb.String(), "AND "+activeStatesCondition)
		assert.Equal(t, []interface{}{3}, qb.Args())
	})
	t.Run("active page", func(t *testing.T) {
		qb := listPostsQuery(content.PostsQuery{
			ProjectID:  3,
			ActiveOnly: true,
			Order:      content.OrderOldest,
			Limit:      20,
			Offset:     40,
		})
		assert.Contains(t, qb.String(), "AND "+activeStatesCondition)
		assert.Contains(t, qb.String(), "ORDER BY id ASC")
		assert.Contains(t, qb.String(), "LIMIT $2")
		assert.Contains(t, qb.String(), "OFFSET $3")
		assert.Equal(t, []interface{}{3, 20, 40}, qb.Args())
	})
}

func TestLockClause(t *testing.T) {
	assert.Equal(t, "", lockClause(false))
	assert.Equal(t, " FOR UPDATE", lockClause(true))
}
