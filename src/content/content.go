/*
Creating, saving, and listing posts and comments.

Every save runs in a single transaction: the staged fields and new state are
written, a post gets its number on first publish, and mentions are regenerated
from the committed markdown. Only once that transaction has committed is a
transition event published for the notifications dispatcher.
*/
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/mentions"
	"git.collab.network/collab/src/models"
)

var ErrForbidden = errors.New("forbidden")

// Reported by AssignPostNumber when another post in the same project already
// holds the number it tried to take.
var ErrDuplicateSequenceValue = errors.New("duplicate sequence value")

// Field name to messages. Field names match the JSON attribute names.
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", field, strings.Join(e[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e ValidationErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

type PostAttrs struct {
	ProjectID       int
	Title           *string
	MarkdownPreview *string
}

type CommentAttrs struct {
	PostID          int
	MarkdownPreview *string
}

type Order string

const (
	OrderNumberDesc Order = "number_desc"
	OrderNumberAsc  Order = "number_asc"
	OrderNewest     Order = "newest"
	OrderOldest     Order = "oldest"
)

func ParseOrder(s string) (Order, bool) {
	switch o := Order(s); o {
	case OrderNumberDesc, OrderNumberAsc, OrderNewest, OrderOldest:
		return o, true
	case "":
		return OrderNumberDesc, true
	}
	return "", false
}

type PostsQuery struct {
	ProjectID  int
	ActiveOnly bool

	// Drafts listed besides active content, unless ActiveOnly is set. Filled
	// in by the service from its Authorizer.
	Drafts auth.DraftScope

	// Defaults to OrderNumberDesc. Drafts have no number and sort last.
	Order Order

	Limit  int // zero means no limit
	Offset int
}

func (q PostsQuery) OrderOrDefault() Order {
	if q.Order == "" {
		return OrderNumberDesc
	}
	return q.Order
}

type CommentsQuery struct {
	PostID     int
	ActiveOnly bool
	Drafts     auth.DraftScope
}

// Read access outside of a save.
type Reader interface {
	FetchUser(ctx context.Context, id int) (*models.User, error)
	FetchPost(ctx context.Context, id int) (*models.Post, error)
	FetchComment(ctx context.Context, id int) (*models.Comment, error)
	ListPosts(ctx context.Context, q PostsQuery) ([]*models.Post, error)
	ListComments(ctx context.Context, q CommentsQuery) ([]*models.Comment, error)
}

type Store interface {
	Reader

	// Runs f in a transaction, committing if f returns nil and rolling back
	// otherwise.
	Tx(ctx context.Context, f func(tx StoreTx) error) error
}

// Everything a save needs. Fetch methods return an error wrapping db.NotFound
// when nothing matches.
type StoreTx interface {
	mentions.Store

	FetchProject(ctx context.Context, id int) (*models.Project, error)
	FetchPost(ctx context.Context, id int) (*models.Post, error)
	FetchPostForUpdate(ctx context.Context, id int) (*models.Post, error)
	FetchCommentForUpdate(ctx context.Context, id int) (*models.Comment, error)

	// Insert methods set the ID and timestamps of the new row.
	InsertPost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	InsertComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, comment *models.Comment) error

	// Gives the post the next number in its project and sets post.Number.
	// Returns an error wrapping ErrDuplicateSequenceValue on collision; the
	// transaction is still usable afterward.
	AssignPostNumber(ctx context.Context, post *models.Post) error
}
