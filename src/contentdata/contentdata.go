/*
The Postgres implementation of the content and notification stores.

Everything here goes through the helpers in the db package, so queries select
into models with $columns. Saves run in a single transaction started by Tx; a
post's number is taken inside a savepoint so that a collision can be rolled
back without losing the rest of the save.
*/
package contentdata

import (
	"context"
	"fmt"
	"strings"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/notifications"
	"git.collab.network/collab/src/oops"
	"github.com/jackc/pgx/v5"
)

type Store struct {
	Conn db.ConnOrTx
}

var _ content.Store = &Store{}
var _ notifications.Store = &Store{}

func New(conn db.ConnOrTx) *Store {
	return &Store{Conn: conn}
}

func (s *Store) Tx(ctx context.Context, f func(tx content.StoreTx) error) error {
	return db.Tx(ctx, s.Conn, func(pgtx pgx.Tx) error {
		return f(&tx{conn: pgtx})
	})
}

func (s *Store) FetchUser(ctx context.Context, id int) (*models.User, error) {
	return fetchUser(ctx, s.Conn, id)
}

func (s *Store) FetchPost(ctx context.Context, id int) (*models.Post, error) {
	return fetchPost(ctx, s.Conn, id, false)
}

func (s *Store) FetchComment(ctx context.Context, id int) (*models.Comment, error) {
	return fetchComment(ctx, s.Conn, id, false)
}

func (s *Store) ListPosts(ctx context.Context, q content.PostsQuery) ([]*models.Post, error) {
	qb := listPostsQuery(q)
	posts, err := db.Query[models.Post](ctx, s.Conn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to list posts for project %d", q.ProjectID)
	}
	return posts, nil
}

func (s *Store) ListComments(ctx context.Context, q content.CommentsQuery) ([]*models.Comment, error) {
	var qb db.QueryBuilder
	qb.Add(`SELECT $columns FROM comment WHERE post_id = $?`, q.PostID)
	addVisibility(&qb, q.ActiveOnly, q.Drafts)
	qb.Add(`ORDER BY id ASC`)

	comments, err := db.Query[models.Comment](ctx, s.Conn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to list comments for post %d", q.PostID)
	}
	return comments, nil
}

const activeStatesCondition = `state IN ('published', 'edited')`

// Filters to active rows plus the drafts in scope. Must come before any
// LIMIT or OFFSET.
func addVisibility(qb *db.QueryBuilder, activeOnly bool, drafts auth.DraftScope) {
	switch {
	case activeOnly || drafts.None():
		qb.Add(`AND ` + activeStatesCondition)
	case drafts.All:
	default:
		qb.Add(`AND (`+activeStatesCondition+` OR user_id = $?)`, drafts.AuthorID)
	}
}

func listPostsQuery(q content.PostsQuery) *db.QueryBuilder {
	var qb db.QueryBuilder
	qb.Add(`SELECT $columns FROM post WHERE project_id = $?`, q.ProjectID)
	addVisibility(&qb, q.ActiveOnly, q.Drafts)
	qb.Add(orderClause(q.OrderOrDefault()))
	qb.AddPage(q.Limit, q.Offset)
	return &qb
}

// Drafts have no number and always sort after numbered posts. Ties go to the
// newest post.
func orderClause(order content.Order) string {
	switch order {
	case content.OrderNumberAsc:
		return `ORDER BY number ASC NULLS LAST, id DESC`
	case content.OrderNewest:
		return `ORDER BY id DESC`
	case content.OrderOldest:
		return `ORDER BY id ASC`
	default:
		return `ORDER BY number DESC NULLS LAST, id DESC`
	}
}

func fetchUser(ctx context.Context, conn db.ConnOrTx, id int) (*models.User, error) {
	user, err := db.QueryOne[models.User](ctx, conn,
		`SELECT $columns FROM collab_user WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch user %d", id)
	}
	return user, nil
}

func fetchPost(ctx context.Context, conn db.ConnOrTx, id int, forUpdate bool) (*models.Post, error) {
	post, err := db.QueryOne[models.Post](ctx, conn,
		`SELECT $columns FROM post WHERE id = $1`+lockClause(forUpdate),
		id,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch post %d", id)
	}
	return post, nil
}

func fetchComment(ctx context.Context, conn db.ConnOrTx, id int, forUpdate bool) (*models.Comment, error) {
	comment, err := db.QueryOne[models.Comment](ctx, conn,
		`SELECT $columns FROM comment WHERE id = $1`+lockClause(forUpdate),
		id,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch comment %d", id)
	}
	return comment, nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return ` FOR UPDATE`
	}
	return ""
}

// Used by tooling that sets up users outside of any save.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := db.Tx(ctx, s.Conn, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`
			INSERT INTO collab_user (username, email, name, is_staff)
			VALUES ($1, $2, $3, $4)
			RETURNING id, inserted_at
			`,
			user.Username, user.Email, user.Name, user.IsStaff,
		).Scan(&user.ID, &user.InsertedAt)
	})
	if db.IsUniqueViolation(err, "collab_user_username") {
		return oops.New(err, "username %s is already taken", user.Username)
	} else if err != nil {
		return oops.New(err, "failed to create user %s", user.Username)
	}
	return nil
}

func (s *Store) FetchUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := db.QueryOne[models.User](ctx, s.Conn,
		`SELECT $columns FROM collab_user WHERE LOWER(username) = $1`,
		strings.ToLower(username),
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch user %s", username)
	}
	return user, nil
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if project.Slug == "" {
		project.Slug = models.GenerateSlug(project.Name)
	}
	err := s.Conn.QueryRow(ctx,
		`
		INSERT INTO project (slug, name, blurb)
		VALUES ($1, $2, $3)
		RETURNING id, inserted_at
		`,
		project.Slug, project.Name, project.Blurb,
	).Scan(&project.ID, &project.InsertedAt)
	if err != nil {
		return oops.New(err, "failed to create project %s", project.Slug)
	}
	return nil
}

func notFoundUnlessAffected(affected int64, what string, id int) error {
	if affected == 0 {
		return oops.New(db.NotFound, "no %s with id %d", what, id)
	}
	return nil
}

func describe(ref notifications.EntityRef) string {
	return fmt.Sprintf("%s %d", ref.Kind, ref.ID)
}
