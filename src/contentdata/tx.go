package contentdata

import (
	"context"
	"errors"
	"strings"

	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/oops"
	"github.com/jackc/pgx/v5"
)

// Key space for pg_advisory_xact_lock, paired with a project id.
const postNumberLockSpace = 7301

type tx struct {
	conn pgx.Tx
}

var _ content.StoreTx = &tx{}

func (t *tx) FetchProject(ctx context.Context, id int) (*models.Project, error) {
	project, err := db.QueryOne[models.Project](ctx, t.conn,
		`SELECT $columns FROM project WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch project %d", id)
	}
	return project, nil
}

func (t *tx) FetchPost(ctx context.Context, id int) (*models.Post, error) {
	return fetchPost(ctx, t.conn, id, false)
}

func (t *tx) FetchPostForUpdate(ctx context.Context, id int) (*models.Post, error) {
	return fetchPost(ctx, t.conn, id, true)
}

func (t *tx) FetchCommentForUpdate(ctx context.Context, id int) (*models.Comment, error) {
	return fetchComment(ctx, t.conn, id, true)
}

func (t *tx) InsertPost(ctx context.Context, post *models.Post) error {
	err := t.conn.QueryRow(ctx,
		`
		INSERT INTO post (project_id, user_id, title, markdown_preview, body_preview, markdown, body, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, inserted_at, updated_at
		`,
		post.ProjectID,
		post.UserID,
		post.Title,
		post.MarkdownPreview,
		post.BodyPreview,
		post.Markdown,
		post.Body,
		string(post.State),
	).Scan(&post.ID, &post.InsertedAt, &post.UpdatedAt)
	if err != nil {
		return oops.New(err, "failed to insert post")
	}
	return nil
}

// The number column is never written here; the post gets back whatever the
// database holds.
func (t *tx) UpdatePost(ctx context.Context, post *models.Post) error {
	err := t.conn.QueryRow(ctx,
		`
		UPDATE post
		SET
			title = $2,
			markdown_preview = $3,
			body_preview = $4,
			markdown = $5,
			body = $6,
			state = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING number, updated_at
		`,
		post.ID,
		post.Title,
		post.MarkdownPreview,
		post.BodyPreview,
		post.Markdown,
		post.Body,
		string(post.State),
	).Scan(&post.Number, &post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.New(db.NotFound, "no post with id %d", post.ID)
	} else if err != nil {
		return oops.New(err, "failed to update post %d", post.ID)
	}
	return nil
}

func (t *tx) InsertComment(ctx context.Context, comment *models.Comment) error {
	err := t.conn.QueryRow(ctx,
		`
		INSERT INTO comment (post_id, user_id, markdown_preview, body_preview, markdown, body, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, inserted_at, updated_at
		`,
		comment.PostID,
		comment.UserID,
		comment.MarkdownPreview,
		comment.BodyPreview,
		comment.Markdown,
		comment.Body,
		string(comment.State),
	).Scan(&comment.ID, &comment.InsertedAt, &comment.UpdatedAt)
	if err != nil {
		return oops.New(err, "failed to insert comment")
	}
	return nil
}

func (t *tx) UpdateComment(ctx context.Context, comment *models.Comment) error {
	err := t.conn.QueryRow(ctx,
		`
		UPDATE comment
		SET
			markdown_preview = $2,
			body_preview = $3,
			markdown = $4,
			body = $5,
			state = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
		`,
		comment.ID,
		comment.MarkdownPreview,
		comment.BodyPreview,
		comment.Markdown,
		comment.Body,
		string(comment.State),
	).Scan(&comment.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.New(db.NotFound, "no comment with id %d", comment.ID)
	} else if err != nil {
		return oops.New(err, "failed to update comment %d", comment.ID)
	}
	return nil
}

/*
Takes MAX(number) + 1 within the project. The advisory lock serializes
concurrent first publishes in one project, and the unique index on
(project_id, number) catches anything that gets past it. The work happens in a
savepoint so a collision leaves the outer transaction usable for a retry.
*/
func (t *tx) AssignPostNumber(ctx context.Context, post *models.Post) error {
	var number int
	err := db.Tx(ctx, t.conn, func(sp pgx.Tx) error {
		_, err := sp.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, postNumberLockSpace, post.ProjectID)
		if err != nil {
			return oops.New(err, "failed to lock post numbers for project %d", post.ProjectID)
		}

		number, err = db.QueryOneScalar[int](ctx, sp,
			`SELECT COALESCE(MAX(number), 0) + 1 FROM post WHERE project_id = $1`,
			post.ProjectID,
		)
		if err != nil {
			return oops.New(err, "failed to find next post number")
		}

		tag, err := sp.Exec(ctx,
			`UPDATE post SET number = $2 WHERE id = $1 AND number IS NULL`,
			post.ID, number,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return oops.New(nil, "post %d is missing or already numbered", post.ID)
		}
		return nil
	})
	if db.IsUniqueViolation(err, "post_project_number") {
		return oops.New(content.ErrDuplicateSequenceValue, "number %d is taken in project %d", number, post.ProjectID)
	} else if err != nil {
		return oops.New(err, "failed to assign number to post %d", post.ID)
	}

	post.Number = &number
	return nil
}

type userIDAndName struct {
	ID       int    `db:"id"`
	Username string `db:"username"`
}

func (t *tx) FindUserIDsByUsername(ctx context.Context, usernames []string) (map[string]int, error) {
	lowered := make([]string, len(usernames))
	for i, username := range usernames {
		lowered[i] = strings.ToLower(username)
	}

	users, err := db.Query[userIDAndName](ctx, t.conn,
		`SELECT $columns FROM collab_user WHERE LOWER(username) = ANY($1)`,
		lowered,
	)
	if err != nil {
		return nil, oops.New(err, "failed to look up mentioned users")
	}

	res := make(map[string]int, len(users))
	for _, u := range users {
		res[strings.ToLower(u.Username)] = u.ID
	}
	return res, nil
}

// Notifications pointing at deleted mentions keep existing; the foreign key
// clears their mention_id.
func (t *tx) ReplaceMentions(ctx context.Context, kind models.ContentKind, entityID int, userIDs []int) error {
	_, err := t.conn.Exec(ctx,
		`DELETE FROM user_mention WHERE entity_kind = $1 AND entity_id = $2`,
		string(kind), entityID,
	)
	if err != nil {
		return oops.New(err, "failed to delete mentions of %s %d", kind, entityID)
	}

	if len(userIDs) == 0 {
		return nil
	}

	_, err = t.conn.Exec(ctx,
		`
		INSERT INTO user_mention (entity_kind, entity_id, user_id)
		SELECT $1, $2, unnest($3::INT[])
		`,
		string(kind), entityID, userIDs,
	)
	if err != nil {
		return oops.New(err, "failed to insert mentions of %s %d", kind, entityID)
	}
	return nil
}
