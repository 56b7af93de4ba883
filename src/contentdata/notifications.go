package contentdata

import (
	"context"
	"sort"
	"time"

	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/notifications"
	"git.collab.network/collab/src/oops"
)

func (s *Store) CreatePendingNotifications(ctx context.Context, ref notifications.EntityRef) (int, error) {
	tag, err := s.Conn.Exec(ctx,
		`
		INSERT INTO notification (entity_kind, entity_id, user_id, mention_id)
		SELECT entity_kind, entity_id, user_id, id
		FROM user_mention
		WHERE entity_kind = $1 AND entity_id = $2
		ON CONFLICT (entity_kind, entity_id, user_id) DO NOTHING
		`,
		string(ref.Kind), ref.ID,
	)
	if err != nil {
		return 0, oops.New(err, "failed to create notifications for %s", describe(ref))
	}
	return int(tag.RowsAffected()), nil
}

// Concurrent claims of the same row serialize on the row lock, and the loser
// re-checks claimed_until against the winner's update.
func (s *Store) ClaimPendingNotifications(ctx context.Context, ref notifications.EntityRef, now, until time.Time) ([]*models.Notification, error) {
	claimed, err := db.Query[models.Notification](ctx, s.Conn,
		`
		UPDATE notification
		SET claimed_until = $4
		WHERE
			entity_kind = $1
			AND entity_id = $2
			AND state = 'pending'
			AND (claimed_until IS NULL OR claimed_until <= $3)
		RETURNING $columns
		`,
		string(ref.Kind), ref.ID, now, until,
	)
	if err != nil {
		return nil, oops.New(err, "failed to claim pending notifications for %s", describe(ref))
	}
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].ID < claimed[j].ID })
	return claimed, nil
}

type postSubject struct {
	Post   models.Post `db:"post"`
	Author models.User `db:"author"`
}

type commentSubject struct {
	Comment models.Comment `db:"comment"`
	Post    models.Post    `db:"post"`
	Author  models.User    `db:"author"`
}

func (s *Store) FetchSubject(ctx context.Context, ref notifications.EntityRef) (*notifications.Subject, error) {
	subject := &notifications.Subject{Kind: ref.Kind, EntityID: ref.ID}

	var markdown *string
	switch ref.Kind {
	case models.ContentKindPost:
		row, err := db.QueryOne[postSubject](ctx, s.Conn,
			`
			SELECT $columns
			FROM
				post
				JOIN collab_user AS author ON author.id = post.user_id
			WHERE post.id = $1
			`,
			ref.ID,
		)
		if err != nil {
			return nil, oops.New(err, "failed to fetch %s", describe(ref))
		}
		subject.PostID = row.Post.ID
		subject.PostTitle = row.Post.Title
		subject.AuthorName = row.Author.BestName()
		markdown = row.Post.Markdown
	case models.ContentKindComment:
		row, err := db.QueryOne[commentSubject](ctx, s.Conn,
			`
			SELECT $columns
			FROM
				comment
				JOIN post ON post.id = comment.post_id
				JOIN collab_user AS author ON author.id = comment.user_id
			WHERE comment.id = $1
			`,
			ref.ID,
		)
		if err != nil {
			return nil, oops.New(err, "failed to fetch %s", describe(ref))
		}
		subject.PostID = row.Post.ID
		subject.PostTitle = row.Post.Title
		subject.AuthorName = row.Author.BestName()
		markdown = row.Comment.Markdown
	default:
		return nil, oops.New(nil, "unknown content kind %s", ref.Kind)
	}

	if markdown != nil {
		subject.Markdown = *markdown
	}
	return subject, nil
}

func (s *Store) RecordDeliveryAttempt(ctx context.Context, id int, attempts int, lastError string) error {
	tag, err := s.Conn.Exec(ctx,
		`UPDATE notification SET attempts = $2, last_error = $3 WHERE id = $1`,
		id, attempts, lastError,
	)
	if err != nil {
		return oops.New(err, "failed to record attempt for notification %d", id)
	}
	return notFoundUnlessAffected(tag.RowsAffected(), "notification", id)
}

func (s *Store) MarkNotificationSent(ctx context.Context, id int, attempts int, sentAt time.Time) error {
	tag, err := s.Conn.Exec(ctx,
		`UPDATE notification SET state = 'sent', attempts = $2, sent_at = $3, claimed_until = NULL WHERE id = $1`,
		id, attempts, sentAt,
	)
	if err != nil {
		return oops.New(err, "failed to mark notification %d sent", id)
	}
	return notFoundUnlessAffected(tag.RowsAffected(), "notification", id)
}

func (s *Store) MarkNotificationFailed(ctx context.Context, id int, attempts int, lastError string) error {
	tag, err := s.Conn.Exec(ctx,
		`UPDATE notification SET state = 'failed', attempts = $2, last_error = $3, claimed_until = NULL WHERE id = $1`,
		id, attempts, lastError,
	)
	if err != nil {
		return oops.New(err, "failed to mark notification %d failed", id)
	}
	return notFoundUnlessAffected(tag.RowsAffected(), "notification", id)
}

func (s *Store) UndispatchedEntities(ctx context.Context, olderThan time.Time, limit int) ([]notifications.EntityRef, error) {
	var qb db.QueryBuilder
	qb.Add(
		`
		SELECT $columns
		FROM (
			SELECT m.entity_kind, m.entity_id
			FROM user_mention AS m
			WHERE
				m.inserted_at <= $?
				AND NOT EXISTS (
					SELECT 1 FROM notification AS n
					WHERE
						n.entity_kind = m.entity_kind
						AND n.entity_id = m.entity_id
						AND n.user_id = m.user_id
				)
			UNION
			SELECT entity_kind, entity_id
			FROM notification
			WHERE
				state = 'pending'
				AND (claimed_until IS NULL OR claimed_until <= $?)
		) AS undispatched
		ORDER BY entity_kind, entity_id
		`,
		olderThan, olderThan,
	)
	qb.AddPage(limit, 0)

	refs, err := db.Query[notifications.EntityRef](ctx, s.Conn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to find undispatched entities")
	}

	res := make([]notifications.EntityRef, len(refs))
	for i, ref := range refs {
		res[i] = *ref
	}
	return res, nil
}
