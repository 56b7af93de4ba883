package memstore

import (
	"context"

	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/oops"
)

type tx struct {
	store *Store
	data  *data
}

var _ content.StoreTx = &tx{}

func (t *tx) FetchProject(ctx context.Context, id int) (*models.Project, error) {
	p, ok := t.data.projects[id]
	if !ok {
		return nil, oops.New(db.NotFound, "no project with id %d", id)
	}
	return copyOf(p), nil
}

func (t *tx) FetchPost(ctx context.Context, id int) (*models.Post, error) {
	return t.data.fetchPost(id)
}

func (t *tx) FetchPostForUpdate(ctx context.Context, id int) (*models.Post, error) {
	return t.data.fetchPost(id)
}

func (t *tx) FetchCommentForUpdate(ctx context.Context, id int) (*models.Comment, error) {
	return t.data.fetchComment(id)
}

func (t *tx) InsertPost(ctx context.Context, post *models.Post) error {
	if _, ok := t.data.projects[post.ProjectID]; !ok {
		return oops.New(db.NotFound, "no project with id %d", post.ProjectID)
	}
	now := t.store.now()
	post.ID = t.data.newID()
	post.InsertedAt = now
	post.UpdatedAt = now
	t.data.posts[post.ID] = copyOf(post)
	return nil
}

func (t *tx) UpdatePost(ctx context.Context, post *models.Post) error {
	existing, ok := t.data.posts[post.ID]
	if !ok {
		return oops.New(db.NotFound, "no post with id %d", post.ID)
	}
	post.Number = existing.Number
	post.UpdatedAt = t.store.now()
	t.data.posts[post.ID] = copyOf(post)
	return nil
}

func (t *tx) InsertComment(ctx context.Context, comment *models.Comment) error {
	if _, ok := t.data.posts[comment.PostID]; !ok {
		return oops.New(db.NotFound, "no post with id %d", comment.PostID)
	}
	now := t.store.now()
	comment.ID = t.data.newID()
	comment.InsertedAt = now
	comment.UpdatedAt = now
	t.data.comments[comment.ID] = copyOf(comment)
	return nil
}

func (t *tx) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if _, ok := t.data.comments[comment.ID]; !ok {
		return oops.New(db.NotFound, "no comment with id %d", comment.ID)
	}
	comment.UpdatedAt = t.store.now()
	t.data.comments[comment.ID] = copyOf(comment)
	return nil
}

func (t *tx) AssignPostNumber(ctx context.Context, post *models.Post) error {
	if t.store.SequenceCollisions > 0 {
		t.store.SequenceCollisions--
		return oops.New(content.ErrDuplicateSequenceValue, "simulated collision in project %d", post.ProjectID)
	}

	stored, ok := t.data.posts[post.ID]
	if !ok {
		return oops.New(db.NotFound, "no post with id %d", post.ID)
	}
	if stored.Number != nil {
		return oops.New(nil, "post %d already has number %d", post.ID, *stored.Number)
	}

	next := 1
	for _, p := range t.data.posts {
		if p.ProjectID == post.ProjectID && p.Number != nil && *p.Number >= next {
			next = *p.Number + 1
		}
	}

	stored.Number = &next
	number := next
	post.Number = &number
	return nil
}

func (t *tx) FindUserIDsByUsername(ctx context.Context, usernames []string) (map[string]int, error) {
	return t.data.findUserIDsByUsername(usernames), nil
}

func (t *tx) ReplaceMentions(ctx context.Context, kind models.ContentKind, entityID int, userIDs []int) error {
	removed := make(map[int]bool)
	kept := t.data.mentions[:0:0]
	for _, m := range t.data.mentions {
		if m.EntityKind == kind && m.EntityID == entityID {
			removed[m.ID] = true
		} else {
			kept = append(kept, m)
		}
	}
	for _, n := range t.data.notifications {
		if n.MentionID != nil && removed[*n.MentionID] {
			n.MentionID = nil
		}
	}

	now := t.store.now()
	for _, userID := range userIDs {
		kept = append(kept, &models.Mention{
			ID:         t.data.newID(),
			EntityKind: kind,
			EntityID:   entityID,
			UserID:     userID,
			InsertedAt: now,
		})
	}
	t.data.mentions = kept
	return nil
}
