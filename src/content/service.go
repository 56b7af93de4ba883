package content

import (
	"context"
	"errors"
	"time"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/lifecycle"
	"git.collab.network/collab/src/logging"
	"git.collab.network/collab/src/mentions"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/oops"
)

type Service struct {
	Store      Store
	Publisher  events.Publisher
	Authorizer auth.Authorizer

	// Defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) CreatePostDraft(ctx context.Context, user *models.User, attrs PostAttrs) (*models.Post, error) {
	return s.CreatePost(ctx, user, attrs, false)
}

/*
Creates a post from a markdown preview. With commit false the post is saved as
a draft; with commit true it is published straight away and gets its number.
*/
func (s *Service) CreatePost(ctx context.Context, user *models.User, attrs PostAttrs, commit bool) (*models.Post, error) {
	if user == nil {
		return nil, ErrForbidden
	}

	var post *models.Post
	var transition lifecycle.Transition
	err := s.Store.Tx(ctx, func(tx StoreTx) error {
		project, err := tx.FetchProject(ctx, attrs.ProjectID)
		if err != nil {
			return err
		}
		if !s.Authorizer.Authorized(user, auth.ActionCreatePost, project) {
			return ErrForbidden
		}

		post = &models.Post{
			ProjectID: project.ID,
			UserID:    user.ID,
		}
		post.State = models.ContentStateDraft
		if attrs.Title != nil {
			post.Title = *attrs.Title
		}
		if attrs.MarkdownPreview != nil {
			lifecycle.Stage(&post.ContentFields, *attrs.MarkdownPreview)
		}

		transition, err = lifecycle.Commit(&post.ContentFields, commit)
		if err != nil {
			return err
		}
		if errs := validatePost(post); len(errs) > 0 {
			return errs
		}

		if err := tx.InsertPost(ctx, post); err != nil {
			return oops.New(err, "failed to insert post")
		}
		return s.afterPostWrite(ctx, tx, post, transition)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ContentKindPost, post.ID, transition)
	return post, nil
}

/*
Saves changes to an existing post. New markdown, if any, is always staged in
the preview fields. With commit false nothing else observable changes; with
commit true the preview is promoted and the post is published or edited.

The title of a published post only changes on commit.
*/
func (s *Service) SavePost(ctx context.Context, user *models.User, id int, attrs PostAttrs, commit bool) (*models.Post, error) {
	var post *models.Post
	var transition lifecycle.Transition
	err := s.Store.Tx(ctx, func(tx StoreTx) error {
		var err error
		post, err = tx.FetchPostForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(user, auth.ActionEdit, post, "post", id); err != nil {
			return err
		}

		if attrs.Title != nil && (commit || post.IsDraft()) {
			post.Title = *attrs.Title
		}
		if attrs.MarkdownPreview != nil {
			lifecycle.Stage(&post.ContentFields, *attrs.MarkdownPreview)
		}

		transition, err = lifecycle.Commit(&post.ContentFields, commit)
		if err != nil {
			return err
		}
		if errs := validatePost(post); len(errs) > 0 {
			return errs
		}

		if err := tx.UpdatePost(ctx, post); err != nil {
			return oops.New(err, "failed to update post")
		}
		return s.afterPostWrite(ctx, tx, post, transition)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ContentKindPost, post.ID, transition)
	return post, nil
}

func (s *Service) afterPostWrite(ctx context.Context, tx StoreTx, post *models.Post, transition lifecycle.Transition) error {
	if transition.IsFirstPublish() {
		if err := assignNumber(ctx, tx, post); err != nil {
			return err
		}
	}

	_, err := mentions.Regenerate(ctx, tx, models.ContentKindPost, post.ID, post.Markdown)
	return err
}

// Numbers are assigned under a per-project lock, so a collision means
// something raced us anyway. One retry, then it's the caller's problem.
func assignNumber(ctx context.Context, tx StoreTx, post *models.Post) error {
	for attempt := 1; ; attempt++ {
		err := tx.AssignPostNumber(ctx, post)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateSequenceValue) {
			return oops.New(err, "failed to assign post number")
		}
		if attempt >= 2 {
			return ValidationErrors{"number": {"has already been taken"}}
		}
		logging.ExtractLogger(ctx).Warn().
			Int("post", post.ID).
			Int("project", post.ProjectID).
			Msg("Post number collided, retrying")
	}
}

func (s *Service) CreateCommentDraft(ctx context.Context, user *models.User, attrs CommentAttrs) (*models.Comment, error) {
	return s.CreateComment(ctx, user, attrs, false)
}

func (s *Service) CreateComment(ctx context.Context, user *models.User, attrs CommentAttrs, commit bool) (*models.Comment, error) {
	if user == nil {
		return nil, ErrForbidden
	}

	var comment *models.Comment
	var transition lifecycle.Transition
	err := s.Store.Tx(ctx, func(tx StoreTx) error {
		post, err := tx.FetchPost(ctx, attrs.PostID)
		if err != nil {
			return err
		}
		if err := s.authorize(user, auth.ActionComment, post, "post", post.ID); err != nil {
			return err
		}

		comment = &models.Comment{
			PostID: post.ID,
			UserID: user.ID,
		}
		comment.State = models.ContentStateDraft
		if attrs.MarkdownPreview != nil {
			lifecycle.Stage(&comment.ContentFields, *attrs.MarkdownPreview)
		}

		transition, err = lifecycle.Commit(&comment.ContentFields, commit)
		if err != nil {
			return err
		}
		if errs := validateComment(comment); len(errs) > 0 {
			return errs
		}

		if err := tx.InsertComment(ctx, comment); err != nil {
			return oops.New(err, "failed to insert comment")
		}
		_, err = mentions.Regenerate(ctx, tx, models.ContentKindComment, comment.ID, comment.Markdown)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ContentKindComment, comment.ID, transition)
	return comment, nil
}

func (s *Service) SaveComment(ctx context.Context, user *models.User, id int, attrs CommentAttrs, commit bool) (*models.Comment, error) {
	var comment *models.Comment
	var transition lifecycle.Transition
	err := s.Store.Tx(ctx, func(tx StoreTx) error {
		var err error
		comment, err = tx.FetchCommentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(user, auth.ActionEdit, comment, "comment", id); err != nil {
			return err
		}

		if attrs.MarkdownPreview != nil {
			lifecycle.Stage(&comment.ContentFields, *attrs.MarkdownPreview)
		}

		transition, err = lifecycle.Commit(&comment.ContentFields, commit)
		if err != nil {
			return err
		}
		if errs := validateComment(comment); len(errs) > 0 {
			return errs
		}

		if err := tx.UpdateComment(ctx, comment); err != nil {
			return oops.New(err, "failed to update comment")
		}
		_, err = mentions.Regenerate(ctx, tx, models.ContentKindComment, comment.ID, comment.Markdown)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ContentKindComment, comment.ID, transition)
	return comment, nil
}

// Content the user can't see is reported as missing rather than forbidden, so
// that nobody learns about other people's drafts.
func (s *Service) authorize(user *models.User, action auth.Action, entity any, kind string, id int) error {
	if !s.Authorizer.Authorized(user, auth.ActionView, entity) {
		return oops.New(db.NotFound, "%s %d is not visible", kind, id)
	}
	if !s.Authorizer.Authorized(user, action, entity) {
		return ErrForbidden
	}
	return nil
}

// Publishing happens after the transaction has committed, and failures are
// only logged. The sweeper finds anything that never got dispatched.
func (s *Service) publish(ctx context.Context, kind models.ContentKind, id int, transition lifecycle.Transition) {
	if !transition.Happened() || s.Publisher == nil {
		return
	}

	err := s.Publisher.Publish(ctx, events.Transition{
		Kind:       kind,
		EntityID:   id,
		Event:      transition.Event,
		From:       transition.From,
		To:         transition.To,
		OccurredAt: s.now(),
	})
	if err != nil {
		logging.ExtractLogger(ctx).Error().
			Err(err).
			Str("kind", string(kind)).
			Int("id", id).
			Msg("Failed to publish content transition")
	}
}

// Drafts can only be fetched by those allowed to see them; to everyone else
// they don't exist.
func (s *Service) FetchPost(ctx context.Context, user *models.User, id int) (*models.Post, error) {
	post, err := s.Store.FetchPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Authorizer.Authorized(user, auth.ActionView, post) {
		return nil, oops.New(db.NotFound, "post %d is not visible", id)
	}
	return post, nil
}

func (s *Service) FetchComment(ctx context.Context, user *models.User, id int) (*models.Comment, error) {
	comment, err := s.Store.FetchComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Authorizer.Authorized(user, auth.ActionView, comment) {
		return nil, oops.New(db.NotFound, "comment %d is not visible", id)
	}
	return comment, nil
}

// Lists posts in a project. When drafts are included, only the ones the user
// may see are returned, and paging counts only those.
func (s *Service) ListPosts(ctx context.Context, user *models.User, q PostsQuery) ([]*models.Post, error) {
	q.Order = q.OrderOrDefault()
	q.Drafts = auth.DraftScope{}
	if !q.ActiveOnly {
		q.Drafts = s.Authorizer.VisibleDrafts(user)
	}

	posts, err := s.Store.ListPosts(ctx, q)
	if err != nil {
		return nil, oops.New(err, "failed to list posts")
	}
	return posts, nil
}

func (s *Service) ListComments(ctx context.Context, user *models.User, q CommentsQuery) ([]*models.Comment, error) {
	post, err := s.FetchPost(ctx, user, q.PostID)
	if err != nil {
		return nil, err
	}

	query := CommentsQuery{PostID: post.ID, ActiveOnly: q.ActiveOnly}
	if !q.ActiveOnly {
		query.Drafts = s.Authorizer.VisibleDrafts(user)
	}
	comments, err := s.Store.ListComments(ctx, query)
	if err != nil {
		return nil, oops.New(err, "failed to list comments")
	}
	return comments, nil
}
