package memstore

import (
	"context"
	"time"

	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/notifications"
	"git.collab.network/collab/src/oops"
)

func (s *Store) CreatePendingNotifications(ctx context.Context, ref notifications.EntityRef) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, m := range s.data.mentions {
		if m.EntityKind != ref.Kind || m.EntityID != ref.ID {
			continue
		}
		if s.data.findNotification(ref, m.UserID) != nil {
			continue
		}
		mentionID := m.ID
		s.data.notifications = append(s.data.notifications, &models.Notification{
			ID:         s.data.newID(),
			EntityKind: ref.Kind,
			EntityID:   ref.ID,
			UserID:     m.UserID,
			MentionID:  &mentionID,
			State:      models.NotificationStatePending,
			InsertedAt: s.now(),
		})
		created++
	}
	return created, nil
}

func (d *data) findNotification(ref notifications.EntityRef, userID int) *models.Notification {
	for _, n := range d.notifications {
		if n.EntityKind == ref.Kind && n.EntityID == ref.ID && n.UserID == userID {
			return n
		}
	}
	return nil
}

func (d *data) notificationByID(id int) (*models.Notification, error) {
	for _, n := range d.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, oops.New(db.NotFound, "no notification with id %d", id)
}

func (s *Store) ClaimPendingNotifications(ctx context.Context, ref notifications.EntityRef, now, until time.Time) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*models.Notification
	for _, n := range s.data.notifications {
		if n.EntityKind != ref.Kind || n.EntityID != ref.ID || n.State != models.NotificationStatePending {
			continue
		}
		if !claimable(n, now) {
			continue
		}
		claimedUntil := until
		n.ClaimedUntil = &claimedUntil
		res = append(res, copyOf(n))
	}
	return res, nil
}

func claimable(n *models.Notification, now time.Time) bool {
	return n.ClaimedUntil == nil || !n.ClaimedUntil.After(now)
}

func (s *Store) FetchSubject(ctx context.Context, ref notifications.EntityRef) (*notifications.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject := &notifications.Subject{Kind: ref.Kind, EntityID: ref.ID}

	var authorID int
	var markdown *string
	var post *models.Post
	switch ref.Kind {
	case models.ContentKindPost:
		p, ok := s.data.posts[ref.ID]
		if !ok {
			return nil, oops.New(db.NotFound, "no post with id %d", ref.ID)
		}
		post = p
		authorID = p.UserID
		markdown = p.Markdown
	case models.ContentKindComment:
		c, ok := s.data.comments[ref.ID]
		if !ok {
			return nil, oops.New(db.NotFound, "no comment with id %d", ref.ID)
		}
		p, ok := s.data.posts[c.PostID]
		if !ok {
			return nil, oops.New(db.NotFound, "no post with id %d", c.PostID)
		}
		post = p
		authorID = c.UserID
		markdown = c.Markdown
	default:
		return nil, oops.New(nil, "unknown content kind %s", ref.Kind)
	}

	subject.PostID = post.ID
	subject.PostTitle = post.Title
	if markdown != nil {
		subject.Markdown = *markdown
	}
	if author, ok := s.data.users[authorID]; ok {
		subject.AuthorName = author.BestName()
	}
	return subject, nil
}

func (s *Store) RecordDeliveryAttempt(ctx context.Context, id int, attempts int, lastError string) error {
	return s.updateNotification(id, func(n *models.Notification) {
		n.Attempts = attempts
		n.LastError = lastError
	})
}

func (s *Store) MarkNotificationSent(ctx context.Context, id int, attempts int, sentAt time.Time) error {
	return s.updateNotification(id, func(n *models.Notification) {
		n.State = models.NotificationStateSent
		n.Attempts = attempts
		n.SentAt = &sentAt
		n.ClaimedUntil = nil
	})
}

func (s *Store) MarkNotificationFailed(ctx context.Context, id int, attempts int, lastError string) error {
	return s.updateNotification(id, func(n *models.Notification) {
		n.State = models.NotificationStateFailed
		n.Attempts = attempts
		n.LastError = lastError
		n.ClaimedUntil = nil
	})
}

func (s *Store) updateNotification(id int, f func(n *models.Notification)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.data.notificationByID(id)
	if err != nil {
		return err
	}
	f(n)
	return nil
}

func (s *Store) UndispatchedEntities(ctx context.Context, olderThan time.Time, limit int) ([]notifications.EntityRef, error) {
	var res []notifications.EntityRef
	s.read(func(d *data) {
		seen := make(map[notifications.EntityRef]bool)
		add := func(ref notifications.EntityRef) {
			if !seen[ref] && (limit <= 0 || len(res) < limit) {
				seen[ref] = true
				res = append(res, ref)
			}
		}

		for _, m := range d.mentions {
			ref := notifications.EntityRef{Kind: m.EntityKind, ID: m.EntityID}
			if m.InsertedAt.After(olderThan) {
				continue
			}
			if d.findNotification(ref, m.UserID) == nil {
				add(ref)
			}
		}
		for _, n := range d.notifications {
			if n.State == models.NotificationStatePending && claimable(n, olderThan) {
				add(notifications.EntityRef{Kind: n.EntityKind, ID: n.EntityID})
			}
		}
	})
	return res, nil
}
