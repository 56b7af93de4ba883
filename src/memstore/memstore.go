/*
An in-memory implementation of the content and notifications stores. It
follows the same rules as the Postgres store (unique post numbers per project,
one notification per entity and user, full replacement of mentions) and is used
to test everything above the database.

Transactions are serialized and work on a copy of the data, which replaces the
real data only if the transaction succeeds.
*/
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/db"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/notifications"
	"git.collab.network/collab/src/oops"
)

type Store struct {
	mu   sync.Mutex
	data *data

	// The next this-many calls to AssignPostNumber report a collision.
	SequenceCollisions int

	Now func() time.Time
}

var _ content.Store = &Store{}
var _ notifications.Store = &Store{}

type data struct {
	nextID int

	users         map[int]*models.User
	projects      map[int]*models.Project
	posts         map[int]*models.Post
	comments      map[int]*models.Comment
	mentions      []*models.Mention
	notifications []*models.Notification
}

func New() *Store {
	return &Store{
		data: &data{
			users:    make(map[int]*models.User),
			projects: make(map[int]*models.Project),
			posts:    make(map[int]*models.Post),
			comments: make(map[int]*models.Comment),
		},
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (d *data) clone() *data {
	res := &data{
		nextID:   d.nextID,
		users:    make(map[int]*models.User, len(d.users)),
		projects: make(map[int]*models.Project, len(d.projects)),
		posts:    make(map[int]*models.Post, len(d.posts)),
		comments: make(map[int]*models.Comment, len(d.comments)),
	}
	for id, u := range d.users {
		res.users[id] = copyOf(u)
	}
	for id, p := range d.projects {
		res.projects[id] = copyOf(p)
	}
	for id, p := range d.posts {
		res.posts[id] = copyOf(p)
	}
	for id, c := range d.comments {
		res.comments[id] = copyOf(c)
	}
	for _, m := range d.mentions {
		res.mentions = append(res.mentions, copyOf(m))
	}
	for _, n := range d.notifications {
		res.notifications = append(res.notifications, copyOf(n))
	}
	return res
}

func (d *data) newID() int {
	d.nextID++
	return d.nextID
}

// Pointer fields of the models are never mutated in place, so a shallow copy
// is enough.
func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func (s *Store) read(f func(d *data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.data)
}

func (s *Store) Tx(ctx context.Context, f func(tx content.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := f(&tx{store: s, data: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) AddUser(user models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		user.ID = s.data.newID()
	}
	if user.InsertedAt.IsZero() {
		user.InsertedAt = s.now()
	}
	s.data.users[user.ID] = &user
	return copyOf(&user)
}

func (s *Store) AddProject(project models.Project) *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID == 0 {
		project.ID = s.data.newID()
	}
	if project.Slug == "" {
		project.Slug = models.GenerateSlug(project.Name)
	}
	if project.InsertedAt.IsZero() {
		project.InsertedAt = s.now()
	}
	s.data.projects[project.ID] = &project
	return copyOf(&project)
}

// Mentions of one entity, in insertion order.
func (s *Store) Mentions(kind models.ContentKind, entityID int) []models.Mention {
	var res []models.Mention
	s.read(func(d *data) {
		for _, m := range d.mentions {
			if m.EntityKind == kind && m.EntityID == entityID {
				res = append(res, *m)
			}
		}
	})
	return res
}

func (s *Store) Notifications() []models.Notification {
	var res []models.Notification
	s.read(func(d *data) {
		for _, n := range d.notifications {
			res = append(res, *n)
		}
	})
	return res
}

func (s *Store) FetchUser(ctx context.Context, id int) (*models.User, error) {
	var res *models.User
	s.read(func(d *data) {
		if u, ok := d.users[id]; ok {
			res = copyOf(u)
		}
	})
	if res == nil {
		return nil, oops.New(db.NotFound, "no user with id %d", id)
	}
	return res, nil
}

func (s *Store) FetchPost(ctx context.Context, id int) (*models.Post, error) {
	var res *models.Post
	var err error
	s.read(func(d *data) {
		res, err = d.fetchPost(id)
	})
	return res, err
}

func (s *Store) FetchComment(ctx context.Context, id int) (*models.Comment, error) {
	var res *models.Comment
	var err error
	s.read(func(d *data) {
		res, err = d.fetchComment(id)
	})
	return res, err
}

func (s *Store) ListPosts(ctx context.Context, q content.PostsQuery) ([]*models.Post, error) {
	var res []*models.Post
	s.read(func(d *data) {
		for _, p := range d.posts {
			if p.ProjectID != q.ProjectID {
				continue
			}
			if !visible(&p.ContentFields, p.UserID, q.ActiveOnly, q.Drafts) {
				continue
			}
			res = append(res, copyOf(p))
		}
	})

	sortPosts(res, q.OrderOrDefault())

	if q.Offset > 0 {
		if q.Offset >= len(res) {
			return nil, nil
		}
		res = res[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(res) {
		res = res[:q.Limit]
	}
	return res, nil
}

func visible(fields *models.ContentFields, authorID int, activeOnly bool, drafts auth.DraftScope) bool {
	if fields.State.IsActive() {
		return true
	}
	return !activeOnly && drafts.Includes(authorID)
}

func sortPosts(posts []*models.Post, order content.Order) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch order {
		case content.OrderNumberAsc, content.OrderNumberDesc:
			if (a.Number == nil) != (b.Number == nil) {
				return a.Number != nil // unnumbered last
			}
			if a.Number != nil && *a.Number != *b.Number {
				if order == content.OrderNumberAsc {
					return *a.Number < *b.Number
				}
				return *a.Number > *b.Number
			}
			return a.ID > b.ID
		case content.OrderOldest:
			return a.ID < b.ID
		default:
			return a.ID > b.ID
		}
	})
}

func (s *Store) ListComments(ctx context.Context, q content.CommentsQuery) ([]*models.Comment, error) {
	var res []*models.Comment
	s.read(func(d *data) {
		for _, c := range d.comments {
			if c.PostID != q.PostID {
				continue
			}
			if !visible(&c.ContentFields, c.UserID, q.ActiveOnly, q.Drafts) {
				continue
			}
			res = append(res, copyOf(c))
		}
	})
	sort.Slice(res, func(i, j int) bool {
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (d *data) fetchPost(id int) (*models.Post, error) {
	p, ok := d.posts[id]
	if !ok {
		return nil, oops.New(db.NotFound, "no post with id %d", id)
	}
	return copyOf(p), nil
}

func (d *data) fetchComment(id int) (*models.Comment, error) {
	c, ok := d.comments[id]
	if !ok {
		return nil, oops.New(db.NotFound, "no comment with id %d", id)
	}
	return copyOf(c), nil
}

func (d *data) findUserIDsByUsername(usernames []string) map[string]int {
	wanted := make(map[string]bool, len(usernames))
	for _, username := range usernames {
		wanted[strings.ToLower(username)] = true
	}

	res := make(map[string]int)
	for _, u := range d.users {
		lower := strings.ToLower(u.Username)
		if wanted[lower] {
			res[lower] = u.ID
		}
	}
	return res
}
