package mentions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"git.collab.network/collab/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	users    map[string]int
	mentions map[int][]int
	lookups  [][]string
	failWith error
}

func newFakeStore(usernames ...string) *fakeStore {
	s := &fakeStore{
		users:    make(map[string]int),
		mentions: make(map[int][]int),
	}
	for i, username := range usernames {
		s.users[strings.ToLower(username)] = i + 1
	}
	return s
}

func (s *fakeStore) FindUserIDsByUsername(ctx context.Context, usernames []string) (map[string]int, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lookups = append(s.lookups, usernames)
	result := make(map[string]int)
	for _, username := range usernames {
		if id, ok := s.users[strings.ToLower(username)]; ok {
			result[strings.ToLower(username)] = id
		}
	}
	return result, nil
}

func (s *fakeStore) ReplaceMentions(ctx context.Context, kind models.ContentKind, entityID int, userIDs []int) error {
	s.mentions[entityID] = userIDs
	return nil
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{"joshsmith", "someone_who_doesnt_exist"}, Candidates("Hello @joshsmith and @someone_who_doesnt_exist"))
	assert.Equal(t, []string{"a_real_username"}, Candidates("@a_real_username"))
	assert.Equal(t, []string{"ben"}, Candidates("@Ben, @ben and @BEN"))
	assert.Equal(t, []string{"ünïcode", "42"}, Candidates("hi @ünïcode and @42!"))
	assert.Equal(t, []string{"a", "b"}, Candidates("(@a)(@b)"))
	assert.Empty(t, Candidates("mail me at ben@example.com"))
	assert.Empty(t, Candidates("just an @ sign"))
	assert.Empty(t, Candidates(""))
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown users are dropped", func(t *testing.T) {
		store := newFakeStore("joshsmith")
		ids, err := Extract(ctx, "Hello @joshsmith and @someone_who_doesnt_exist", store)
		assert.Nil(t, err)
		assert.Equal(t, []int{1}, ids)
	})
	t.Run("underscores are part of the username", func(t *testing.T) {
		store := newFakeStore("a_real_username")
		ids, err := Extract(ctx, "Hello @a_real_username and @not_a_real_username", store)
		assert.Nil(t, err)
		assert.Equal(t, []int{1}, ids)
	})
	t.Run("order of first appearance", func(t *testing.T) {
		store := newFakeStore("alice", "bob", "carol")
		ids, err := Extract(ctx, "@carol @alice @carol @bob @Alice", store)
		assert.Nil(t, err)
		assert.Equal(t, []int{3, 1, 2}, ids)
	})
	t.Run("case insensitive", func(t *testing.T) {
		store := newFakeStore("JoshSmith")
		ids, err := Extract(ctx, "@joshsmith", store)
		assert.Nil(t, err)
		assert.Equal(t, []int{1}, ids)
	})
	t.Run("no candidates means no lookup", func(t *testing.T) {
		store := newFakeStore("alice")
		ids, err := Extract(ctx, "nobody here", store)
		assert.Nil(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, store.lookups)
	})
	t.Run("lookup failure", func(t *testing.T) {
		store := newFakeStore()
		store.failWith = errors.New("database is on fire")
		_, err := Extract(ctx, "@alice", store)
		assert.ErrorIs(t, err, store.failWith)
	})
}

func TestRegenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("stale mentions are removed", func(t *testing.T) {
		store := newFakeStore("alice", "bob")

		first := "Thanks @alice and @bob"
		ids, err := Regenerate(ctx, store, models.ContentKindPost, 7, &first)
		require.Nil(t, err)
		assert.Equal(t, []int{1, 2}, ids)
		assert.Equal(t, []int{1, 2}, store.mentions[7])

		second := "Thanks @bob"
		ids, err = Regenerate(ctx, store, models.ContentKindPost, 7, &second)
		require.Nil(t, err)
		assert.Equal(t, []int{2}, ids)
		assert.Equal(t, []int{2}, store.mentions[7])
	})
	t.Run("uncommitted content has no mentions", func(t *testing.T) {
		store := newFakeStore("alice")
		store.mentions[3] = []int{1}

		ids, err := Regenerate(ctx, store, models.ContentKindComment, 3, nil)
		require.Nil(t, err)
		assert.Empty(t, ids)
		assert.Empty(t, store.mentions[3])
	})
}
