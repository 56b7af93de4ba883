package mentions

import (
	"context"
	"regexp"
	"strings"

	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/oops"
)

// An @ followed by letters, digits, and underscores. The @ must not itself
// follow one of those characters, so email addresses are not mentions.
var REMention = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])@(?P<username>[\p{L}\p{N}_]+)`)

type UserLookup interface {
	// Resolves usernames to user ids, ignoring case. The returned map is keyed
	// by lowercased username and simply lacks any name that does not exist.
	FindUserIDsByUsername(ctx context.Context, usernames []string) (map[string]int, error)
}

type Store interface {
	UserLookup

	// Deletes every existing mention of the entity and inserts one per user.
	ReplaceMentions(ctx context.Context, kind models.ContentKind, entityID int, userIDs []int) error
}

// Returns the lowercased usernames mentioned in text, without duplicates, in
// order of first appearance. Nothing is resolved.
func Candidates(text string) []string {
	matches := REMention.FindAllStringSubmatch(text, -1)
	usernameIdx := REMention.SubexpIndex("username")

	seen := make(map[string]bool)
	var result []string
	for _, match := range matches {
		username := strings.ToLower(match[usernameIdx])
		if seen[username] {
			continue
		}
		seen[username] = true
		result = append(result, username)
	}
	return result
}

/*
Returns the ids of the existing users mentioned in text, in order of first
appearance and without duplicates. Mentions of users that don't exist are
dropped.

Extraction works on the raw markdown, not the rendered HTML, so markup like
underscores in usernames never gets in the way.
*/
func Extract(ctx context.Context, text string, lookup UserLookup) ([]int, error) {
	candidates := Candidates(text)
	if len(candidates) == 0 {
		return nil, nil
	}

	ids, err := lookup.FindUserIDsByUsername(ctx, candidates)
	if err != nil {
		return nil, oops.New(err, "failed to look up mentioned users")
	}

	seen := make(map[int]bool)
	var result []int
	for _, username := range candidates {
		id, ok := ids[username]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result, nil
}

/*
Recomputes an entity's mentions from its committed markdown and replaces all
of its previous mentions with them. Content that has never been committed has
no mentions.

This is meant to run in the same transaction as the save that changed the
markdown, so that the mentions never disagree with the committed text.
*/
func Regenerate(ctx context.Context, store Store, kind models.ContentKind, entityID int, committed *string) ([]int, error) {
	var userIDs []int
	if committed != nil {
		var err error
		userIDs, err = Extract(ctx, *committed, store)
		if err != nil {
			return nil, err
		}
	}

	err := store.ReplaceMentions(ctx, kind, entityID, userIDs)
	if err != nil {
		return nil, oops.New(err, "failed to replace mentions for %s %d", kind, entityID)
	}
	return userIDs, nil
}
