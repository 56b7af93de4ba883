package auth

import (
	"git.collab.network/collab/src/models"
)

type Action string

const (
	ActionView       Action = "view"
	ActionCreatePost Action = "create_post"
	ActionComment    Action = "comment"
	ActionEdit       Action = "edit"
)

// Answers whether a user may perform an action on an entity. A nil user is
// anonymous. Content code only ever consumes the yes/no answer.
type Authorizer interface {
	Authorized(user *models.User, action Action, entity any) bool

	// The drafts the user may see when listing content. Listings apply this
	// in the query itself so that pages only ever count visible rows.
	VisibleDrafts(user *models.User) DraftScope
}

// Which drafts a listing includes on top of all active content.
type DraftScope struct {
	All      bool
	AuthorID int // drafts by this user; zero for none
}

func (s DraftScope) None() bool {
	return !s.All && s.AuthorID == 0
}

func (s DraftScope) Includes(authorID int) bool {
	return s.All || (s.AuthorID != 0 && s.AuthorID == authorID)
}

/*
The default policy:

  - Published and edited content is visible to everyone. Drafts are visible to
    their author and to staff.
  - Any signed-in user may post in a project.
  - Any signed-in user may comment on a post they can see.
  - Content may be edited by its author and by staff.
*/
type Policy struct{}

var _ Authorizer = Policy{}

func (Policy) Authorized(user *models.User, action Action, entity any) bool {
	switch e := entity.(type) {
	case *models.Project:
		switch action {
		case ActionView:
			return true
		case ActionCreatePost:
			return user != nil
		}
	case *models.Post:
		switch action {
		case ActionView:
			return canView(user, e.UserID, &e.ContentFields)
		case ActionComment:
			return user != nil && canView(user, e.UserID, &e.ContentFields)
		case ActionEdit:
			return isAuthorOrStaff(user, e.UserID)
		}
	case *models.Comment:
		switch action {
		case ActionView:
			return canView(user, e.UserID, &e.ContentFields)
		case ActionEdit:
			return isAuthorOrStaff(user, e.UserID)
		}
	}
	return false
}

func (Policy) VisibleDrafts(user *models.User) DraftScope {
	if user == nil {
		return DraftScope{}
	}
	if user.IsStaff {
		return DraftScope{All: true}
	}
	return DraftScope{AuthorID: user.ID}
}

func canView(user *models.User, authorID int, fields *models.ContentFields) bool {
	if fields.State.IsActive() {
		return true
	}
	return isAuthorOrStaff(user, authorID)
}

func isAuthorOrStaff(user *models.User, authorID int) bool {
	if user == nil {
		return false
	}
	return user.IsStaff || user.ID == authorID
}
