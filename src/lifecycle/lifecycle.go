/*
The publish lifecycle shared by posts and comments.

Saving content happens in two phases. Stage writes new markdown into the preview
fields and renders it immediately. Commit then either leaves everything else
alone (a preview save, used for autosave), or promotes the preview into the
committed fields and advances the state:

	draft     --publish--> published
	published --edit-----> edited
	edited    --edit-----> edited

Anything else is rejected with an *InvalidTransitionError. Nothing ever goes
back to draft.
*/
package lifecycle

import (
	"fmt"

	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/parsing"
)

type Event string

const (
	EventPublish Event = "publish"
	EventEdit    Event = "edit"
)

var transitions = map[models.ContentState]map[Event]models.ContentState{
	models.ContentStateDraft: {
		EventPublish: models.ContentStatePublished,
	},
	models.ContentStatePublished: {
		EventEdit: models.ContentStateEdited,
	},
	models.ContentStateEdited: {
		EventEdit: models.ContentStateEdited,
	},
}

type InvalidTransitionError struct {
	From  models.ContentState
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s content in state %q", e.Event, e.From)
}

// A transition that a commit performed. The zero value means no transition
// happened, which is the case for every preview save.
type Transition struct {
	From  models.ContentState
	To    models.ContentState
	Event Event
}

func (t Transition) Happened() bool {
	return t.Event != ""
}

// True for the one transition that assigns a post its number.
func (t Transition) IsFirstPublish() bool {
	return t.From == models.ContentStateDraft && t.To == models.ContentStatePublished
}

func Next(from models.ContentState, event Event) (models.ContentState, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return "", &InvalidTransitionError{From: from, Event: event}
}

// Drafts are published. Everything else is edited.
func EventFor(state models.ContentState) Event {
	if state == models.ContentStateDraft {
		return EventPublish
	}
	return EventEdit
}

// Stages new markdown in the preview fields. The preview body is rendered
// right away so the two preview fields never disagree.
func Stage(fields *models.ContentFields, markdownPreview string) {
	body := parsing.RenderMarkdown(markdownPreview)
	fields.MarkdownPreview = &markdownPreview
	fields.BodyPreview = &body
}

/*
Finishes a save. With commit false, nothing is changed and the zero Transition
is returned. With commit true, the preview is copied into the committed fields
and the state advances according to its event.

On error, fields are left untouched.
*/
func Commit(fields *models.ContentFields, commit bool) (Transition, error) {
	if !commit {
		return Transition{}, nil
	}

	from := fields.State
	if from == "" {
		from = models.ContentStateDraft
	}
	event := EventFor(from)
	to, err := Next(from, event)
	if err != nil {
		return Transition{}, err
	}

	if fields.MarkdownPreview != nil {
		markdown := *fields.MarkdownPreview
		fields.Markdown = &markdown
		if fields.BodyPreview != nil {
			body := *fields.BodyPreview
			fields.Body = &body
		} else {
			body := parsing.RenderMarkdown(markdown)
			fields.Body = &body
		}
	}
	fields.State = to

	return Transition{From: from, To: to, Event: event}, nil
}
