package content

import (
	"errors"
	"reflect"
	"strings"

	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/utils"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type postRules struct {
	ProjectID       int                 `json:"project_id" validate:"required"`
	UserID          int                 `json:"user_id" validate:"required"`
	Title           string              `json:"title" validate:"required_unless=State draft,max=255"`
	State           models.ContentState `json:"state" validate:"oneof=draft published edited"`
	MarkdownPreview string              `json:"markdown_preview" validate:"max=200000"`
}

type commentRules struct {
	PostID          int                 `json:"post_id" validate:"required"`
	UserID          int                 `json:"user_id" validate:"required"`
	State           models.ContentState `json:"state" validate:"oneof=draft published edited"`
	MarkdownPreview string              `json:"markdown_preview" validate:"max=200000"`
}

// Validates a post as it would be after the save. Title is only required once
// the post is no longer a draft.
func validatePost(post *models.Post) ValidationErrors {
	errs := check(postRules{
		ProjectID:       post.ProjectID,
		UserID:          post.UserID,
		Title:           strings.TrimSpace(post.Title),
		State:           post.State,
		MarkdownPreview: utils.Deref(post.MarkdownPreview),
	})
	checkContentPresent(errs, &post.ContentFields)
	return errs
}

func validateComment(comment *models.Comment) ValidationErrors {
	errs := check(commentRules{
		PostID:          comment.PostID,
		UserID:          comment.UserID,
		State:           comment.State,
		MarkdownPreview: utils.Deref(comment.MarkdownPreview),
	})
	checkContentPresent(errs, &comment.ContentFields)
	return errs
}

// Content always has either staged or committed markdown.
func checkContentPresent(errs ValidationErrors, fields *models.ContentFields) {
	if fields.MarkdownPreview == nil && fields.Markdown == nil {
		errs.Add("markdown_preview", "can't be blank")
	}
}

func check(rules any) ValidationErrors {
	errs := make(ValidationErrors)

	err := validate.Struct(rules)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			errs.Add(fe.Field(), messageFor(fe))
		}
	} else if err != nil {
		panic(err)
	}

	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "can't be blank"
	case "max":
		return "is too long (maximum is " + fe.Param() + ")"
	case "oneof":
		return "is invalid"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
