package website

import (
	"net/http"
	"time"

	"git.collab.network/collab/src/collaburl"
	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/parsing"
)

type contentJson struct {
	State           models.ContentState `json:"state"`
	MarkdownPreview *string             `json:"markdown_preview"`
	BodyPreview     *string             `json:"body_preview"`
	Markdown        *string             `json:"markdown"`
	Body            *string             `json:"body"`
	InsertedAt      time.Time           `json:"inserted_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	EditedAt        *time.Time          `json:"edited_at"`
}

type postJson struct {
	ID        int    `json:"id"`
	Url       string `json:"url"`
	ProjectID int    `json:"project_id"`
	UserID    int    `json:"user_id"`
	Title     string `json:"title"`
	Number    *int   `json:"number"`
	contentJson
}

type commentJson struct {
	ID     int    `json:"id"`
	Url    string `json:"url"`
	PostID int    `json:"post_id"`
	UserID int    `json:"user_id"`
	contentJson
}

func makeContentJson(f *models.ContentFields) contentJson {
	return contentJson{
		State:           f.State,
		MarkdownPreview: f.MarkdownPreview,
		BodyPreview:     f.BodyPreview,
		Markdown:        f.Markdown,
		Body:            f.Body,
		InsertedAt:      f.InsertedAt,
		UpdatedAt:       f.UpdatedAt,
		EditedAt:        f.EditedAt(),
	}
}

func makePostJson(urls *collaburl.UrlContext, p *models.Post) postJson {
	return postJson{
		ID:          p.ID,
		Url:         urls.BuildPost(p.ID),
		ProjectID:   p.ProjectID,
		UserID:      p.UserID,
		Title:       p.Title,
		Number:      p.Number,
		contentJson: makeContentJson(&p.ContentFields),
	}
}

func makeCommentJson(urls *collaburl.UrlContext, cm *models.Comment) commentJson {
	return commentJson{
		ID:          cm.ID,
		Url:         urls.BuildCommentOnPost(cm.PostID, cm.ID),
		PostID:      cm.PostID,
		UserID:      cm.UserID,
		contentJson: makeContentJson(&cm.ContentFields),
	}
}

func APIListPosts(c *RequestContext) ResponseData {
	projectID, err := c.PathParamInt("projectid")
	if err != nil {
		return FourOhFour(c)
	}

	query := c.Req.URL.Query()
	order, ok := content.ParseOrder(query.Get("order"))
	if !ok {
		return c.ErrorResponse(http.StatusBadRequest, NewSafeError(nil, "unknown order %q", query.Get("order")))
	}
	limit, offset, ok := getPageParams(query)
	if !ok {
		return c.ErrorResponse(http.StatusBadRequest, NewSafeError(nil, "limit and offset must be numbers"))
	}

	posts, err := c.Content.ListPosts(c, c.CurrentUser, content.PostsQuery{
		ProjectID:  projectID,
		ActiveOnly: query.Get("active") == "true",
		Order:      order,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return c.ContentErrorResponse(err)
	}

	result := make([]postJson, 0, len(posts))
	for _, post := range posts {
		result = append(result, makePostJson(c.Urls, post))
	}
	return jsonResponse(http.StatusOK, map[string]any{"posts": result})
}

type saveRequest struct {
	Title           *string `json:"title"`
	MarkdownPreview *string `json:"markdown_preview"`

	// On creation, whether to publish straight away. On save, whether to
	// commit the preview.
	Publish bool `json:"publish"`
	Commit  bool `json:"commit"`
}

func APICreatePost(c *RequestContext) ResponseData {
	projectID, err := c.PathParamInt("projectid")
	if err != nil {
		return FourOhFour(c)
	}

	var body saveRequest
	if err := c.ReadJson(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}

	post, err := c.Content.CreatePost(c, c.CurrentUser, content.PostAttrs{
		ProjectID:       projectID,
		Title:           body.Title,
		MarkdownPreview: body.MarkdownPreview,
	}, body.Publish)
	if err != nil {
		return c.ContentErrorResponse(err)
	}
	return jsonResponse(http.StatusCreated, makePostJson(c.Urls, post))
}

func APIFetchPost(c *RequestContext) ResponseData {
	postID, err := c.PathParamInt("postid")
	if err != nil {
		return FourOhFour(c)
	}

	post, err := c.Content.FetchPost(c, c.CurrentUser, postID)
	if err != nil {
		return c.ContentErrorResponse(err)
	}
	return jsonResponse(http.StatusOK, makePostJson(c.Urls, post))
}

func APISavePost(c *RequestContext) ResponseData {
	postID, err := c.PathParamInt("postid")
	if err != nil {
		return FourOhFour(c)
	}

	var body saveRequest
	if err := c.ReadJson(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}

	post, err := c.Content.SavePost(c, c.CurrentUser, postID, content.PostAttrs{
		Title:           body.Title,
		MarkdownPreview: body.MarkdownPreview,
	}, body.Commit || body.Publish)
	if err != nil {
		return c.ContentErrorResponse(err)
	}
	return jsonResponse(http.StatusOK, makePostJson(c.Urls, post))
}

func APIListComments(c *RequestContext) ResponseData {
	postID, err := c.PathParamInt("postid")
	if err != nil {
		return FourOhFour(c)
	}

	comments, err := c.Content.ListComments(c, c.CurrentUser, content.CommentsQuery{
		PostID:     postID,
		ActiveOnly: c.Req.URL.Query().Get("active") == "true",
	})
	if err != nil {
		return c.ContentErrorResponse(err)
	}

	result := make([]commentJson, 0, len(comments))
	for _, comment := range comments {
		result = append(result, makeCommentJson(c.Urls, comment))
	}
	return jsonResponse(http.StatusOK, map[string]any{"comments": result})
}

func APICreateComment(c *RequestContext) ResponseData {
	postID, err := c.PathParamInt("postid")
	if err != nil {
		return FourOhFour(c)
	}

	var body saveRequest
	if err := c.ReadJson(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}

	comment, err := c.Content.CreateComment(c, c.CurrentUser, content.CommentAttrs{
		PostID:          postID,
		MarkdownPreview: body.MarkdownPreview,
	}, body.Publish)
	if err != nil {
		return c.ContentErrorResponse(err)
	}
	return jsonResponse(http.StatusCreated, makeCommentJson(c.Urls, comment))
}

func APISaveComment(c *RequestContext) ResponseData {
	commentID, err := c.PathParamInt("commentid")
	if err != nil {
		return FourOhFour(c)
	}

	var body saveRequest
	if err := c.ReadJson(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}

	comment, err := c.Content.SaveComment(c, c.CurrentUser, commentID, content.CommentAttrs{
		MarkdownPreview: body.MarkdownPreview,
	}, body.Commit || body.Publish)
	if err != nil {
		return c.ContentErrorResponse(err)
	}
	return jsonResponse(http.StatusOK, makeCommentJson(c.Urls, comment))
}

type renderRequest struct {
	Markdown string `json:"markdown"`
}

func APIRender(c *RequestContext) ResponseData {
	var body renderRequest
	if err := c.ReadJson(&body); err != nil {
		return c.ErrorResponse(http.StatusBadRequest, err)
	}
	return jsonResponse(http.StatusOK, map[string]string{
		"html": parsing.RenderMarkdown(body.Markdown),
	})
}

const highlightStyle = "monokai"

func HighlightCSS(c *RequestContext) ResponseData {
	css, err := parsing.HighlightStylesheet(highlightStyle)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var res ResponseData
	res.Header().Set("Content-Type", "text/css; charset=utf-8")
	res.Header().Set("Cache-Control", "public, max-age=3600")
	res.Write([]byte(css))
	return res
}
