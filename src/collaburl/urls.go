package collaburl

import (
	"fmt"
	"regexp"
	"strconv"
)

var RegexProjectPosts = regexp.MustCompile(`^/api/projects/(?P<projectid>\d+)/posts$`)

func (c *UrlContext) BuildProjectPosts(projectID int, query ...Q) string {
	return c.Url(fmt.Sprintf("/api/projects/%d/posts", projectID), query)
}

var RegexPost = regexp.MustCompile(`^/api/posts/(?P<postid>\d+)$`)

func (c *UrlContext) BuildPost(postID int) string {
	return c.Url("/api/posts/"+strconv.Itoa(postID), nil)
}

var RegexPostComments = regexp.MustCompile(`^/api/posts/(?P<postid>\d+)/comments$`)

func (c *UrlContext) BuildPostComments(postID int) string {
	return c.Url(fmt.Sprintf("/api/posts/%d/comments", postID), nil)
}

var RegexComment = regexp.MustCompile(`^/api/comments/(?P<commentid>\d+)$`)

func (c *UrlContext) BuildComment(commentID int) string {
	return c.Url("/api/comments/"+strconv.Itoa(commentID), nil)
}

// Where a reader should go to see a comment: its post, scrolled to it.
func (c *UrlContext) BuildCommentOnPost(postID, commentID int) string {
	return fmt.Sprintf("%s#comment-%d", c.BuildPost(postID), commentID)
}

var RegexRender = regexp.MustCompile(`^/api/render$`)

func (c *UrlContext) BuildRender() string {
	return c.Url("/api/render", nil)
}

var RegexHighlightCSS = regexp.MustCompile(`^/assets/highlight\.css$`)

func (c *UrlContext) BuildHighlightCSS() string {
	return c.Url("/assets/highlight.css", nil)
}
