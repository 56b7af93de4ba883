package website

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"git.collab.network/collab/src/auth"
	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/content"
	"git.collab.network/collab/src/events"
	"git.collab.network/collab/src/memstore"
	"git.collab.network/collab/src/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogContextErrors(t *testing.T) {
	err1 := errors.New("test error 1")
	err2 := errors.New("test error 2")

	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Print("sanity check")

	assert.Contains(t, buf.String(), "sanity check")

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) (res ResponseData) {
					c.Logger = &logger
					return logContextErrorsMiddleware(h)(c)
				}
			},
		},
	}

	routes.GET(regexp.MustCompile("^/test$"), func(c *RequestContext) ResponseData {
		return c.ErrorResponse(http.StatusInternalServerError, err1, err2)
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/test")
	if assert.Nil(t, err) {
		defer res.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		body, _ := io.ReadAll(res.Body)
		assert.NotContains(t, string(body), err1.Error())

		assert.Contains(t, buf.String(), err1.Error())
		assert.Contains(t, buf.String(), err2.Error())
	}
}

func TestPanicCatcher(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			func(h Handler) Handler {
				return func(c *RequestContext) (res ResponseData) {
					c.Logger = &logger
					return h(c)
				}
			},
			logContextErrorsMiddleware,
			panicCatcherMiddleware,
		},
	}
	routes.GET(regexp.MustCompile("^/boom$"), func(c *RequestContext) ResponseData {
		panic("kaboom")
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/boom")
	require.Nil(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.NotContains(t, string(body), "kaboom")
	assert.Contains(t, buf.String(), "Recovered from panic with value: kaboom")
}

func TestRoutePrefixesAndParams(t *testing.T) {
	router := &Router{}
	routes := RouteBuilder{Router: router}
	group := routes.Group(regexp.MustCompile(`^/things/(?P<thingid>\d+)`))
	group.GET(regexp.MustCompile(`^/parts/(?P<partid>\d+)$`), func(c *RequestContext) ResponseData {
		return jsonResponse(http.StatusOK, c.PathParams)
	})
	routes.AnyMethod(reAnything, FourOhFour)

	srv := httptest.NewServer(router)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/things/12/parts/34/")
	require.Nil(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var params map[string]string
	require.Nil(t, json.NewDecoder(res.Body).Decode(&params))
	assert.Equal(t, map[string]string{"thingid": "12", "partid": "34"}, params)

	res2, err := http.Get(srv.URL + "/things/12/parts/nope")
	require.Nil(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

var testAuth = config.AuthConfig{
	TokenSecret: "test secret",
	TokenIssuer: "collab-test",
	TokenTTL:    time.Hour,
}

type apiFixture struct {
	srv     *httptest.Server
	store   *memstore.Store
	queue   *events.MemoryQueue
	project *models.Project
	author  *models.User
	other   *models.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	store := memstore.New()
	queue := events.NewMemoryQueue(100)
	f := &apiFixture{
		store: store,
		queue: queue,
	}
	f.project = store.AddProject(models.Project{Name: "Field Notes"})
	f.author = store.AddUser(models.User{Username: "author", Email: "author@example.com"})
	f.other = store.AddUser(models.User{Username: "other", Email: "other@example.com"})

	f.srv = httptest.NewServer(NewWebsiteRoutes(Deps{
		Content: &content.Service{
			Store:      store,
			Publisher:  queue,
			Authorizer: auth.Policy{},
		},
		Auth:    testAuth,
		BaseUrl: "https://collab.example",
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func tokenFor(t *testing.T, user *models.User) string {
	token, err := auth.IssueToken(testAuth, user.ID, user.Username, time.Now())
	require.Nil(t, err)
	return token
}

// Performs a request and decodes the JSON response into a generic map.
func (f *apiFixture) do(t *testing.T, method, path string, user *models.User, body any) (int, map[string]any) {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.Nil(t, err)
		reqBody = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequest(method, f.srv.URL+path, reqBody)
	require.Nil(t, err)
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
	}

	res, err := http.DefaultClient.Do(req)
	require.Nil(t, err)
	defer res.Body.Close()

	assert.NotEmpty(t, res.Header.Get(requestIDHeader))

	var decoded map[string]any
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.Nil(t, json.NewDecoder(res.Body).Decode(&decoded))
	}
	return res.StatusCode, decoded
}

func TestPostAPI(t *testing.T) {
	f := newAPIFixture(t)
	postsPath := "/api/projects/" + strconv.Itoa(f.project.ID) + "/posts"

	t.Run("anonymous users cannot post", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPost, postsPath, nil, map[string]any{"title": "Hi", "markdown_preview": "hi"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("bad tokens are rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, f.srv.URL+postsPath, nil)
		require.Nil(t, err)
		req.Header.Set("Authorization", "Bearer nonsense")
		res, err := http.DefaultClient.Do(req)
		require.Nil(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, postsPath, f.author, map[string]any{"titel": "Hi"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "not valid JSON")
	})

	t.Run("publishing without a title fails validation", func(t *testing.T) {
		status, body := f.do(t, http.MethodPost, postsPath, f.author, map[string]any{
			"markdown_preview": "no title",
			"publish":          true,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		errs := body["errors"].(map[string]any)
		assert.Contains(t, errs, "title")
	})

	status, draft := f.do(t, http.MethodPost, postsPath, f.author, map[string]any{
		"title":            "Hello",
		"markdown_preview": "# Hello World\n\nHello, world.",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "draft", draft["state"])
	assert.Nil(t, draft["number"])
	assert.Nil(t, draft["body"])
	assert.Equal(t, "<h1>Hello World</h1>\n\n<p>Hello, world.</p>", draft["body_preview"])
	assert.Equal(t, 0, f.queue.Len())

	postPath := "/api/posts/" + strconv.Itoa(int(draft["id"].(float64)))
	assert.Equal(t, "https://collab.example"+postPath, draft["url"])

	t.Run("drafts are hidden from others", func(t *testing.T) {
		status, _ := f.do(t, http.MethodGet, postPath, nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = f.do(t, http.MethodGet, postPath, f.other, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = f.do(t, http.MethodGet, postPath, f.author, nil)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("saving someone else's draft looks like a missing post", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPatch, postPath, f.other, map[string]any{"markdown_preview": "mine now"})
		assert.Equal(t, http.StatusNotFound, status)
	})

	status, published := f.do(t, http.MethodPatch, postPath, f.author, map[string]any{"commit": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "published", published["state"])
	assert.Equal(t, float64(1), published["number"])
	assert.Equal(t, "# Hello World\n\nHello, world.", published["markdown"])
	assert.Nil(t, published["edited_at"])
	assert.Equal(t, 1, f.queue.Len())

	t.Run("others cannot edit published posts", func(t *testing.T) {
		status, _ := f.do(t, http.MethodPatch, postPath, f.other, map[string]any{"markdown_preview": "mine now"})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("preview saves leave committed fields alone", func(t *testing.T) {
		status, saved := f.do(t, http.MethodPatch, postPath, f.author, map[string]any{"markdown_preview": "Changed"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "published", saved["state"])
		assert.Equal(t, "Changed", saved["markdown_preview"])
		assert.Equal(t, "# Hello World\n\nHello, world.", saved["markdown"])
		assert.Equal(t, 1, f.queue.Len())
	})

	t.Run("committing an edit keeps the number", func(t *testing.T) {
		status, edited := f.do(t, http.MethodPatch, postPath, f.author, map[string]any{"commit": true})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "edited", edited["state"])
		assert.Equal(t, float64(1), edited["number"])
		assert.Equal(t, "Changed", edited["markdown"])
		assert.NotNil(t, edited["edited_at"])
	})

	t.Run("listing", func(t *testing.T) {
		f.do(t, http.MethodPost, postsPath, f.author, map[string]any{"title": "Second", "markdown_preview": "two", "publish": true})
		f.do(t, http.MethodPost, postsPath, f.author, map[string]any{"title": "Unfinished", "markdown_preview": "three"})

		status, body := f.do(t, http.MethodGet, postsPath+"?active=true", nil, nil)
		require.Equal(t, http.StatusOK, status)
		posts := body["posts"].([]any)
		require.Len(t, posts, 2)
		assert.Equal(t, float64(2), posts[0].(map[string]any)["number"])
		assert.Equal(t, float64(1), posts[1].(map[string]any)["number"])

		status, body = f.do(t, http.MethodGet, postsPath+"?order=number_asc", f.author, nil)
		require.Equal(t, http.StatusOK, status)
		posts = body["posts"].([]any)
		require.Len(t, posts, 3)
		assert.Equal(t, float64(1), posts[0].(map[string]any)["number"])
		assert.Nil(t, posts[2].(map[string]any)["number"])

		status, body = f.do(t, http.MethodGet, postsPath+"?order=number_asc&limit=1&offset=1", f.author, nil)
		require.Equal(t, http.StatusOK, status)
		posts = body["posts"].([]any)
		require.Len(t, posts, 1)
		assert.Equal(t, float64(2), posts[0].(map[string]any)["number"])

		status, _ = f.do(t, http.MethodGet, postsPath+"?order=sideways", nil, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCommentAPI(t *testing.T) {
	f := newAPIFixture(t)
	mentioned := f.store.AddUser(models.User{Username: "alice", Email: "alice@example.com"})

	_, post := f.do(t, http.MethodPost, "/api/projects/"+strconv.Itoa(f.project.ID)+"/posts", f.author, map[string]any{
		"title":            "Discuss",
		"markdown_preview": "Thoughts?",
		"publish":          true,
	})
	commentsPath := "/api/posts/" + strconv.Itoa(int(post["id"].(float64))) + "/comments"

	status, comment := f.do(t, http.MethodPost, commentsPath, f.other, map[string]any{
		"markdown_preview": "Thanks @alice!",
		"publish":          true,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "published", comment["state"])
	assert.Equal(t, "<p>Thanks @alice!</p>", comment["body"])

	commentID := int(comment["id"].(float64))
	mentions := f.store.Mentions(models.ContentKindComment, commentID)
	require.Len(t, mentions, 1)
	assert.Equal(t, mentioned.ID, mentions[0].UserID)

	f.do(t, http.MethodPost, commentsPath, f.other, map[string]any{"markdown_preview": "half a thought"})

	status, body := f.do(t, http.MethodGet, commentsPath, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["comments"].([]any), 1)

	status, body = f.do(t, http.MethodGet, commentsPath, f.other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["comments"].([]any), 2)

	status, edited := f.do(t, http.MethodPatch, "/api/comments/"+strconv.Itoa(commentID), f.other, map[string]any{
		"markdown_preview": "Thanks!",
		"commit":           true,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", edited["state"])
	assert.Empty(t, f.store.Mentions(models.ContentKindComment, commentID))

	status, _ = f.do(t, http.MethodGet, "/api/posts/9999/comments", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRenderAndAssets(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/render", nil, map[string]any{"markdown": "# Hello World\n\nHello, world."})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>Hello World</h1>\n\n<p>Hello, world.</p>", body["html"])

	res, err := http.Get(f.srv.URL + "/assets/highlight.css")
	require.Nil(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/css; charset=utf-8", res.Header.Get("Content-Type"))

	status, body = f.do(t, http.MethodGet, "/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not found", body["error"])
}
