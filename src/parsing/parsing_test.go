package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	t.Run("blocks separated by blank line", func(t *testing.T) {
		assert.Equal(t, "<h1>Hello World</h1>\n\n<p>Hello, world.</p>", RenderMarkdown("# Hello World\n\nHello, world."))
	})
	t.Run("deterministic", func(t *testing.T) {
		src := "Some *emphasis* and a [link](https://example.com).\n\n- one\n- two"
		assert.Equal(t, RenderMarkdown(src), RenderMarkdown(src))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", RenderMarkdown(""))
	})
	t.Run("raw html is not passed through", func(t *testing.T) {
		html := RenderMarkdown("Hello <script>alert(1)</script>")
		t.Log(html)
		assert.NotContains(t, html, "<script>")
	})
	t.Run("autolinks", func(t *testing.T) {
		html := RenderMarkdown("See https://collab.network/docs for more.")
		assert.Contains(t, html, `<a href="https://collab.network/docs">`)
	})
	t.Run("strikethrough", func(t *testing.T) {
		assert.Equal(t, "<p><del>gone</del></p>", RenderMarkdown("~~gone~~"))
	})
	t.Run("mentions are plain text", func(t *testing.T) {
		assert.Equal(t, "<p>Hi @joshsmith</p>", RenderMarkdown("Hi @joshsmith"))
	})
	t.Run("fenced code blocks", func(t *testing.T) {
		t.Run("multiple lines", func(t *testing.T) {
			html := RenderMarkdown("```\nmultiple lines\n\tof code\n```")
			t.Log(html)
			assert.Equal(t, 1, strings.Count(html, "<pre"))
			assert.Contains(t, html, `class="collab-code"`)
			assert.Contains(t, html, "multiple lines\n\tof code")
		})
		t.Run("multiple lines with language", func(t *testing.T) {
			html := RenderMarkdown("```go\nfunc main() {\n\tfmt.Println(\"Hello, world!\")\n}\n```")
			t.Log(html)
			assert.Equal(t, 1, strings.Count(html, "<pre"))
			assert.Contains(t, html, `class="collab-code"`)
			assert.Contains(t, html, "Println")
			assert.Contains(t, html, "Hello, world!")
		})
	})
}

func TestFallbackHTML(t *testing.T) {
	assert.Equal(t, "<p>a &lt;b&gt; &amp; c</p>", fallbackHTML("a <b> & c"))
}

func TestRenderPlaintext(t *testing.T) {
	assert.Equal(t, "Hello World Hello, world.", RenderPlaintext("# Hello World\n\nHello, *world*.", 0))
	assert.Equal(t, "one two", RenderPlaintext("one\ntwo", 0))
	assert.Equal(t, "Hello…", RenderPlaintext("Hello, world.", 5))
	assert.Equal(t, "short", RenderPlaintext("short", 100))
	assert.Equal(t, "see this: done", RenderPlaintext("see this:\n\n```go\nfmt.Println(1)\n```\n\ndone", 0))
	assert.Equal(t, "go to https://collab.example now", RenderPlaintext("go to https://collab.example now", 0))
	assert.Equal(t, "a *literal* star", RenderPlaintext("a \\*literal\\* star", 0))
	assert.Equal(t, "one two", RenderPlaintext("- one\n- two", 0))
}

func TestHighlightStylesheet(t *testing.T) {
	css, err := HighlightStylesheet("monokai")
	assert.Nil(t, err)
	assert.Contains(t, css, ".chroma")

	fallback, err := HighlightStylesheet("definitely-not-a-style")
	assert.Nil(t, err)
	assert.NotEmpty(t, fallback)
}
