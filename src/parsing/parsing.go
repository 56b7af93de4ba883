package parsing

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"git.collab.network/collab/src/logging"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"mvdan.cc/xurls/v2"
)

// Used for generating the HTML body of posts and comments.
var ContentMarkdown = goldmark.New(
	goldmark.WithExtensions(makeGoldmarkExtensions()...),
)

// Used for generating plain-text excerpts of posts and comments.
var PlaintextMarkdown = goldmark.New(
	goldmark.WithExtensions(makeGoldmarkExtensions()...),
	goldmark.WithRenderer(excerptRenderer{}),
)

/*
Renders user-authored markdown to HTML. Top-level blocks are separated by a
blank line, so "# Hi\n\nThere." becomes "<h1>Hi</h1>\n\n<p>There.</p>".

Raw HTML in the input is never passed through. If rendering fails for any
reason, the escaped input is returned in a single paragraph instead.
*/
func RenderMarkdown(source string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("markdown rendering panicked")
			result = fallbackHTML(source)
		}
	}()

	html, err := renderBlocks(ContentMarkdown, []byte(source))
	if err != nil {
		logging.Error().Err(err).Msg("failed to render markdown")
		return fallbackHTML(source)
	}
	return html
}

/*
Renders markdown as plain text, collapsing whitespace and cutting the result
at maxLen runes (with an ellipsis). A maxLen of zero or less means no limit.
*/
func RenderPlaintext(source string, maxLen int) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = truncate(strings.Join(strings.Fields(source), " "), maxLen)
		}
	}()

	var buf bytes.Buffer
	if err := PlaintextMarkdown.Convert([]byte(source), &buf); err != nil {
		return truncate(strings.Join(strings.Fields(source), " "), maxLen)
	}
	return truncate(strings.Join(strings.Fields(buf.String()), " "), maxLen)
}

func renderBlocks(md goldmark.Markdown, source []byte) (string, error) {
	doc := md.Parser().Parse(text.NewReader(source))

	var blocks []string
	for block := doc.FirstChild(); block != nil; block = block.NextSibling() {
		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, source, block); err != nil {
			return "", err
		}
		rendered := strings.TrimRight(buf.String(), "\n")
		if rendered != "" {
			blocks = append(blocks, rendered)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func fallbackHTML(source string) string {
	return "<p>" + html.EscapeString(source) + "</p>"
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxLen])) + "…"
}

func makeGoldmarkExtensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.NewLinkify(
			extension.WithLinkifyURLRegexp(xurls.Strict()),
		),
		highlightExtension,
	}
}

var highlightExtension = highlighting.NewHighlighting(
	highlighting.WithFormatOptions(CollabChromaOptions...),
	highlighting.WithWrapperRenderer(func(w util.BufWriter, context highlighting.CodeBlockContext, entering bool) {
		if entering {
			w.WriteString(`<pre class="collab-code">`)
		} else {
			w.WriteString(`</pre>`)
		}
	}),
)
