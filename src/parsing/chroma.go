package parsing

import (
	"bytes"

	"git.collab.network/collab/src/oops"
	"github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/styles"
)

// Code is highlighted with CSS classes rather than inline styles, so clients
// can pick their own theme from HighlightStylesheet.
var CollabChromaOptions = []html.Option{
	html.WithClasses(true),
	html.WithPreWrapper(nopPreWrapper{}),
}

type nopPreWrapper struct{}

var _ html.PreWrapper = nopPreWrapper{}

func (w nopPreWrapper) Start(code bool, styleAttr string) string {
	return ""
}

func (w nopPreWrapper) End(code bool) string {
	return ""
}

// Returns the CSS for the given chroma style. Unknown styles fall back to
// chroma's default.
func HighlightStylesheet(styleName string) (string, error) {
	style := styles.Get(styleName)

	var buf bytes.Buffer
	formatter := html.New(CollabChromaOptions...)
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", oops.New(err, "failed to write highlight CSS for style %s", styleName)
	}
	return buf.String(), nil
}
