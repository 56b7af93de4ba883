package parsing

import (
	"bufio"
	"io"
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
)

/*
Renders a markdown document as plain text for notification excerpts. Code
blocks and raw HTML are left out, autolinks keep their URL, and every block
ends with a space. Callers collapse the whitespace afterwards.
*/
type excerptRenderer struct{}

var _ renderer.Renderer = excerptRenderer{}

var reBackslashEscape = regexp.MustCompile("\\\\([\\\\\\x60!\"#$%&'()*+,-./:;<=>?@\\[\\]^_{|}~])")

func (excerptRenderer) Render(w io.Writer, source []byte, doc ast.Node) error {
	out := bufio.NewWriter(w)

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				out.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			out.Write(n.URL(source))
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			out.Write(reBackslashEscape.ReplaceAll(n.Text(source), []byte("$1")))
			if n.SoftLineBreak() || n.HardLineBreak() {
				out.WriteByte(' ')
			}
		case *ast.String:
			out.Write(n.Value)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return err
	}
	return out.Flush()
}

func (excerptRenderer) AddOptions(...renderer.Option) {}
