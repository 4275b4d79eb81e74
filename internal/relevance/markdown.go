package relevance

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// codeCandidates collects path candidates from markdown structure: every
// line of every fenced or indented code block, and every inline code span.
// Agents routinely answer with paths wrapped in backticks or fenced lists,
// so these carry more signal than surrounding prose. Each harvested line is
// run through the same cleaner as prose lines.
func codeCandidates(raw string) []string {
	source := []byte(raw)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var candidates []string
	appendLine := func(line string) {
		if c := cleanLine(line); c != "" {
			candidates = append(candidates, c)
		}
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			for i := 0; i < node.Lines().Len(); i++ {
				seg := node.Lines().At(i)
				appendLine(string(seg.Value(source)))
			}
		case *ast.CodeBlock:
			for i := 0; i < node.Lines().Len(); i++ {
				seg := node.Lines().At(i)
				appendLine(string(seg.Value(source)))
			}
		case *ast.CodeSpan:
			var buf bytes.Buffer
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					buf.Write(t.Segment.Value(source))
				}
			}
			appendLine(buf.String())
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		// The walker callback never returns an error; nothing to surface.
		return candidates
	}
	return candidates
}
