package project

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// docParserInstance is initialized once and reused. The parser holds no
// per-document state; Parse(reader) creates that per call.
var (
	docParserInstance goldmark.Markdown
	docParserOnce     sync.Once
)

func docParser() goldmark.Markdown {
	docParserOnce.Do(func() {
		docParserInstance = goldmark.New()
	})
	return docParserInstance
}

// docTitle returns the text of the first heading in a markdown
// document, or "" when the document has no heading.
func docTitle(source []byte) string {
	document := docParser().Parser().Parse(text.NewReader(source))
	title := ""
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf strings.Builder
		lines := heading.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			buf.Write(segment.Value(source))
		}
		title = strings.TrimSpace(buf.String())
		return ast.WalkStop, nil
	})
	return title
}
