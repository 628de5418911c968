// Package mdformat reads and writes the markdown layout of a matrix document:
// front matter, one heading per section, list items under each heading and a
// fenced JSON settings block.
package mdformat

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/gerunddev/notematrix/internal/matrix"
)

// Document is the result of the structural parse.
type Document struct {
	FrontMatter    matrix.FrontMatter // marker key removed
	HasFrontMatter bool
	HasMarker      bool
	Settings       string // raw JSON from the settings block
	HasSettings    bool
	Body           []byte // markdown the tree was parsed from
	Tree           ast.Node
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// Parse splits text into front matter, settings JSON and a heading/list tree.
// It never fails: missing pieces come back empty.
func Parse(src string) Document {
	src = normalizeNewlines(src)

	var doc Document
	block, body, ok := splitFrontMatter(src)
	if ok {
		fm := parseFrontMatter(block)
		doc.HasFrontMatter = true
		doc.HasMarker = fm.HasMarker()
		doc.FrontMatter = fm.Without(matrix.MarkerKey)
	}

	raw, body, found := extractSettings(body)
	doc.Settings = raw
	doc.HasSettings = found

	doc.Body = []byte(body)
	doc.Tree = newMarkdown().Parser().Parse(text.NewReader(doc.Body))
	return doc
}

var sectionHeading = regexp.MustCompile(`(?mi)^#{1,6}[ \t]+(todo|q1|q2|q3|q4|done)[ \t]*$`)

// IsMatrix reports whether text is a matrix document: the marker key in front
// matter, or failing that any of the section headings.
func IsMatrix(src string) bool {
	src = normalizeNewlines(src)
	if block, _, ok := splitFrontMatter(src); ok {
		if parseFrontMatter(block).HasMarker() {
			return true
		}
	}
	return sectionHeading.MatchString(src)
}

// HasMarker reports whether the front matter carries the marker key.
func HasMarker(src string) bool {
	block, _, ok := splitFrontMatter(normalizeNewlines(src))
	return ok && parseFrontMatter(block).HasMarker()
}

func normalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ReplaceAll(s, "\r\n", "\n")
}
