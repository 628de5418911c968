package mdformat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"

	"github.com/gerunddev/notematrix/internal/matrix"
)

var (
	wikiLink = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
	taskBox  = regexp.MustCompile(`^\[[ xX]\]\s*`)
)

// RawItem is an item before any cross-reference has been resolved.
type RawItem struct {
	ID       string
	TitleRaw string
	Ref      string
	Alias    string
	Checked  bool
	Section  matrix.Section
}

// Unhydrated is the parse-only model: settings, front matter and six flat
// lists in section order.
type Unhydrated struct {
	FrontMatter matrix.FrontMatter
	Settings    matrix.Settings
	Lists       map[matrix.Section][]RawItem
}

// Items returns the list for one section.
func (u Unhydrated) Items(s matrix.Section) []RawItem {
	return u.Lists[s]
}

// Extract walks the tree and files every list item under the section of the
// nearest recognized heading above it. Unrecognized headings leave the
// current section as it was.
func Extract(doc Document, defaults matrix.Settings) Unhydrated {
	u := Unhydrated{
		FrontMatter: doc.FrontMatter.Clone(),
		Settings:    DecodeSettings(doc.Settings, defaults),
		Lists:       make(map[matrix.Section][]RawItem, 6),
	}
	if doc.Tree == nil {
		return u
	}

	current := matrix.SectionNone
	for n := doc.Tree.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.Kind() {
		case ast.KindHeading:
			if s := matrix.ParseSection(linesText(n, doc.Body)); s != matrix.SectionNone {
				current = s
			}
		case ast.KindList:
			if current == matrix.SectionNone {
				continue
			}
			_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
				if entering && c.Kind() == ast.KindListItem {
					if it, ok := listItem(c, doc.Body, current); ok {
						u.Lists[it.Section] = append(u.Lists[it.Section], it)
					}
				}
				return ast.WalkContinue, nil
			})
		}
	}

	disambiguate(u.Lists)
	return u
}

// listItem reads one list item. Only the item's own text blocks count;
// nested lists are visited as items of their own.
func listItem(li ast.Node, source []byte, section matrix.Section) (RawItem, bool) {
	var parts []string
	checked, hasBox := false, false

	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() != ast.KindParagraph && c.Kind() != ast.KindTextBlock {
			continue
		}
		if len(parts) == 0 {
			if box, ok := c.FirstChild().(*extast.TaskCheckBox); ok {
				hasBox = true
				checked = box.IsChecked
			}
		}
		if t := linesText(c, source); t != "" {
			parts = append(parts, t)
		}
	}

	text := strings.Join(parts, " ")
	if hasBox {
		text = taskBox.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return RawItem{}, false
	}

	it := RawItem{ID: text, TitleRaw: text, Section: section}
	if m := wikiLink.FindStringSubmatch(text); m != nil {
		target := strings.TrimSpace(m[1])
		alias := strings.TrimSpace(m[2])
		if target != "" {
			it.ID = target
			it.Ref = target
			it.Alias = alias
			it.TitleRaw = WikiLink(target, alias)
		}
	}

	switch section {
	case matrix.SectionTodo:
		if checked {
			it.Section = matrix.SectionDone
			it.Checked = true
		}
	case matrix.SectionDone:
		it.Checked = true
	}
	return it, true
}

// WikiLink renders the canonical bracket form.
func WikiLink(target, alias string) string {
	if alias == "" {
		return "[[" + target + "]]"
	}
	return "[[" + target + "|" + alias + "]]"
}

// disambiguate suffixes repeated ids with #2, #3, ... counting in section
// emission order, so a document and its re-serialization agree on ids.
func disambiguate(lists map[matrix.Section][]RawItem) {
	used := make(map[string]bool)
	for _, s := range matrix.Sections() {
		for i, it := range lists[s] {
			id := it.ID
			for n := 2; used[id]; n++ {
				id = fmt.Sprintf("%s#%d", it.ID, n)
			}
			used[id] = true
			lists[s][i].ID = id
		}
	}
}

func linesText(n ast.Node, source []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if t := strings.TrimSpace(string(seg.Value(source))); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
