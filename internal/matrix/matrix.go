// Package matrix holds the in-memory model of one matrix document: four fixed
// quadrants, the Todo and Done banks, per-document settings and the front
// matter that is carried through untouched.
package matrix

import (
	"strings"

	"github.com/gerunddev/notematrix/internal/vault"
)

// QuadrantID names one of the four fixed cells.
type QuadrantID string

const (
	Q1 QuadrantID = "q1"
	Q2 QuadrantID = "q2"
	Q3 QuadrantID = "q3"
	Q4 QuadrantID = "q4"
)

// Section routes parsed list items and orders serialized output.
type Section string

const (
	SectionNone Section = "none"
	SectionTodo Section = "todo"
	SectionQ1   Section = "q1"
	SectionQ2   Section = "q2"
	SectionQ3   Section = "q3"
	SectionQ4   Section = "q4"
	SectionDone Section = "done"
)

// Sections returns the item-bearing sections in emission order.
func Sections() []Section {
	return []Section{SectionTodo, SectionQ1, SectionQ2, SectionQ3, SectionQ4, SectionDone}
}

// IsValid reports whether s can hold items.
func (s Section) IsValid() bool {
	switch s {
	case SectionTodo, SectionQ1, SectionQ2, SectionQ3, SectionQ4, SectionDone:
		return true
	default:
		return false
	}
}

// IsBank reports whether s is the Todo or Done bank.
func (s Section) IsBank() bool {
	return s == SectionTodo || s == SectionDone
}

// Heading returns the markdown heading text for s.
func (s Section) Heading() string {
	if s == SectionNone {
		return ""
	}
	return strings.ToUpper(string(s))
}

// ParseSection classifies a heading. Anything that is not one of the six
// literals yields SectionNone.
func ParseSection(heading string) Section {
	s := Section(strings.ToLower(strings.TrimSpace(heading)))
	if s.IsValid() {
		return s
	}
	return SectionNone
}

// quadrantSpec is the constant table behind the four cells.
var quadrantSpec = [4]struct {
	id        QuadrantID
	title     string
	urgent    bool
	important bool
}{
	{Q1, "Do", true, true},
	{Q2, "Schedule", false, true},
	{Q3, "Delegate", true, false},
	{Q4, "Eliminate", false, false},
}

// Item is one task or reference.
type Item struct {
	// ID is the cross-reference target for references, the trimmed text for
	// plain items, or a generated id for items added at runtime.
	ID string
	// Title is what gets displayed.
	Title string
	// TitleRaw is re-emitted verbatim on serialization.
	TitleRaw string
	// Ref is the cross-reference target, empty for plain text.
	Ref     string
	Checked bool
	// File is the resolved target document, nil when unresolved.
	File *vault.File
}

// IsReference reports whether the item was written as [[target]].
func (it Item) IsReference() bool {
	return it.Ref != ""
}

// Quadrant is one of the four fixed cells. Only Items ever changes.
type Quadrant struct {
	ID        QuadrantID
	Title     string
	Urgent    bool
	Important bool
	Items     []Item
}

// Matrix is the root aggregate for one document.
type Matrix struct {
	// ID is the document path.
	ID          string
	Quadrants   [4]Quadrant
	Settings    Settings
	FrontMatter FrontMatter
	Todo        []Item
	Done        []Item
}

// New returns an empty matrix with the four quadrants in place.
func New(id string, settings Settings) *Matrix {
	m := &Matrix{
		ID:       id,
		Settings: settings.Clone(),
	}
	for i, q := range quadrantSpec {
		m.Quadrants[i] = Quadrant{
			ID:        q.id,
			Title:     q.title,
			Urgent:    q.urgent,
			Important: q.important,
		}
	}
	return m
}

func quadrantIndex(s Section) int {
	switch s {
	case SectionQ1:
		return 0
	case SectionQ2:
		return 1
	case SectionQ3:
		return 2
	case SectionQ4:
		return 3
	default:
		return -1
	}
}

// Items returns the ordered list for a section. The slice is shared with the
// matrix; callers that want to change it go through ReplaceSection.
func (m *Matrix) Items(s Section) []Item {
	switch s {
	case SectionTodo:
		return m.Todo
	case SectionDone:
		return m.Done
	}
	if i := quadrantIndex(s); i >= 0 {
		return m.Quadrants[i].Items
	}
	return nil
}

// ReplaceSection swaps in a new ordered list for a section. It is the only
// place section contents are written.
func (m *Matrix) ReplaceSection(s Section, items []Item) {
	switch s {
	case SectionTodo:
		m.Todo = items
		return
	case SectionDone:
		m.Done = items
		return
	}
	if i := quadrantIndex(s); i >= 0 {
		m.Quadrants[i].Items = items
	}
}

// Quadrant returns the cell for id.
func (m *Matrix) Quadrant(id QuadrantID) *Quadrant {
	for i := range m.Quadrants {
		if m.Quadrants[i].ID == id {
			return &m.Quadrants[i]
		}
	}
	return nil
}

// Find locates an item by id across all sections.
func (m *Matrix) Find(id string) (Item, Section, bool) {
	for _, s := range Sections() {
		if i := IndexOf(m.Items(s), id); i >= 0 {
			return m.Items(s)[i], s, true
		}
	}
	return Item{}, SectionNone, false
}

// HasRef reports whether any section already holds a reference to target.
func (m *Matrix) HasRef(target string) bool {
	for _, s := range Sections() {
		for _, it := range m.Items(s) {
			if it.Ref == target {
				return true
			}
		}
	}
	return false
}

// Len returns the number of items across all sections.
func (m *Matrix) Len() int {
	n := 0
	for _, s := range Sections() {
		n += len(m.Items(s))
	}
	return n
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	if m == nil {
		return nil
	}
	c := *m
	c.Settings = m.Settings.Clone()
	c.FrontMatter = m.FrontMatter.Clone()
	c.Todo = cloneItems(m.Todo)
	c.Done = cloneItems(m.Done)
	for i := range m.Quadrants {
		c.Quadrants[i].Items = cloneItems(m.Quadrants[i].Items)
	}
	return &c
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.File != nil {
			f := *it.File
			out[i].File = &f
		}
	}
	return out
}
