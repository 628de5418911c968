package mdformat

import (
	"strings"

	"github.com/gerunddev/notematrix/internal/matrix"
)

// Serialize renders m as canonical markdown. The output depends only on the
// model, so serializing an unchanged matrix twice yields identical text.
func Serialize(m *matrix.Matrix) string {
	var b strings.Builder

	writeFrontMatter(&b, m.FrontMatter)
	b.WriteString("\n")

	for _, s := range matrix.Sections() {
		b.WriteString("## " + s.Heading() + "\n\n")
		items := m.Items(s)
		for _, it := range items {
			b.WriteString(itemLine(s, it) + "\n")
		}
		if len(items) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("## " + SettingsHeading + "\n")
	b.WriteString("```json\n")
	b.WriteString(EncodeSettings(m.Settings))
	b.WriteString("\n```\n")
	return b.String()
}

func itemLine(s matrix.Section, it matrix.Item) string {
	raw := strings.TrimSpace(it.TitleRaw)
	switch s {
	case matrix.SectionTodo:
		return "- [ ] " + raw
	case matrix.SectionDone:
		return "- [x] " + raw
	default:
		return "- " + raw
	}
}

// SameContent reports whether text is what Serialize(m) would write,
// ignoring surrounding whitespace.
func SameContent(m *matrix.Matrix, text string) bool {
	if m == nil {
		return false
	}
	return strings.TrimSpace(Serialize(m)) == strings.TrimSpace(normalizeNewlines(text))
}
