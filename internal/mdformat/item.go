package mdformat

import (
	"regexp"
	"strings"

	"github.com/gerunddev/notematrix/internal/matrix"
)

var (
	// text that would open a block of its own when written after a list marker
	blockStart = regexp.MustCompile("^(#{1,6}(\\s|$)|>|[-+*](\\s|$)|\\[[ xX]\\]|\\[[^\\]]*\\]:|<[A-Za-z/!?]|```|~~~|(-[ \\t]*){3,}$|(\\*[ \\t]*){3,}$|(_[ \\t]*){3,}$)")
	orderedStart = regexp.MustCompile(`^(\d{1,9})([.)])(\s|$)`)

	escapedOrdered = regexp.MustCompile(`^(\d{1,9})\\([.)])`)
)

// EscapeItemText backslash-escapes a leading construct that markdown would
// read as block syntax, so text written after a list marker reads back as
// the same paragraph.
func EscapeItemText(text string) string {
	if orderedStart.MatchString(text) {
		return orderedStart.ReplaceAllString(text, "${1}\\${2}${3}")
	}
	if blockStart.MatchString(text) {
		return `\` + text
	}
	return text
}

// UnescapeItemText drops the escape EscapeItemText adds, for display.
func UnescapeItemText(raw string) string {
	if escapedOrdered.MatchString(raw) {
		return escapedOrdered.ReplaceAllString(raw, "${1}${2}")
	}
	if len(raw) > 1 && raw[0] == '\\' && isPunct(raw[1]) {
		return raw[1:]
	}
	return raw
}

func isPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

// ParseItem returns the item text reads back as once written as a list line
// of section. It reports false when nothing would survive a reload.
func ParseItem(text string, section matrix.Section) (RawItem, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || !section.IsValid() {
		return RawItem{}, false
	}

	line := itemLine(section, matrix.Item{TitleRaw: EscapeItemText(text)})
	doc := Parse("## " + section.Heading() + "\n\n" + line + "\n")
	items := Extract(doc, matrix.DefaultSettings()).Items(section)
	if len(items) != 1 {
		return RawItem{}, false
	}
	return items[0], true
}
