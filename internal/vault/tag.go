package vault

import (
	"context"
	"regexp"
	"strings"
)

func tagPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[\s(])` + regexp.QuoteMeta(tag) + `($|[\s).,;:!?])`)
}

// HasTag reports whether text contains tag as a whole word.
func HasTag(text, tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	return tagPattern(tag).MatchString(text)
}

// RemoveTag deletes every whole-word occurrence of tag from text.
func RemoveTag(text, tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return text
	}
	re := tagPattern(tag)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		// adjacent tags share a separator, so repeat until stable
		for re.MatchString(line) {
			line = re.ReplaceAllStringFunc(line, func(m string) string {
				sub := re.FindStringSubmatch(m)
				if sub[1] == "" || strings.TrimSpace(sub[2]) != "" {
					return sub[1] + strings.TrimLeft(sub[2], " \t")
				}
				return sub[1]
			})
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// StripTag removes tag from a note on disk. It reports whether the note
// changed.
func (v *Vault) StripTag(ctx context.Context, rel, tag string) (bool, error) {
	text, err := v.Read(ctx, rel)
	if err != nil {
		return false, err
	}
	updated := RemoveTag(text, tag)
	if updated == text {
		return false, nil
	}
	if err := v.Write(ctx, rel, updated); err != nil {
		return false, err
	}
	return true, nil
}
