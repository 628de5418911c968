package mdformat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/gerunddev/notematrix/internal/matrix"
)

// SettingsHeading is the heading that owns the embedded settings block.
const SettingsHeading = "settingsJson"

var (
	// heading directly followed by the fence
	settingsStrict = regexp.MustCompile("(?m)^#{1,6}[ \\t]+" + SettingsHeading + "[ \\t]*\\n```json[ \\t]*\\n([\\s\\S]*?)\\n?```[ \\t]*$")
	// anything between heading and fence
	settingsLenient = regexp.MustCompile("(?m)^#{1,6}[ \\t]+" + SettingsHeading + "[ \\t]*$[\\s\\S]*?^```json[ \\t]*\\n([\\s\\S]*?)\\n?```[ \\t]*$")
)

// extractSettings finds the settings block and returns its JSON and the body
// with the whole heading-plus-fence span cut out.
func extractSettings(body string) (raw string, rest string, ok bool) {
	for _, re := range []*regexp.Regexp{settingsStrict, settingsLenient} {
		loc := re.FindStringSubmatchIndex(body)
		if loc == nil {
			continue
		}
		raw = body[loc[2]:loc[3]]
		rest = body[:loc[0]] + body[loc[1]:]
		return raw, rest, true
	}
	return "", body, false
}

// DecodeSettings overlays the JSON block on defaults. Comments and trailing
// commas are tolerated; anything unreadable yields the defaults.
func DecodeSettings(raw string, defaults matrix.Settings) matrix.Settings {
	s := defaults.Clone()
	if strings.TrimSpace(raw) == "" {
		return s
	}
	std, err := hujson.Standardize([]byte(raw))
	if err != nil {
		return s
	}
	if err := json.Unmarshal(std, &s); err != nil {
		return defaults.Clone()
	}
	return s.Clone()
}

// EncodeSettings renders settings the way they are stored in the block.
func EncodeSettings(s matrix.Settings) string {
	data, err := json.MarshalIndent(s.Clone(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
