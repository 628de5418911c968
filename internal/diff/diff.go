package diff

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Format represents the output format for diffs
type Format int

const (
	// FormatRendered renders the diff through glamour (default)
	FormatRendered Format = iota
	// FormatPlain returns the raw unified diff
	FormatPlain
)

// Unified returns the unified diff from before to after, or "" when the texts
// are identical.
func Unified(name, before, after string) string {
	if before == after {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(name), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(name+" (on disk)", name+" (canonical)", before, edits))
}

// Generate diffs the text of a note against its canonical form.
func Generate(name, onDisk, canonical string, format Format) (string, error) {
	unified := Unified(name, onDisk, canonical)
	if unified == "" {
		return "", nil
	}

	switch format {
	case FormatPlain:
		return unified, nil
	case FormatRendered:
		return render(unified), nil
	default:
		return "", fmt.Errorf("unsupported diff format: %d", format)
	}
}

func render(unified string) string {
	if !strings.HasSuffix(unified, "\n") {
		unified += "\n"
	}
	// Wrap in diff code fence for proper syntax highlighting (+ in green, - in red)
	diffMarkdown := fmt.Sprintf("```diff\n%s```\n", unified)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		// Fallback to plain diff if glamour fails
		return diffMarkdown
	}

	rendered, err := renderer.Render(diffMarkdown)
	if err != nil {
		// Fallback to plain diff if rendering fails
		return diffMarkdown
	}

	return rendered
}
