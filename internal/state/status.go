package state

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Lifecycle tracks whether the manager holds a document.
type Lifecycle int

const (
	Unloaded Lifecycle = iota
	Loading
	Ready
	Closed
)

func (l Lifecycle) String() string {
	switch l {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}

// Phase is the echo state machine. Any phase other than Idle means a change
// notification is expected to be our own write.
type Phase int

const (
	Idle Phase = iota
	WriteInFlight
	GraceWindow
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case WriteInFlight:
		return "write-in-flight"
	case GraceWindow:
		return "grace-window"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status is a point-in-time view of the manager.
type Status struct {
	Path      string
	Lifecycle Lifecycle
	Phase     Phase
	Dirty     bool // edits not yet written
	Items     int
	LastSaved time.Time
	LastError error
}

func (s Status) String() string {
	state := s.Lifecycle.String()
	if s.Phase != Idle {
		state += " (" + s.Phase.String() + ")"
	}
	if s.Dirty {
		state += ", unsaved"
	}
	if s.LastError != nil {
		state += ", last save failed: " + s.LastError.Error()
	}
	return fmt.Sprintf("%s: %s, %d items", s.Path, state, s.Items)
}

// Fingerprint hashes document text, ignoring surrounding whitespace, for
// comparison against what was last written.
func Fingerprint(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(text)))
}
