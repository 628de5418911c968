package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchChangedAndRemoved(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, map[string]string{"m.md": "v1", "other.md": "x"})

	changed := make(chan string, 16)
	removed := make(chan struct{}, 1)
	stop, err := v.Watch(ctx, "m.md", WatchHandler{
		Changed: func(text string) { changed <- text },
		Removed: func() { removed <- struct{}{} },
	})
	require.NoError(t, err)
	defer stop()

	// other files in the same folder are not reported
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "other.md"), []byte("y"), 0644))

	require.NoError(t, v.Write(ctx, "m.md", "v2"))
	waitFor(t, changed, "v2")

	require.NoError(t, os.Remove(filepath.Join(v.Root(), "m.md")))
	select {
	case <-removed:
	case <-time.After(2 * time.Second):
		t.Fatal("no removal notification")
	}
}

func TestWatchStop(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, map[string]string{"m.md": "v1"})

	changed := make(chan string, 16)
	stop, err := v.Watch(ctx, "m.md", WatchHandler{Changed: func(text string) { changed <- text }})
	require.NoError(t, err)
	require.NoError(t, stop())

	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "m.md"), []byte("after"), 0644))
	select {
	case text := <-changed:
		t.Fatalf("change delivered after stop: %q", text)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchRejectsEscape(t *testing.T) {
	v := newTestVault(t, nil)
	_, err := v.Watch(context.Background(), "../x.md", WatchHandler{})
	require.ErrorIs(t, err, ErrPathEscape)
}

// waitFor drains notifications until one carries want. Editors and atomic
// writes may produce several events per save.
func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	var seen []string
	for {
		select {
		case text := <-ch:
			if text == want {
				return
			}
			seen = append(seen, text)
		case <-deadline:
			t.Fatalf("never saw %q, got [%s]", want, strings.Join(seen, ", "))
		}
	}
}
