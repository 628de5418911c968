package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchHandler receives change notifications for one note.
type WatchHandler struct {
	// Changed is called with the full new text after a write or create.
	Changed func(text string)
	// Removed is called when the note is deleted or renamed away.
	Removed func()
	// Error is called for watcher errors. Optional.
	Error func(err error)
}

// Watch delivers change notifications for rel until ctx is cancelled or the
// returned stop function is called. The parent directory is watched rather
// than the file so that atomic replace-by-rename writes keep being seen.
func (v *Vault) Watch(ctx context.Context, rel string, h WatchHandler) (func() error, error) {
	target, err := v.Abs(rel)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", rel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != target {
					if event.Has(fsnotify.Create) {
						v.invalidate()
					}
					continue
				}
				v.dispatch(ctx, target, event, h)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if h.Error != nil {
					h.Error(err)
				}
			}
		}
	}()

	stop := func() error {
		cancel()
		err := watcher.Close()
		<-done
		return err
	}
	return stop, nil
}

func (v *Vault) dispatch(ctx context.Context, target string, event fsnotify.Event, h WatchHandler) {
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		data, err := os.ReadFile(target)
		if err != nil {
			// replaced between the event and the read; the next event carries it
			return
		}
		if ctx.Err() == nil && h.Changed != nil {
			h.Changed(string(data))
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if _, err := os.Stat(target); err == nil {
			// renamed over by an atomic write, not gone
			return
		}
		v.invalidate()
		if ctx.Err() == nil && h.Removed != nil {
			h.Removed()
		}
	}
}
