// Package sync binds a State Manager to a note in the vault: it loads the
// note, forwards change notifications, strips todo tags from notes that get
// completed and flushes on close. It also hosts the todo-tag scanner.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/gerunddev/notematrix/internal/logger"
	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/state"
	"github.com/gerunddev/notematrix/internal/vault"
)

// Options configures a Session.
type Options struct {
	Defaults     matrix.Settings
	Logger       *logger.Logger
	SaveDebounce time.Duration
	EchoGrace    time.Duration
	Clock        state.Clock

	// Watch enables file change notifications.
	Watch bool
	// OnRemoved is called when the note is deleted while open.
	OnRemoved func()
	// OnError receives errors from background work (watcher, tag removal).
	OnError func(err error)
}

// Session is one open matrix note.
type Session struct {
	vault *vault.Vault
	path  string
	mgr   *state.Manager
	log   *logger.Logger
	opts  Options

	mu        stdsync.Mutex
	stopWatch func() error
	removed   bool
}

// Open loads the note at path and, when requested, starts watching it.
func Open(ctx context.Context, v *vault.Vault, path string, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	s := &Session{
		vault: v,
		path:  path,
		log:   opts.Logger.With("matrix", path),
		opts:  opts,
	}

	s.mgr = state.New(path, state.Options{
		Defaults:     opts.Defaults,
		Resolver:     v,
		Writer:       v,
		Exists:       v.Exists,
		Logger:       s.log,
		SaveDebounce: opts.SaveDebounce,
		EchoGrace:    opts.EchoGrace,
		Clock:        opts.Clock,
		OnCompleted:  s.completed,
	})

	if err := s.mgr.Load(ctx, v); err != nil {
		return nil, err
	}

	if opts.Watch {
		stop, err := v.Watch(ctx, path, vault.WatchHandler{
			Changed: func(text string) { s.mgr.HandleChange(text) },
			Removed: s.fileRemoved,
			Error:   s.backgroundError,
		})
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
		s.stopWatch = stop
	}
	return s, nil
}

// Manager returns the state manager for the note.
func (s *Session) Manager() *state.Manager {
	return s.mgr
}

// Vault returns the vault the note lives in.
func (s *Session) Vault() *vault.Vault {
	return s.vault
}

// Path returns the vault-relative note path.
func (s *Session) Path() string {
	return s.path
}

// Removed reports whether the note was deleted while open.
func (s *Session) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// ScanTagged lists the tagged notes using the note's own settings.
func (s *Session) ScanTagged(ctx context.Context) (*ScanResult, error) {
	m := s.mgr.Snapshot()
	if m == nil {
		return nil, fmt.Errorf("scan for %s: not loaded", s.path)
	}
	result, err := Scan(ctx, s.vault, m.Settings, s.path)
	if err != nil {
		return nil, err
	}
	s.log.ScanCompleted(result.Folder, len(result.Found), result.EndTime.Sub(result.StartTime))
	return result, nil
}

// ImportTagged scans the vault with the note's settings and adds every tagged
// note as a Todo reference.
func (s *Session) ImportTagged(ctx context.Context) (*ScanResult, int, error) {
	result, err := s.ScanTagged(ctx)
	if err != nil {
		return nil, 0, err
	}
	return result, s.mgr.ImportReferences(result.Found), nil
}

// completed strips the todo tag from a referenced note that moved to Done.
func (s *Session) completed(it matrix.Item) {
	m := s.mgr.Snapshot()
	if m == nil || !m.Settings.AutoRemoveTodoOnDone || it.File == nil {
		return
	}
	tag := m.Settings.TodoTag
	changed, err := s.vault.StripTag(context.Background(), it.File.Path, tag)
	if err != nil {
		s.backgroundError(fmt.Errorf("remove %s from %s: %w", tag, it.File.Path, err))
		return
	}
	if changed {
		s.log.TagRemoved(it.File.Path, tag)
	}
}

func (s *Session) fileRemoved() {
	s.mu.Lock()
	s.removed = true
	s.mu.Unlock()

	s.log.FileGone(s.path)
	if s.opts.OnRemoved != nil {
		s.opts.OnRemoved()
	}
}

func (s *Session) backgroundError(err error) {
	s.log.FileError(s.path, err)
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
}

// Close stops watching and flushes pending edits, unless the note is gone.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()

	var watchErr error
	if stop != nil {
		watchErr = stop()
	}
	if err := s.mgr.Close(ctx); err != nil {
		return err
	}
	return watchErr
}
