// Package state owns the in-memory matrix for one open document and keeps it
// in sync with the file: loads, debounced saves, echo suppression for change
// notifications caused by our own writes, and subscriber notification.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gerunddev/notematrix/internal/hydrate"
	"github.com/gerunddev/notematrix/internal/logger"
	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/mdformat"
)

var (
	// ErrClosed is returned by operations on a closed manager.
	ErrClosed = errors.New("state: manager closed")
	// ErrReadOnly is returned by Save when no Writer was configured.
	ErrReadOnly = errors.New("state: no writer configured")
)

const (
	DefaultSaveDebounce = 500 * time.Millisecond
	DefaultEchoGrace    = 100 * time.Millisecond
)

// Reader reads the full text of a document.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Writer replaces the full text of a document in place.
type Writer interface {
	Write(ctx context.Context, path, text string) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, path, text string) error

func (f WriterFunc) Write(ctx context.Context, path, text string) error {
	return f(ctx, path, text)
}

// Options configures a Manager. The zero value is usable for read-only use.
type Options struct {
	// Defaults fill in settings missing from the document. Copied on New.
	Defaults matrix.Settings
	Resolver hydrate.Resolver
	Writer   Writer
	// Exists reports whether the backing file is still there. Close skips
	// its final flush when it returns false.
	Exists func(path string) bool
	Logger *logger.Logger

	SaveDebounce time.Duration
	EchoGrace    time.Duration
	Clock        Clock

	// OnCompleted is called, outside the lock, for an item moved into the
	// Done bank.
	OnCompleted func(item matrix.Item)
}

// Manager is the single owner of one document's matrix.
type Manager struct {
	path string
	opts Options
	log  *logger.Logger

	mu        sync.Mutex
	m         *matrix.Matrix
	lifecycle Lifecycle
	phase     Phase
	inFlight  int
	dirty     bool
	written   string // fingerprint of the last text we wrote
	lastSaved time.Time
	lastErr   error

	saveTimer  Timer
	saveGen    uint64
	graceTimer Timer
	graceGen   uint64

	subs    map[int]func(*matrix.Matrix)
	nextSub int
}

// New returns an unloaded manager for the document at path.
func New(path string, opts Options) *Manager {
	if opts.Resolver == nil {
		opts.Resolver = hydrate.NoResolver
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.SaveDebounce <= 0 {
		opts.SaveDebounce = DefaultSaveDebounce
	}
	if opts.EchoGrace <= 0 {
		opts.EchoGrace = DefaultEchoGrace
	}
	opts.Defaults = opts.Defaults.Clone()

	return &Manager{
		path: path,
		opts: opts,
		log:  opts.Logger,
		subs: make(map[int]func(*matrix.Matrix)),
	}
}

// Path returns the document path.
func (s *Manager) Path() string {
	return s.path
}

// Snapshot returns a copy of the current matrix, or nil before the first load.
func (s *Manager) Snapshot() *matrix.Matrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Clone()
}

// Serialize returns the canonical text for the current matrix.
func (s *Manager) Serialize() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return "", false
	}
	return mdformat.Serialize(s.m), true
}

// Status reports lifecycle and echo phase.
func (s *Manager) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Path:      s.path,
		Lifecycle: s.lifecycle,
		Phase:     s.phase,
		Dirty:     s.dirty,
		LastSaved: s.lastSaved,
		LastError: s.lastErr,
	}
	if s.m != nil {
		st.Items = s.m.Len()
	}
	return st
}

// Subscribe registers fn to receive a copy of the matrix after every load and
// every effective edit. The returned function unregisters it.
func (s *Manager) Subscribe(fn func(*matrix.Matrix)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// snapshotLocked captures what notify needs while the lock is held.
func (s *Manager) snapshotLocked() (*matrix.Matrix, []func(*matrix.Matrix)) {
	fns := make([]func(*matrix.Matrix), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	return s.m.Clone(), fns
}

func notify(m *matrix.Matrix, fns []func(*matrix.Matrix)) {
	for _, fn := range fns {
		fn(m.Clone())
	}
}

// echoExpected is the single answer to "is a change notification ours?".
func (s *Manager) echoExpected() bool {
	return s.phase != Idle
}

// LoadFromText replaces the matrix with the parse of text. It is skipped
// while one of our own writes may still be echoing back.
func (s *Manager) LoadFromText(text string) (*matrix.Matrix, bool) {
	s.mu.Lock()
	if s.lifecycle == Closed {
		s.mu.Unlock()
		return nil, false
	}
	if s.echoExpected() {
		s.log.EchoSuppressed(s.path, s.phase.String())
		m := s.m.Clone()
		s.mu.Unlock()
		return m, false
	}
	s.loadLocked(text, "load")
	m, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(m, fns)
	return m, true
}

func (s *Manager) loadLocked(text, reason string) {
	s.lifecycle = Loading
	s.m = hydrate.FromText(text, s.opts.Defaults, s.opts.Resolver, s.path)
	s.lifecycle = Ready

	// the file now is the source of truth
	s.stopSaveLocked()
	s.dirty = false
	s.written = ""
	s.log.MatrixLoaded(s.path, s.m.Len(), reason)
}

// Load reads the document through r and loads it.
func (s *Manager) Load(ctx context.Context, r Reader) error {
	s.mu.Lock()
	if s.lifecycle == Closed {
		s.mu.Unlock()
		return ErrClosed
	}
	prev := s.lifecycle
	s.lifecycle = Loading
	s.mu.Unlock()

	text, err := r.Read(ctx, s.path)
	if err != nil {
		s.mu.Lock()
		if s.lifecycle == Loading {
			s.lifecycle = prev
		}
		s.mu.Unlock()
		return fmt.Errorf("load %s: %w", s.path, err)
	}

	s.mu.Lock()
	closed := s.lifecycle == Closed
	if !closed && s.lifecycle == Loading {
		s.lifecycle = prev
	}
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}

	s.LoadFromText(text)
	return nil
}

// HandleChange receives the full text of the file after a change
// notification. It reports whether the matrix was reloaded.
func (s *Manager) HandleChange(text string) bool {
	s.mu.Lock()
	switch {
	case s.lifecycle == Unloaded || s.lifecycle == Closed || s.m == nil:
		s.mu.Unlock()
		return false
	case s.echoExpected():
		s.log.EchoSuppressed(s.path, s.phase.String())
		s.mu.Unlock()
		return false
	case mdformat.SameContent(s.m, text):
		s.log.EchoSuppressed(s.path, "unchanged")
		s.mu.Unlock()
		return false
	case s.written != "" && Fingerprint(text) == s.written:
		// a late echo of an earlier save; the model has moved on since
		s.log.EchoSuppressed(s.path, "stale echo")
		s.mu.Unlock()
		return false
	}

	s.loadLocked(text, "external change")
	m, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(m, fns)
	return true
}

// Save writes the current matrix. Change notifications arriving while the
// write is in flight, and for the grace window after it, are treated as
// echoes. A failed write leaves the matrix as it is.
func (s *Manager) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.lifecycle == Closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()
	return s.write(ctx)
}

func (s *Manager) write(ctx context.Context) error {
	s.mu.Lock()
	if s.m == nil {
		s.mu.Unlock()
		return nil
	}
	if s.opts.Writer == nil {
		s.mu.Unlock()
		return ErrReadOnly
	}
	text := mdformat.Serialize(s.m)
	s.stopSaveLocked()
	s.dirty = false
	s.inFlight++
	s.phase = WriteInFlight
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.mu.Unlock()

	start := s.opts.Clock.Now()
	err := s.opts.Writer.Write(ctx, s.path, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if err != nil {
		s.dirty = true
		s.lastErr = err
		if s.inFlight == 0 {
			s.phase = Idle
		}
		s.log.SaveFailed(s.path, err)
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.written = Fingerprint(text)
	s.lastSaved = s.opts.Clock.Now()
	s.lastErr = nil
	s.log.MatrixSaved(s.path, len(text), s.lastSaved.Sub(start))

	if s.inFlight > 0 {
		return nil
	}
	if s.lifecycle == Closed {
		s.phase = Idle
		return nil
	}
	s.phase = GraceWindow
	s.graceGen++
	gen := s.graceGen
	s.graceTimer = s.opts.Clock.AfterFunc(s.opts.EchoGrace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.graceGen == gen && s.phase == GraceWindow {
			s.phase = Idle
			s.graceTimer = nil
		}
	})
	return nil
}

// scheduleSaveLocked marks the matrix dirty and (re)starts the debounce
// timer, so a burst of edits ends in one write.
func (s *Manager) scheduleSaveLocked() {
	s.dirty = true
	if s.opts.Writer == nil {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveGen++
	gen := s.saveGen
	s.saveTimer = s.opts.Clock.AfterFunc(s.opts.SaveDebounce, func() {
		s.mu.Lock()
		stale := s.saveGen != gen || s.lifecycle == Closed
		s.mu.Unlock()
		if stale {
			return
		}
		// errors are logged and kept in Status
		_ = s.write(context.Background())
	})
}

func (s *Manager) stopSaveLocked() {
	s.saveGen++
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}

// Flush writes pending edits now instead of waiting for the debounce.
func (s *Manager) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.dirty && s.m != nil && s.lifecycle != Closed
	s.mu.Unlock()
	if !pending {
		return nil
	}
	return s.write(ctx)
}

// Close detaches the manager. Timers are stopped and later completions are
// ignored. Pending edits are written unless the file no longer exists.
func (s *Manager) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.lifecycle == Closed {
		s.mu.Unlock()
		return nil
	}
	s.lifecycle = Closed
	s.stopSaveLocked()
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.phase = Idle
	s.subs = make(map[int]func(*matrix.Matrix))
	pending := s.dirty && s.m != nil && s.opts.Writer != nil
	s.mu.Unlock()

	if !pending {
		return nil
	}
	if s.opts.Exists != nil && !s.opts.Exists(s.path) {
		s.log.Skipped(s.path, "file removed, pending edits dropped")
		return nil
	}
	return s.write(ctx)
}
