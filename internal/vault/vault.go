// Package vault is the host file store: a directory of markdown notes that
// can be read, written in place, searched for cross-reference targets and
// watched for changes.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// ErrPathEscape is returned when a path resolves outside the vault root.
var ErrPathEscape = errors.New("vault: path escapes vault")

// Vault is a directory of notes.
type Vault struct {
	root string

	mu    sync.RWMutex
	index *index
}

// New returns a vault rooted at dir.
func New(dir string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Abs resolves a vault-relative path and checks it stays inside the vault.
func (v *Vault) Abs(rel string) (string, error) {
	p := filepath.Join(v.root, filepath.FromSlash(rel))
	p, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if p != v.root && !strings.HasPrefix(p, v.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return p, nil
}

// Rel converts an absolute or working-directory path into a vault-relative
// slash path.
func (v *Vault) Rel(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, p)
	}
	return rel, nil
}

// Read returns the full text of a note.
func (v *Vault) Read(ctx context.Context, rel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := v.Abs(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return string(data), nil
}

// Write replaces the full content of a note in place. Existing files keep
// their path and permissions; the content swap is atomic.
func (v *Vault) Write(ctx context.Context, rel string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := v.Abs(rel)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(p)
	isNew := errors.Is(statErr, fs.ErrNotExist)
	if isNew {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", rel, err)
		}
	}

	if err := atomic.WriteFile(p, strings.NewReader(text)); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}

	// atomic.WriteFile leaves new files with the temp file's 0600 mode
	if isNew {
		if err := os.Chmod(p, 0644); err != nil {
			return fmt.Errorf("chmod %s: %w", rel, err)
		}
		v.invalidate()
	}
	return nil
}

// Exists reports whether a note is present.
func (v *Vault) Exists(rel string) bool {
	p, err := v.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Walk visits every entry under folder. Hidden directories are skipped.
// When recursive is false only the direct children of folder are visited.
func (v *Vault) Walk(folder string, recursive bool, fn func(Entry) error) error {
	start, err := v.Abs(folder)
	if err != nil {
		return err
	}
	return filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == start {
				return err
			}
			return nil
		}
		if p == start {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(v.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if err := fn(Folder{Path: rel}); err != nil {
				return err
			}
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(NewFile(rel))
	})
}

// Markdown lists every markdown note in the vault.
func (v *Vault) Markdown() ([]File, error) {
	var files []File
	err := v.Walk("", true, func(e Entry) error {
		if f, ok := e.(File); ok && f.Ext == ".md" {
			files = append(files, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func cleanRel(p string) string {
	p = path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
	if p == "." {
		return ""
	}
	return p
}
