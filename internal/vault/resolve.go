package vault

import (
	"path"
	"sort"
	"strings"
)

// index maps lowercase paths and basenames to notes.
type index struct {
	byPath map[string]File
	byName map[string][]File
}

func buildIndex(files []File) *index {
	idx := &index{
		byPath: make(map[string]File, len(files)),
		byName: make(map[string][]File),
	}
	for _, f := range files {
		idx.byPath[strings.ToLower(f.Path)] = f
		name := strings.ToLower(f.Name)
		idx.byName[name] = append(idx.byName[name], f)
	}
	for name := range idx.byName {
		sort.Slice(idx.byName[name], func(i, j int) bool {
			a, b := idx.byName[name][i].Path, idx.byName[name][j].Path
			if len(a) != len(b) {
				return len(a) < len(b)
			}
			return a < b
		})
	}
	return idx
}

func (v *Vault) invalidate() {
	v.mu.Lock()
	v.index = nil
	v.mu.Unlock()
}

// Refresh rebuilds the name index from disk.
func (v *Vault) Refresh() error {
	files, err := v.Markdown()
	if err != nil {
		return err
	}
	idx := buildIndex(files)
	v.mu.Lock()
	v.index = idx
	v.mu.Unlock()
	return nil
}

func (v *Vault) currentIndex() *index {
	v.mu.RLock()
	idx := v.index
	v.mu.RUnlock()
	if idx != nil {
		return idx
	}
	if err := v.Refresh(); err != nil {
		return buildIndex(nil)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.index
}

// Resolve finds the note a [[target]] refers to, the way the host resolves
// its own links: the path relative to the referring note first, then the path
// from the vault root, then the shortest note whose basename matches.
func (v *Vault) Resolve(target, basePath string) Resolution {
	return resolve(v.currentIndex(), target, basePath)
}

func resolve(idx *index, target, basePath string) Resolution {
	t := linkTarget(target)
	if t == "" {
		return Unresolved{Target: target}
	}

	candidates := []string{t}
	if path.Ext(t) == "" {
		candidates = []string{t + ".md", t}
	}

	baseDir := path.Dir(cleanRel(basePath))
	for _, c := range candidates {
		if baseDir != "." && baseDir != "" {
			if f, ok := idx.byPath[strings.ToLower(path.Join(baseDir, c))]; ok {
				return Resolved{File: f}
			}
		}
		if f, ok := idx.byPath[strings.ToLower(cleanRel(c))]; ok {
			return Resolved{File: f}
		}
	}

	// Bare names match by basename anywhere in the vault.
	if !strings.Contains(t, "/") {
		name := strings.ToLower(strings.TrimSuffix(t, ".md"))
		matches := idx.byName[name]
		for _, f := range matches {
			if path.Dir(f.Path) == baseDir {
				return Resolved{File: f}
			}
		}
		if len(matches) > 0 {
			return Resolved{File: matches[0]}
		}
	}

	return Unresolved{Target: target}
}

// linkTarget strips heading and block anchors from a link target.
func linkTarget(target string) string {
	t := strings.TrimSpace(target)
	if i := strings.IndexAny(t, "#^"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
