package state

import (
	"strings"

	"github.com/google/uuid"

	"github.com/gerunddev/notematrix/internal/hydrate"
	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/mdformat"
	"github.com/gerunddev/notematrix/internal/vault"
)

// edit runs fn under the lock. When fn reports a change the manager
// schedules a save and notifies subscribers once, after the lock is released.
func (s *Manager) edit(op, id string, fn func(m *matrix.Matrix) bool) bool {
	s.mu.Lock()
	if s.lifecycle != Ready || s.m == nil {
		s.mu.Unlock()
		return false
	}
	if !fn(s.m) {
		s.mu.Unlock()
		return false
	}
	s.log.Mutation(s.path, op, id)
	s.scheduleSaveLocked()
	m, fns := s.snapshotLocked()
	s.mu.Unlock()

	notify(m, fns)
	return true
}

// MoveItem moves an item between sections. Moving into Done checks it,
// moving into Todo unchecks it; quadrants leave the flag alone. A nil index
// appends. Moving within one section is a reorder.
func (s *Manager) MoveItem(id string, from, to matrix.Section, index *int) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return s.reorder(id, from, index)
	}

	var moved matrix.Item
	ok := s.edit("move", id, func(m *matrix.Matrix) bool {
		rest, it, found := matrix.RemoveByID(m.Items(from), id)
		if !found {
			return false
		}
		switch to {
		case matrix.SectionDone:
			it.Checked = true
		case matrix.SectionTodo:
			it.Checked = false
		}
		m.ReplaceSection(from, rest)
		m.ReplaceSection(to, matrix.InsertAt(m.Items(to), it, index))
		moved = it
		return true
	})

	if ok && to == matrix.SectionDone && s.opts.OnCompleted != nil {
		s.opts.OnCompleted(moved)
	}
	return ok
}

// ReorderItem moves an item to index within its own section. index refers
// to positions before the item is taken out.
func (s *Manager) ReorderItem(id string, section matrix.Section, index int) bool {
	if !section.IsValid() {
		return false
	}
	return s.reorder(id, section, &index)
}

func (s *Manager) reorder(id string, section matrix.Section, index *int) bool {
	return s.edit("reorder", id, func(m *matrix.Matrix) bool {
		items := m.Items(section)
		to := len(items)
		if index != nil {
			to = *index
		}
		out, found := matrix.MoveWithin(items, id, to)
		if !found || sameOrder(items, out) {
			return false
		}
		m.ReplaceSection(section, out)
		return true
	})
}

func sameOrder(a, b []matrix.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// AddItem inserts a new item. The text is stored the way it reads back
// after a save, so block syntax is escaped and a cross-reference in it makes
// the item a reference. Items added into Done start checked.
func (s *Manager) AddItem(text string, section matrix.Section, index *int) (matrix.Item, bool) {
	ri, ok := mdformat.ParseItem(text, section)
	if !ok {
		return matrix.Item{}, false
	}
	it := hydrate.Item(ri, s.opts.Resolver, s.path)
	it.ID = "item-" + uuid.NewString()

	ok = s.edit("add", it.ID, func(m *matrix.Matrix) bool {
		m.ReplaceSection(section, matrix.InsertAt(m.Items(section), it, index))
		return true
	})
	if !ok {
		return matrix.Item{}, false
	}
	return it, true
}

// RemoveItem deletes an item from a section. A missing item is not an error.
func (s *Manager) RemoveItem(id string, section matrix.Section) bool {
	if !section.IsValid() {
		return false
	}
	return s.edit("remove", id, func(m *matrix.Matrix) bool {
		rest, _, found := matrix.RemoveByID(m.Items(section), id)
		if !found {
			return false
		}
		m.ReplaceSection(section, rest)
		return true
	})
}

// RenameItem changes what an item displays. Plain items get new text;
// references keep their target and get text as alias. Text that would not
// read back the same is refused.
func (s *Manager) RenameItem(id string, section matrix.Section, text string) bool {
	plain, ok := mdformat.ParseItem(text, section)
	if !ok {
		return false
	}
	renamed := hydrate.Item(plain, s.opts.Resolver, s.path)
	alias := strings.Join(strings.Fields(text), " ")

	return s.edit("rename", id, func(m *matrix.Matrix) bool {
		items := m.Items(section)
		i := matrix.IndexOf(items, id)
		if i < 0 {
			return false
		}
		old := items[i]

		next := renamed
		if old.IsReference() {
			ri, ok := mdformat.ParseItem(mdformat.WikiLink(old.Ref, alias), section)
			if !ok || ri.Ref != old.Ref || ri.Alias != alias {
				return false
			}
			next = hydrate.Item(ri, keepResolution(old), s.path)
		}
		if next.TitleRaw == old.TitleRaw {
			return false
		}
		next.ID = old.ID
		next.Checked = old.Checked

		out := make([]matrix.Item, len(items))
		copy(out, items)
		out[i] = next
		m.ReplaceSection(section, out)
		return true
	})
}

// keepResolution answers with what it was already resolved to.
func keepResolution(it matrix.Item) hydrate.Resolver {
	return hydrate.ResolverFunc(func(target, _ string) vault.Resolution {
		if it.File != nil {
			return vault.Resolved{File: *it.File}
		}
		return vault.Unresolved{Target: target}
	})
}

// UpdateSettings applies fn to a copy of the document settings and keeps the
// result if it differs. fn runs under the manager's lock and must not call
// back into it.
func (s *Manager) UpdateSettings(fn func(*matrix.Settings)) bool {
	return s.edit("settings", "", func(m *matrix.Matrix) bool {
		next := m.Settings.Clone()
		fn(&next)
		next = next.Clone()
		if next.Equal(m.Settings) {
			return false
		}
		m.Settings = next
		return true
	})
}

// ImportReferences appends a Todo reference for each note path that is not
// already in the matrix and not exempt. It returns the number added.
func (s *Manager) ImportReferences(paths []string) int {
	added := 0
	s.edit("import", "", func(m *matrix.Matrix) bool {
		var todo []matrix.Item
		seen := make(map[string]bool)
		for _, p := range paths {
			target := strings.TrimSuffix(strings.TrimSpace(p), ".md")
			if target == "" || seen[target] {
				continue
			}
			seen[target] = true
			if m.HasRef(target) || m.Settings.IsExempt(target) {
				continue
			}
			if _, _, exists := m.Find(target); exists {
				continue
			}
			todo = append(todo, hydrate.Item(mdformat.RawItem{
				ID:       target,
				TitleRaw: mdformat.WikiLink(target, ""),
				Ref:      target,
				Section:  matrix.SectionTodo,
			}, s.opts.Resolver, s.path))
		}
		if len(todo) == 0 {
			return false
		}
		items := append([]matrix.Item{}, m.Todo...)
		m.ReplaceSection(matrix.SectionTodo, append(items, todo...))
		added = len(todo)
		return true
	})
	return added
}
