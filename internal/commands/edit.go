package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/styles"
	"github.com/gerunddev/notematrix/internal/sync"
)

var errNoChange = errors.New("nothing changed")

// edit opens a note, applies fn and writes the result on close.
func (e *Env) edit(ctx context.Context, dir, note string, fn func(s *sync.Session) error) error {
	v, err := e.openVault(dir)
	if err != nil {
		return err
	}
	sess, err := e.openSession(ctx, v, note)
	if err != nil {
		return err
	}
	editErr := fn(sess)
	if err := sess.Close(ctx); err != nil {
		return fmt.Errorf("saving %s: %w", sess.Path(), err)
	}
	return editErr
}

// Add appends a plain item to a section.
//
//	notematrix add <note> [--section todo] [--index n] <text...>
func Add(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("add")
	section := fs.StringP("section", "s", "todo", "Section to add to (todo, q1-q4, done)")
	index := fs.IntP("index", "i", -1, "Position in the section (default: end)")
	rest, err := parse(fs, args, 2, "add <note> [--section s] [--index n] <text...>")
	if err != nil {
		return e.fail(err)
	}
	sec, err := parseSection(*section)
	if err != nil {
		return e.fail(err)
	}
	text := strings.Join(rest[1:], " ")

	var added matrix.Item
	err = e.edit(ctx, *dir, rest[0], func(s *sync.Session) error {
		var at *int
		if fs.Changed("index") {
			at = index
		}
		it, ok := s.Manager().AddItem(text, sec, at)
		if !ok {
			return fmt.Errorf("cannot add %q: %w", text, errNoChange)
		}
		added = it
		return nil
	})
	if err != nil {
		return e.fail(err)
	}

	e.println(styles.SuccessStyle.Render(fmt.Sprintf("✓ Added %q to %s", added.Title, sec.Heading())))
	e.println(styles.DimStyle.Render("  id: " + added.ID))
	return 0
}

// Move moves an item to another section or position.
//
//	notematrix move <note> <id> <section> [--index n]
func Move(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("move")
	index := fs.IntP("index", "i", -1, "Position in the target section (default: end)")
	rest, err := parse(fs, args, 3, "move <note> <id> <section> [--index n]")
	if err != nil {
		return e.fail(err)
	}
	id := rest[1]
	to, err := parseSection(rest[2])
	if err != nil {
		return e.fail(err)
	}

	var from matrix.Section
	err = e.edit(ctx, *dir, rest[0], func(s *sync.Session) error {
		mgr := s.Manager()
		_, sec, found := mgr.Snapshot().Find(id)
		if !found {
			return fmt.Errorf("no item with id %q in %s", id, s.Path())
		}
		from = sec

		var at *int
		if fs.Changed("index") {
			at = index
		}
		if !mgr.MoveItem(id, from, to, at) {
			return fmt.Errorf("move %q: %w", id, errNoChange)
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		e.println(styles.DimStyle.Render("Nothing to move"))
		return 0
	}
	if err != nil {
		return e.fail(err)
	}

	e.println(styles.SuccessStyle.Render(fmt.Sprintf("✓ Moved %s: %s → %s", id, from.Heading(), to.Heading())))
	return 0
}

// Remove deletes an item.
//
//	notematrix remove <note> <id>
func Remove(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("remove")
	rest, err := parse(fs, args, 2, "remove <note> <id>")
	if err != nil {
		return e.fail(err)
	}
	id := rest[1]

	err = e.edit(ctx, *dir, rest[0], func(s *sync.Session) error {
		mgr := s.Manager()
		_, sec, found := mgr.Snapshot().Find(id)
		if !found || !mgr.RemoveItem(id, sec) {
			return fmt.Errorf("no item with id %q in %s", id, s.Path())
		}
		return nil
	})
	if err != nil {
		return e.fail(err)
	}

	e.println(styles.SuccessStyle.Render("✓ Removed " + id))
	return 0
}
