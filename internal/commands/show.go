package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gerunddev/notematrix/internal/diff"
	"github.com/gerunddev/notematrix/internal/hydrate"
	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/mdformat"
	"github.com/gerunddev/notematrix/internal/state"
	"github.com/gerunddev/notematrix/internal/styles"
)

// Show prints a matrix note section by section.
//
//	notematrix show <note> [--ids]
func Show(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("show")
	ids := fs.Bool("ids", false, "Show item ids")
	rest, err := parse(fs, args, 1, "show <note> [--ids]")
	if err != nil {
		return e.fail(err)
	}

	v, err := e.openVault(*dir)
	if err != nil {
		return e.fail(err)
	}
	p, err := notePath(v, rest[0])
	if err != nil {
		return e.fail(err)
	}

	mgr := state.New(p, state.Options{Defaults: e.Config.Defaults, Resolver: v, Logger: e.Log})
	if err := mgr.Load(ctx, v); err != nil {
		return e.fail(err)
	}
	m := mgr.Snapshot()

	e.printf("%s  %s\n\n", styles.TitleStyle.Render(p), styles.DimStyle.Render(fmt.Sprintf("%d items", m.Len())))
	for _, sec := range matrix.Sections() {
		title := sec.Heading()
		if q := m.Quadrant(matrix.QuadrantID(sec)); q != nil {
			title += " · " + q.Title
		}
		e.println(styles.HeadingStyle(string(sec)).Render(title))

		items := m.Items(sec)
		if len(items) == 0 {
			e.println(styles.DimStyle.Render("  (empty)"))
		}
		for _, it := range items {
			e.println("  " + describe(it, sec, *ids))
		}
		e.println("")
	}
	return 0
}

func describe(it matrix.Item, sec matrix.Section, withID bool) string {
	var b strings.Builder
	switch {
	case sec.IsBank() && it.Checked:
		b.WriteString("[x] ")
	case sec.IsBank():
		b.WriteString("[ ] ")
	default:
		b.WriteString("• ")
	}

	title := it.Title
	switch {
	case it.IsReference() && it.File != nil:
		title = styles.LinkStyle.Render(title)
	case it.IsReference():
		title = styles.WarningStyle.Render(title + " (missing)")
	}
	b.WriteString(title)

	if withID {
		b.WriteString(styles.DimStyle.Render("  id: " + it.ID))
	}
	return b.String()
}

// Fmt rewrites a matrix note in canonical form.
//
//	notematrix fmt <note> [--check] [--diff] [--plain]
func Fmt(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("fmt")
	check := fs.Bool("check", false, "Exit 1 if the note is not canonical, without writing")
	showDiff := fs.Bool("diff", false, "Print the changes instead of writing them")
	plain := fs.Bool("plain", false, "Print the diff without rendering")
	rest, err := parse(fs, args, 1, "fmt <note> [--check] [--diff] [--plain]")
	if err != nil {
		return e.fail(err)
	}

	v, err := e.openVault(*dir)
	if err != nil {
		return e.fail(err)
	}
	p, err := notePath(v, rest[0])
	if err != nil {
		return e.fail(err)
	}
	text, err := v.Read(ctx, p)
	if err != nil {
		return e.fail(err)
	}
	if !mdformat.IsMatrix(text) {
		return e.fail(fmt.Errorf("%s is not a matrix note", p))
	}

	m := hydrate.FromText(text, e.Config.Defaults, v, p)
	canonical := mdformat.Serialize(m)
	if mdformat.SameContent(m, text) {
		e.println(styles.SuccessStyle.Render("✓ " + p + " is already canonical"))
		return 0
	}

	if *showDiff {
		format := diff.FormatRendered
		if *plain {
			format = diff.FormatPlain
		}
		out, err := diff.Generate(p, text, canonical, format)
		if err != nil {
			return e.fail(err)
		}
		e.printf("%s", out)
	}
	if *check || *showDiff {
		if *check {
			_, _ = fmt.Fprintln(e.ErrOut, styles.WarningStyle.Render("⚠ "+p+" is not canonical"))
			return 1
		}
		return 0
	}

	if err := v.Write(ctx, p, canonical); err != nil {
		return e.fail(err)
	}
	e.println(styles.SuccessStyle.Render("✓ Formatted " + p))
	return 0
}

// List prints every matrix note in the vault.
//
//	notematrix list
func List(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("list")
	if _, err := parse(fs, args, 0, "list"); err != nil {
		return e.fail(err)
	}

	v, err := e.openVault(*dir)
	if err != nil {
		return e.fail(err)
	}
	files, err := v.Markdown()
	if err != nil {
		return e.fail(err)
	}

	found := 0
	for _, f := range files {
		text, err := v.Read(ctx, f.Path)
		if err != nil {
			e.Log.FileError(f.Path, err)
			continue
		}
		if !mdformat.IsMatrix(text) {
			continue
		}
		found++
		m := hydrate.FromText(text, e.Config.Defaults, nil, f.Path)
		e.printf("%s  %s\n", f.Path, styles.DimStyle.Render(fmt.Sprintf("(%d items, %d done)", m.Len(), len(m.Done))))
	}

	if found == 0 {
		e.println(styles.DimStyle.Render("No matrix notes in " + filepath.Base(v.Root())))
	}
	return 0
}
