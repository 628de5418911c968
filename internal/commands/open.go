package commands

import (
	"context"
	"fmt"
	"os"
	stdatomic "sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/mdformat"
	"github.com/gerunddev/notematrix/internal/styles"
	"github.com/gerunddev/notematrix/internal/sync"
	"github.com/gerunddev/notematrix/internal/tui"
)

// Open edits a matrix note in the terminal UI, following changes made to
// the file by other programs.
//
//	notematrix open <note>
func Open(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("open")
	rest, err := parse(fs, args, 1, "open <note>")
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
	if !v.Exists(p) {
		return e.fail(fmt.Errorf("note %s does not exist (create it with 'notematrix init %s')", p, rest[0]))
	}

	// The session can report a removal before the program exists.
	var program stdatomic.Pointer[tea.Program]
	opts := e.sessionOptions(true)
	opts.OnRemoved = func() {
		if prog := program.Load(); prog != nil {
			prog.Send(tui.FileRemovedMsg{})
		}
	}
	opts.OnError = func(err error) {
		e.Log.Error("background error", "matrix", p, "error", err)
	}

	sess, err := sync.Open(ctx, v, p, opts)
	if err != nil {
		return e.fail(err)
	}

	m := tui.InitMatrixModel(sess.Manager(), e.Config.RenderDebounce)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(os.Stdin))
	program.Store(prog)
	unsubscribe := tui.Subscribe(prog, sess.Manager())
	if sess.Removed() {
		go prog.Send(tui.FileRemovedMsg{})
	}

	_, runErr := prog.Run()
	unsubscribe()
	program.Store(nil)

	if err := sess.Close(ctx); err != nil {
		return e.fail(fmt.Errorf("saving %s: %w", p, err))
	}
	if runErr != nil {
		return e.fail(runErr)
	}
	return 0
}

// Scan lists the notes carrying the todo tag. With --import they are added
// to the Todo bank; with --pick they are chosen interactively.
//
//	notematrix scan <note> [--import | --pick]
func Scan(ctx context.Context, e *Env, args []string) (code int) {
	fs, dir := newFlags("scan")
	doImport := fs.Bool("import", false, "Add every tagged note to the Todo bank")
	pick := fs.Bool("pick", false, "Choose the notes to add interactively")
	rest, err := parse(fs, args, 1, "scan <note> [--import | --pick]")
	if err != nil {
		return e.fail(err)
	}
	if *doImport && *pick {
		return e.fail(fmt.Errorf("--import and --pick cannot be combined"))
	}

	v, err := e.openVault(*dir)
	if err != nil {
		return e.fail(err)
	}
	sess, err := e.openSession(ctx, v, rest[0])
	if err != nil {
		return e.fail(err)
	}
	defer func() {
		if err := sess.Close(ctx); err != nil {
			code = e.fail(fmt.Errorf("saving %s: %w", sess.Path(), err))
		}
	}()

	if *pick {
		return e.pick(ctx, sess)
	}

	if *doImport {
		result, added, err := sess.ImportTagged(ctx)
		if err != nil {
			return e.fail(err)
		}
		e.println(result.String())
		e.println(styles.SuccessStyle.Render(fmt.Sprintf("✓ Imported %d note(s)", added)))
		return 0
	}

	result, err := sess.ScanTagged(ctx)
	if err != nil {
		return e.fail(err)
	}
	e.println(result.String())
	snap := sess.Manager().Snapshot()
	for _, p := range result.Found {
		mark := " "
		if snap.HasRef(p) {
			mark = styles.SuccessStyle.Render("✓")
		}
		e.printf("  %s %s\n", mark, p)
	}
	if result.Truncated {
		e.println(styles.WarningStyle.Render("⚠ Stopped at maxFiles"))
	}
	return 0
}

func (e *Env) pick(ctx context.Context, sess *sync.Session) int {
	mgr := sess.Manager()
	m := tui.InitScanModel(tui.ScanFuncs{
		Preview: func(p string) (string, error) {
			return sess.Vault().Read(ctx, p+".md")
		},
		Import: mgr.ImportReferences,
		Linked: func(p string) bool {
			snap := mgr.Snapshot()
			return snap != nil && snap.HasRef(p)
		},
	})
	prog := tea.NewProgram(m, tea.WithInput(os.Stdin))

	go func() {
		result, err := sess.ScanTagged(ctx)
		prog.Send(tui.ScanMsg{Result: result, Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		return e.fail(err)
	}
	return 0
}

// Init creates a new, empty matrix note.
//
//	notematrix init <note> [--tag t] [--include folder] [--force]
func Init(ctx context.Context, e *Env, args []string) int {
	fs, dir := newFlags("init")
	tag := fs.String("tag", "", "Todo tag to scan for (default from config)")
	include := fs.String("include", "", "Folder to scan (default: whole vault)")
	force := fs.BoolP("force", "f", false, "Overwrite an existing note")
	rest, err := parse(fs, args, 1, "init <note> [--tag t] [--include folder] [--force]")
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
	if v.Exists(p) && !*force {
		return e.fail(fmt.Errorf("%s already exists (use --force to overwrite)", p))
	}

	settings := e.Config.Defaults.Clone()
	if *tag != "" {
		settings.TodoTag = *tag
	}
	if *include != "" {
		settings.IncludePath = *include
	}

	if err := v.Write(ctx, p, mdformat.Serialize(matrix.New(p, settings))); err != nil {
		return e.fail(err)
	}
	e.println(styles.SuccessStyle.Render("✓ Created " + p))
	e.println(styles.DimStyle.Render(fmt.Sprintf("  Run 'notematrix scan %s --import' to collect notes tagged %s", rest[0], settings.TodoTag)))
	return 0
}
