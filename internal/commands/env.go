// Package commands implements the notematrix subcommands. Each command takes
// its arguments after the command name and returns a process exit code.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/gerunddev/notematrix/internal/config"
	"github.com/gerunddev/notematrix/internal/logger"
	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/styles"
	"github.com/gerunddev/notematrix/internal/sync"
	"github.com/gerunddev/notematrix/internal/vault"
)

// Env is what every command runs against.
type Env struct {
	Out    io.Writer
	ErrOut io.Writer
	Config *config.Config
	Log    *logger.Logger
}

// Setup loads the configuration and opens the log file. The returned cleanup
// closes the log.
func Setup(out, errOut io.Writer) (*Env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.Discard()
	cleanup := func() {}
	if cfg.LogFile != "" {
		l, c, err := logger.NewFileLogger(cfg.LogFile, cfg.Debug)
		if err == nil {
			log, cleanup = l, c
		}
	}
	log.ConfigLoaded(cfg.VaultDir, cfg.SaveDebounce)

	return &Env{Out: out, ErrOut: errOut, Config: cfg, Log: log}, cleanup, nil
}

func (e *Env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.Out, format, args...)
}

func (e *Env) println(s string) {
	_, _ = fmt.Fprintln(e.Out, s)
}

// fail reports err and returns the failure exit code.
func (e *Env) fail(err error) int {
	_, _ = fmt.Fprintln(e.ErrOut, styles.ErrorStyle.Render("✗ Error: "+err.Error()))
	return 1
}

// newFlags returns a flag set that reports errors instead of printing them.
// Every command accepts --vault to override the configured directory.
func newFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dir := fs.String("vault", "", "Vault directory (overrides config)")
	return fs, dir
}

// parse parses args and checks the number of positional arguments.
func parse(fs *flag.FlagSet, args []string, min int, usage string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", fs.Name(), err)
	}
	rest := fs.Args()
	if len(rest) < min {
		return nil, fmt.Errorf("usage: notematrix %s", usage)
	}
	return rest, nil
}

func (e *Env) openVault(override string) (*vault.Vault, error) {
	dir := e.Config.VaultDir
	if override != "" {
		dir = override
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("vault directory %s does not exist", dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault path %s is not a directory", dir)
	}
	return vault.New(dir)
}

// notePath maps a command-line note argument to a vault-relative path. The
// .md extension is optional and absolute paths must lie inside the vault.
func notePath(v *vault.Vault, arg string) (string, error) {
	p := arg
	if filepath.IsAbs(p) {
		rel, err := v.Rel(p)
		if err != nil {
			return "", err
		}
		p = rel
	}
	p = filepath.ToSlash(p)
	if filepath.Ext(p) == "" {
		p += ".md"
	}
	if _, err := v.Abs(p); err != nil {
		return "", err
	}
	return p, nil
}

func (e *Env) sessionOptions(watch bool) sync.Options {
	return sync.Options{
		Defaults:     e.Config.Defaults,
		Logger:       e.Log,
		SaveDebounce: e.Config.SaveDebounce,
		EchoGrace:    e.Config.EchoGrace,
		Watch:        watch,
	}
}

// openSession opens the note named by arg without watching it.
func (e *Env) openSession(ctx context.Context, v *vault.Vault, arg string) (*sync.Session, error) {
	p, err := notePath(v, arg)
	if err != nil {
		return nil, err
	}
	if !v.Exists(p) {
		return nil, fmt.Errorf("note %s does not exist (create it with 'notematrix init %s')", p, arg)
	}
	return sync.Open(ctx, v, p, e.sessionOptions(false))
}

// parseSection accepts a section name or a quadrant title.
func parseSection(arg string) (matrix.Section, error) {
	if s := matrix.ParseSection(arg); s != matrix.SectionNone {
		return s, nil
	}
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "do":
		return matrix.SectionQ1, nil
	case "schedule":
		return matrix.SectionQ2, nil
	case "delegate":
		return matrix.SectionQ3, nil
	case "eliminate":
		return matrix.SectionQ4, nil
	}
	return matrix.SectionNone, fmt.Errorf("unknown section %q (todo, q1-q4, done)", arg)
}
