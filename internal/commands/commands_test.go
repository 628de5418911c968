package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gerunddev/notematrix/internal/config"
	"github.com/gerunddev/notematrix/internal/logger"
	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/mdformat"
	"github.com/gerunddev/notematrix/internal/vault"
)

type testEnv struct {
	*Env
	dir    string
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.VaultDir = dir
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		Env:    &Env{Out: out, ErrOut: errOut, Config: cfg, Log: logger.Discard()},
		dir:    dir,
		out:    out,
		errOut: errOut,
	}
}

func (te *testEnv) run(t *testing.T, cmd func(context.Context, *Env, []string) int, args ...string) int {
	t.Helper()
	te.out.Reset()
	te.errOut.Reset()
	return cmd(context.Background(), te.Env, args)
}

func (te *testEnv) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(te.dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestInit(t *testing.T) {
	te := newTestEnv(t, nil)

	if code := te.run(t, Init, "plans/weekly", "--tag", "#next"); code != 0 {
		t.Fatalf("init failed: %s", te.errOut.String())
	}
	text := te.read(t, "plans/weekly.md")
	if !mdformat.HasMarker(text) {
		t.Errorf("new note should carry the marker:\n%s", text)
	}
	if !strings.Contains(text, `"todoTag": "#next"`) {
		t.Errorf("tag override missing:\n%s", text)
	}

	if code := te.run(t, Init, "plans/weekly"); code != 1 {
		t.Error("init should refuse to overwrite")
	}
	if !strings.Contains(te.errOut.String(), "already exists") {
		t.Errorf("unexpected error output: %s", te.errOut.String())
	}

	if code := te.run(t, Init, "plans/weekly", "--force"); code != 0 {
		t.Errorf("init --force failed: %s", te.errOut.String())
	}
}

func TestAddMoveRemove(t *testing.T) {
	te := newTestEnv(t, map[string]string{
		"weekly.md": "## TODO\n\n- [ ] alpha\n- [ ] beta\n",
	})

	if code := te.run(t, Add, "weekly", "--section", "q2", "plan", "the", "week"); code != 0 {
		t.Fatalf("add failed: %s", te.errOut.String())
	}
	if !strings.Contains(te.out.String(), "id: item-") {
		t.Errorf("add should print the new id: %s", te.out.String())
	}
	if text := te.read(t, "weekly.md"); !strings.Contains(text, "## Q2\n\n- plan the week\n") {
		t.Errorf("added item missing:\n%s", text)
	}

	if code := te.run(t, Move, "weekly", "alpha", "do"); code != 0 {
		t.Fatalf("move failed: %s", te.errOut.String())
	}
	text := te.read(t, "weekly.md")
	if !strings.Contains(text, "## TODO\n\n- [ ] beta\n") || !strings.Contains(text, "## Q1\n\n- alpha\n") {
		t.Errorf("move not written:\n%s", text)
	}

	if code := te.run(t, Move, "weekly", "beta", "done"); code != 0 {
		t.Fatalf("move to done failed: %s", te.errOut.String())
	}
	if text := te.read(t, "weekly.md"); !strings.Contains(text, "## DONE\n\n- [x] beta\n") {
		t.Errorf("done item should be checked:\n%s", text)
	}

	if code := te.run(t, Remove, "weekly", "alpha"); code != 0 {
		t.Fatalf("remove failed: %s", te.errOut.String())
	}
	if text := te.read(t, "weekly.md"); strings.Contains(text, "alpha") {
		t.Errorf("removed item still present:\n%s", text)
	}
}

func TestEditErrors(t *testing.T) {
	te := newTestEnv(t, map[string]string{
		"weekly.md": "## TODO\n\n- [ ] alpha\n",
	})

	tests := []struct {
		name string
		cmd  func(context.Context, *Env, []string) int
		args []string
		want string
	}{
		{"missing args", Move, []string{"weekly", "alpha"}, "usage: notematrix move"},
		{"unknown item", Move, []string{"weekly", "ghost", "q1"}, `no item with id "ghost"`},
		{"unknown section", Move, []string{"weekly", "alpha", "someday"}, `unknown section "someday"`},
		{"missing note", Remove, []string{"monthly", "alpha"}, "does not exist"},
		{"bad flag", Add, []string{"weekly", "--nope", "x"}, "unknown flag"},
		{"escaping path", Remove, []string{"../outside", "alpha"}, "escapes vault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := te.run(t, tt.cmd, tt.args...); code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(te.errOut.String(), tt.want) {
				t.Errorf("error output %q should contain %q", te.errOut.String(), tt.want)
			}
		})
	}

	if text := te.read(t, "weekly.md"); text != "## TODO\n\n- [ ] alpha\n" {
		t.Errorf("failed commands should not rewrite the note:\n%s", text)
	}
}

func TestMoveSameSectionReorders(t *testing.T) {
	te := newTestEnv(t, map[string]string{
		"weekly.md": "## Q2\n\n- a\n- b\n- c\n",
	})

	if code := te.run(t, Move, "weekly", "a", "q2", "--index", "3"); code != 0 {
		t.Fatalf("move failed: %s", te.errOut.String())
	}
	if text := te.read(t, "weekly.md"); !strings.Contains(text, "## Q2\n\n- b\n- c\n- a\n") {
		t.Errorf("reorder not written:\n%s", text)
	}

	if code := te.run(t, Move, "weekly", "a", "q2"); code != 0 {
		t.Fatalf("no-op move failed: %s", te.errOut.String())
	}
	if !strings.Contains(te.out.String(), "Nothing to move") {
		t.Errorf("unexpected output: %s", te.out.String())
	}
}

func TestShow(t *testing.T) {
	te := newTestEnv(t, map[string]string{
		"weekly.md":    "## TODO\n\n- [ ] [[notes/call]]\n- [ ] [[gone]]\n\n## Q3\n\n- email\n",
		"notes/call.md": "# Call\n",
	})

	if code := te.run(t, Show, "weekly", "--ids"); code != 0 {
		t.Fatalf("show failed: %s", te.errOut.String())
	}
	out := te.out.String()
	for _, want := range []string{"weekly.md", "3 items", "Q1 · Do", "Q3 · Delegate", "[ ] call", "gone (missing)", "• email", "id: notes/call", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestFmt(t *testing.T) {
	const messy = "## todo\n\n* [ ] alpha\n\n## Q1\n- beta\n"
	te := newTestEnv(t, map[string]string{
		"weekly.md": messy,
		"plain.md":  "# Just a note\n",
	})

	if code := te.run(t, Fmt, "weekly", "--check"); code != 1 {
		t.Errorf("--check should fail on a messy note, got %d", code)
	}
	if te.read(t, "weekly.md") != messy {
		t.Error("--check must not write")
	}

	if code := te.run(t, Fmt, "weekly", "--diff", "--plain"); code != 0 {
		t.Fatalf("--diff failed: %s", te.errOut.String())
	}
	if out := te.out.String(); !strings.Contains(out, "+- [ ] alpha") || !strings.Contains(out, "weekly.md (canonical)") {
		t.Errorf("unexpected diff:\n%s", out)
	}

	if code := te.run(t, Fmt, "weekly"); code != 0 {
		t.Fatalf("fmt failed: %s", te.errOut.String())
	}
	if code := te.run(t, Fmt, "weekly", "--check"); code != 0 {
		t.Errorf("formatted note should pass --check: %s", te.errOut.String())
	}
	if !strings.Contains(te.out.String(), "already canonical") {
		t.Errorf("unexpected output: %s", te.out.String())
	}

	if code := te.run(t, Fmt, "plain"); code != 1 {
		t.Error("fmt should refuse a note that is not a matrix")
	}
}

func TestScan(t *testing.T) {
	te := newTestEnv(t, map[string]string{
		"weekly.md":         "## TODO\n\n- [ ] [[notes/b]]\n",
		"notes/a.md":        "call the bank #todo\n",
		"notes/b.md":        "#todo write report\n",
		"notes/c.md":        "nothing here #todos\n",
		"archive/old.md":    "#todo stale\n",
		".hidden/secret.md": "#todo\n",
	})

	if code := te.run(t, Scan, "weekly"); code != 0 {
		t.Fatalf("scan failed: %s", te.errOut.String())
	}
	out := te.out.String()
	for _, want := range []string{"3 tagged notes", "notes/a", "✓ notes/b", "archive/old"} {
		if !strings.Contains(out, want) {
			t.Errorf("scan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "notes/c") || strings.Contains(out, "secret") {
		t.Errorf("scan matched too much:\n%s", out)
	}

	if code := te.run(t, Scan, "weekly", "--import"); code != 0 {
		t.Fatalf("scan --import failed: %s", te.errOut.String())
	}
	if !strings.Contains(te.out.String(), "Imported 2 note(s)") {
		t.Errorf("unexpected output: %s", te.out.String())
	}
	text := te.read(t, "weekly.md")
	for _, want := range []string{"- [ ] [[notes/b]]\n- [ ] [[archive/old]]\n- [ ] [[notes/a]]\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("imported references missing:\n%s", text)
		}
	}

	if code := te.run(t, Scan, "weekly", "--import", "--pick"); code != 1 {
		t.Error("--import and --pick should conflict")
	}
}

func TestList(t *testing.T) {
	te := newTestEnv(t, map[string]string{
		"weekly.md":      "## TODO\n\n- [ ] a\n\n## DONE\n\n- [x] b\n",
		"notes/plain.md": "# plain\n",
	})

	if code := te.run(t, List); code != 0 {
		t.Fatalf("list failed: %s", te.errOut.String())
	}
	out := te.out.String()
	if !strings.Contains(out, "weekly.md") || !strings.Contains(out, "(2 items, 1 done)") {
		t.Errorf("unexpected list output:\n%s", out)
	}
	if strings.Contains(out, "plain.md") {
		t.Errorf("plain notes should not be listed:\n%s", out)
	}
}

func TestVaultOverride(t *testing.T) {
	te := newTestEnv(t, nil)
	other := t.TempDir()

	if code := te.run(t, Init, "weekly", "--vault", other); code != 0 {
		t.Fatalf("init failed: %s", te.errOut.String())
	}
	if _, err := os.Stat(filepath.Join(other, "weekly.md")); err != nil {
		t.Errorf("note should be created in the override vault: %v", err)
	}

	if code := te.run(t, List, "--vault", filepath.Join(other, "missing")); code != 1 {
		t.Error("missing vault should fail")
	}
}

func TestParseSection(t *testing.T) {
	tests := []struct {
		input   string
		want    matrix.Section
		wantErr bool
	}{
		{"todo", matrix.SectionTodo, false},
		{"Q3", matrix.SectionQ3, false},
		{"done", matrix.SectionDone, false},
		{"schedule", matrix.SectionQ2, false},
		{"Eliminate", matrix.SectionQ4, false},
		{"none", matrix.SectionNone, true},
		{"", matrix.SectionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSection(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSection(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseSection(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNotePath(t *testing.T) {
	dir := t.TempDir()
	v, err := vault.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		input string
		want  string
		err   error
	}{
		{"weekly", "weekly.md", nil},
		{"plans/weekly.md", "plans/weekly.md", nil},
		{filepath.Join(dir, "abs.md"), "abs.md", nil},
		{"../escape", "", vault.ErrPathEscape},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := notePath(v, tt.input)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("notePath(%q) error = %v, want %v", tt.input, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("notePath(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("notePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
