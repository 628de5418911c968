package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/notematrix/internal/styles"
	"github.com/gerunddev/notematrix/internal/sync"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.Yellow))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(styles.Cyan))
	tableStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(styles.Border))
)

// ScanMsg is sent when the vault scan completes
type ScanMsg struct {
	Result *sync.ScanResult
	Err    error
}

// PreviewMsg carries the text of one note
type PreviewMsg struct {
	Path    string
	Content string
	Err     error
}

// ImportedMsg reports how many references were added
type ImportedMsg struct {
	Count int
}

// ScanFuncs connects the picker to a session.
type ScanFuncs struct {
	// Preview returns the text of a note by link path.
	Preview func(path string) (string, error)
	// Import adds references and returns how many were new.
	Import func(paths []string) int
	// Linked reports whether the matrix already references path.
	Linked func(path string) bool
}

type scanModel struct {
	spinner  spinner.Model
	table    table.Model
	viewport viewport.Model
	funcs    ScanFuncs

	scanning   bool
	result     *sync.ScanResult
	err        error
	picked     map[string]bool
	previewing bool
	preview    string
	imported   int
	importDone bool
}

// InitScanModel creates the picker shown while the vault is scanned and
// afterwards.
func InitScanModel(funcs ScanFuncs) scanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: " ", Width: 3},
			{Title: "Note", Width: 50},
			{Title: "In matrix", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(styles.Background)).
		Background(lipgloss.Color(styles.Yellow)).
		Bold(false)
	t.SetStyles(ts)

	vp := viewport.New(100, 20)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		Padding(1)

	return scanModel{
		spinner:  s,
		table:    t,
		viewport: vp,
		funcs:    funcs,
		scanning: true,
		picked:   make(map[string]bool),
	}
}

func (m scanModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6
		return m, nil

	case ScanMsg:
		m.scanning = false
		m.result = msg.Result
		m.err = msg.Err
		m.setRows()
		return m, nil

	case PreviewMsg:
		if msg.Err != nil {
			m.preview = styles.ErrorStyle.Render("✗ " + msg.Err.Error())
		} else {
			m.preview = msg.Content
		}
		m.viewport.SetContent(m.preview)
		m.viewport.GotoTop()
		return m, nil

	case ImportedMsg:
		m.imported = msg.Count
		m.importDone = true
		m.picked = make(map[string]bool)
		m.setRows()
		return m, nil

	case spinner.TickMsg:
		if m.scanning {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.previewing {
			switch msg.String() {
			case "q", "esc":
				m.previewing = false
				return m, nil
			case "up", "k", "down", "j", "pgup", "pgdown":
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k", "down", "j":
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		case " ", "space":
			if p, ok := m.current(); ok {
				m.picked[p] = !m.picked[p]
				m.setRows()
			}
			return m, nil
		case "enter", "p":
			if p, ok := m.current(); ok {
				m.previewing = true
				m.preview = ""
				return m, m.loadPreview(p)
			}
			return m, nil
		case "i":
			if paths := m.importPaths(); len(paths) > 0 {
				return m, m.doImport(paths)
			}
			return m, nil
		}
	}

	return m, nil
}

func (m scanModel) found() []string {
	if m.result == nil {
		return nil
	}
	return m.result.Found
}

func (m scanModel) current() (string, bool) {
	found := m.found()
	c := m.table.Cursor()
	if c < 0 || c >= len(found) {
		return "", false
	}
	return found[c], true
}

func (m *scanModel) setRows() {
	rows := make([]table.Row, 0, len(m.found()))
	for _, p := range m.found() {
		mark := ""
		if m.picked[p] {
			mark = "●"
		}
		linked := ""
		if m.funcs.Linked != nil && m.funcs.Linked(p) {
			linked = "✓"
		}
		rows = append(rows, table.Row{mark, p, linked})
	}
	m.table.SetRows(rows)
}

// importPaths returns the picked notes, or every note when none are picked.
func (m scanModel) importPaths() []string {
	var paths []string
	for _, p := range m.found() {
		if m.picked[p] {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		paths = append(paths, m.found()...)
	}
	return paths
}

func (m scanModel) loadPreview(path string) tea.Cmd {
	preview := m.funcs.Preview
	return func() tea.Msg {
		if preview == nil {
			return PreviewMsg{Path: path}
		}
		content, err := preview(path)
		return PreviewMsg{Path: path, Content: content, Err: err}
	}
}

func (m scanModel) doImport(paths []string) tea.Cmd {
	imp := m.funcs.Import
	return func() tea.Msg {
		if imp == nil {
			return ImportedMsg{}
		}
		return ImportedMsg{Count: imp(paths)}
	}
}

func (m scanModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Tagged Notes"))
	b.WriteString("\n\n")

	if m.scanning {
		b.WriteString(fmt.Sprintf("%s Scanning vault...\n", m.spinner.View()))
		return b.String()
	}

	if m.err != nil {
		return styles.ErrorStyle.Render("✗ Scan failed: "+m.err.Error()) + "\n"
	}
	if m.result == nil {
		return styles.DimStyle.Render("No scan result") + "\n"
	}

	if m.previewing {
		if p, ok := m.current(); ok {
			b.WriteString(labelStyle.Render(p))
			b.WriteString("\n\n")
		}
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("↑/k up • ↓/j down • esc/q back"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(labelStyle.Render(m.result.String()))
	b.WriteString("\n\n")

	if len(m.found()) == 0 {
		b.WriteString(styles.SuccessStyle.Render("✓ No tagged notes"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("q quit"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(tableStyle.Render(m.table.View()))
	b.WriteString("\n\n")

	if m.importDone {
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ Imported %d note(s)", m.imported)))
		b.WriteString("\n")
	}
	if m.result.Truncated {
		b.WriteString(styles.WarningStyle.Render("⚠ Stopped at maxFiles, some notes were not scanned"))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render("↑/k up • ↓/j down • space pick • enter preview • i import • q quit"))
	b.WriteString("\n")

	return b.String()
}
