package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/state"
	"github.com/gerunddev/notematrix/internal/styles"
)

// Editor is the part of state.Manager the grid drives.
type Editor interface {
	Snapshot() *matrix.Matrix
	Status() state.Status
	MoveItem(id string, from, to matrix.Section, index *int) bool
	ReorderItem(id string, section matrix.Section, index int) bool
	AddItem(text string, section matrix.Section, index *int) (matrix.Item, bool)
	RemoveItem(id string, section matrix.Section) bool
	Save(ctx context.Context) error
}

// StateChangedMsg carries a snapshot published by the manager.
type StateChangedMsg struct {
	Matrix *matrix.Matrix
}

// SavedMsg is sent when an explicit save finishes.
type SavedMsg struct {
	Err error
}

// FileRemovedMsg is sent when the document disappears from disk.
type FileRemovedMsg struct{}

// renderMsg fires once the render debounce has elapsed. Only the newest
// generation is applied.
type renderMsg struct {
	gen int
}

// matrixModel is the Bubble Tea model for the matrix grid
type matrixModel struct {
	editor   Editor
	debounce time.Duration

	shown   *matrix.Matrix
	pending *matrix.Matrix
	gen     int

	sections []matrix.Section
	focus    int
	cursor   []int

	adding bool
	input  textinput.Model

	notice    string
	noticeErr bool
	removed   bool

	width  int
	height int
}

// InitMatrixModel creates the grid for an editor. Snapshots published
// through StateChangedMsg are rendered after debounce; zero renders at once.
func InitMatrixModel(ed Editor, debounce time.Duration) matrixModel {
	ti := textinput.New()
	ti.Placeholder = "New item"
	ti.CharLimit = 500
	ti.Width = 50

	sections := matrix.Sections()
	return matrixModel{
		editor:   ed,
		debounce: debounce,
		shown:    ed.Snapshot(),
		sections: sections,
		cursor:   make([]int, len(sections)),
		input:    ti,
		width:    100,
	}
}

// Subscribe forwards manager notifications into a running program.
func Subscribe(p *tea.Program, mgr *state.Manager) func() {
	return mgr.Subscribe(func(m *matrix.Matrix) {
		p.Send(StateChangedMsg{Matrix: m})
	})
}

func (m matrixModel) Init() tea.Cmd {
	return nil
}

func (m matrixModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateChangedMsg:
		m.pending = msg.Matrix
		m.gen++
		if m.debounce <= 0 {
			m.shown, m.pending = m.pending, nil
			return m, nil
		}
		gen := m.gen
		return m, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return renderMsg{gen: gen}
		})

	case renderMsg:
		if msg.gen == m.gen && m.pending != nil {
			m.shown, m.pending = m.pending, nil
		}
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			m.setNotice("Save failed: "+msg.Err.Error(), true)
		} else {
			m.setNotice("Saved", false)
		}
		return m, nil

	case FileRemovedMsg:
		m.removed = true
		m.setNotice("File was deleted on disk, edits will not be saved", true)
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m matrixModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	case "enter":
		text := m.input.Value()
		m.adding = false
		m.input.Blur()
		m.input.SetValue("")
		sec := m.section()
		if _, ok := m.editor.AddItem(text, sec, nil); ok {
			m.refresh()
			m.cursor[m.focus] = len(m.shown.Items(sec)) - 1
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m matrixModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab", "l", "right":
		m.focus = (m.focus + 1) % len(m.sections)
	case "shift+tab", "h", "left":
		m.focus = (m.focus + len(m.sections) - 1) % len(m.sections)
	case "j", "down":
		m.cursor[m.focus] = m.clampCursor(m.cursor[m.focus] + 1)
	case "k", "up":
		m.cursor[m.focus] = m.clampCursor(m.cursor[m.focus] - 1)

	case "J", "shift+down":
		m.reorder(2)
	case "K", "shift+up":
		m.reorder(-1)

	case "1":
		m.moveTo(matrix.SectionQ1)
	case "2":
		m.moveTo(matrix.SectionQ2)
	case "3":
		m.moveTo(matrix.SectionQ3)
	case "4":
		m.moveTo(matrix.SectionQ4)
	case "t":
		m.moveTo(matrix.SectionTodo)
	case "d":
		m.moveTo(matrix.SectionDone)

	case "a":
		m.adding = true
		cmd := m.input.Focus()
		return m, cmd
	case "x":
		if it, ok := m.selected(); ok && m.editor.RemoveItem(it.ID, m.section()) {
			m.refresh()
			m.cursor[m.focus] = m.clampCursor(m.cursor[m.focus])
		}
	case "s":
		if m.removed {
			m.setNotice("File is gone, nothing to save", true)
			return m, nil
		}
		return m, m.save()
	}

	return m, nil
}

func (m *matrixModel) section() matrix.Section {
	return m.sections[m.focus]
}

func (m *matrixModel) items(sec matrix.Section) []matrix.Item {
	if m.shown == nil {
		return nil
	}
	return m.shown.Items(sec)
}

func (m *matrixModel) clampCursor(c int) int {
	n := len(m.items(m.section()))
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func (m *matrixModel) selected() (matrix.Item, bool) {
	items := m.items(m.section())
	c := m.cursor[m.focus]
	if c < 0 || c >= len(items) {
		return matrix.Item{}, false
	}
	return items[c], true
}

// refresh shows the editor's current matrix and drops any pending render,
// which can only be older.
func (m *matrixModel) refresh() {
	m.shown = m.editor.Snapshot()
	m.pending = nil
	m.gen++
}

func (m *matrixModel) moveTo(to matrix.Section) {
	it, ok := m.selected()
	if !ok || to == m.section() {
		return
	}
	if m.editor.MoveItem(it.ID, m.section(), to, nil) {
		m.refresh()
		m.cursor[m.focus] = m.clampCursor(m.cursor[m.focus])
	}
}

// reorder moves the selected item by delta, expressed as an index against
// the list before the item is removed.
func (m *matrixModel) reorder(delta int) {
	it, ok := m.selected()
	if !ok {
		return
	}
	c := m.cursor[m.focus]
	if c+delta < 0 {
		return
	}
	if m.editor.ReorderItem(it.ID, m.section(), c+delta) {
		m.refresh()
		m.cursor[m.focus] = m.clampCursor(matrix.IndexOf(m.items(m.section()), it.ID))
	}
}

func (m *matrixModel) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m matrixModel) save() tea.Cmd {
	ed := m.editor
	return func() tea.Msg {
		return SavedMsg{Err: ed.Save(context.Background())}
	}
}

func (m matrixModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("NoteMatrix"))
	if m.shown != nil {
		b.WriteString("  " + styles.DimStyle.Render(m.shown.ID))
	}
	b.WriteString("\n\n")

	if m.shown == nil {
		b.WriteString(styles.DimStyle.Render("No matrix loaded"))
		b.WriteString("\n")
		return b.String()
	}

	full := m.width - 2
	if full < 40 {
		full = 40
	}
	half := full/2 - 1

	b.WriteString(m.renderCell(matrix.SectionTodo, full))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCell(matrix.SectionQ1, half), m.renderCell(matrix.SectionQ2, half)))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCell(matrix.SectionQ3, half), m.renderCell(matrix.SectionQ4, half)))
	b.WriteString("\n")
	b.WriteString(m.renderCell(matrix.SectionDone, full))
	b.WriteString("\n")

	if m.adding {
		b.WriteString(fmt.Sprintf("Add to %s: %s\n", m.section().Heading(), m.input.View()))
		b.WriteString(styles.HelpStyle.Render("enter add • esc cancel"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(styles.DimStyle.Render(m.editor.Status().String()))
	b.WriteString("\n")
	if m.notice != "" {
		if m.noticeErr {
			b.WriteString(styles.ErrorStyle.Render("✗ " + m.notice))
		} else {
			b.WriteString(styles.SuccessStyle.Render("✓ " + m.notice))
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render("tab/h/l section • j/k select • J/K reorder • 1-4 quadrant • t todo • d done • a add • x remove • s save • q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m matrixModel) cellTitle(sec matrix.Section) string {
	if q := m.shown.Quadrant(matrix.QuadrantID(sec)); q != nil {
		return fmt.Sprintf("%s · %s", sec.Heading(), q.Title)
	}
	return sec.Heading()
}

func (m matrixModel) renderCell(sec matrix.Section, width int) string {
	focused := m.section() == sec
	strike := m.shown.Settings.EnableStrikethroughOnDone

	var lines []string
	lines = append(lines, styles.HeadingStyle(string(sec)).Render(m.cellTitle(sec)))

	items := m.shown.Items(sec)
	if len(items) == 0 {
		lines = append(lines, styles.DimStyle.Render("(empty)"))
	}
	for i, it := range items {
		line := itemLine(it, sec)
		switch {
		case focused && i == m.cursor[m.focus]:
			line = styles.SelectedStyle.Render(line)
		case sec == matrix.SectionDone && strike:
			line = styles.StrikethroughStyle.Render(line)
		case sec == matrix.SectionDone:
			line = styles.DoneTextStyle.Render(line)
		case it.IsReference() && it.File != nil:
			line = styles.LinkStyle.Render(line)
		default:
			line = styles.NormalTextStyle.Render(line)
		}
		lines = append(lines, line)
	}

	style := styles.CellStyle
	if focused {
		style = styles.FocusedCellStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func itemLine(it matrix.Item, sec matrix.Section) string {
	title := it.Title
	if it.IsReference() && it.File == nil {
		title += " (missing)"
	}
	if sec.IsBank() {
		if it.Checked {
			return "[x] " + title
		}
		return "[ ] " + title
	}
	return "• " + title
}
