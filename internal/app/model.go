package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"notable/internal/reconcile"
	"notable/internal/types"
)

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeEdit
)

type editFocus int

const (
	focusTitle editFocus = iota
	focusContent
)

// Model is the terminal UI over a reconciliation coordinator. All note data
// flows through coordinator snapshots; the model never mutates notes itself.
type Model struct {
	coordinator *reconcile.Coordinator
	state       reconcile.State

	mode   mode
	cursor int
	width  int
	height int

	spinner     spinner.Model
	viewport    viewport.Model
	filterInput textinput.Model
	titleInput  textinput.Model
	contentArea textarea.Model
	focus       editFocus

	status string
}

func NewModel(coordinator *reconcile.Coordinator) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	filter := textinput.New()
	filter.Placeholder = "Filter by title..."

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200

	content := textarea.New()
	content.Placeholder = "Write your note..."

	return &Model{
		coordinator: coordinator,
		spinner:     sp,
		viewport:    viewport.New(0, 0),
		filterInput: filter,
		titleInput:  title,
		contentArea: content,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(activateCmd(m.coordinator), m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshDetail()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateMsg:
		m.applyState(msg.state)
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, keys.Add):
		m.status = ""
		return m, addNoteCmd(m.coordinator)
	case key.Matches(msg, keys.Delete):
		m.status = ""
		return m, deleteNoteCmd(m.coordinator)
	case key.Matches(msg, keys.Edit):
		return m.enterEdit()
	case key.Matches(msg, keys.Filter):
		m.mode = modeFilter
		m.filterInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.Copy):
		if m.state.Selected != nil {
			return m, copyCmd(m.state.Selected.Content)
		}
		return m, nil
	case key.Matches(msg, keys.Cancel):
		m.status = ""
		m.applyState(m.coordinator.ClearError())
		return m, nil
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.mode = modeBrowse
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.applyState(m.coordinator.SetFilter(""))
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = modeBrowse
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyState(m.coordinator.SetFilter(m.filterInput.Value()))
	return m, cmd
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.mode = modeBrowse
		m.titleInput.Blur()
		m.contentArea.Blur()
		return m, nil
	case key.Matches(msg, keys.Save):
		draft := types.NoteDraft{
			Title:   m.titleInput.Value(),
			Content: m.contentArea.Value(),
		}
		m.mode = modeBrowse
		m.titleInput.Blur()
		m.contentArea.Blur()
		m.status = ""
		return m, saveNoteCmd(m.coordinator, draft)
	case msg.Type == tea.KeyTab:
		m.toggleEditFocus()
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.contentArea, cmd = m.contentArea.Update(msg)
	}
	return m, cmd
}

func (m *Model) enterEdit() (tea.Model, tea.Cmd) {
	selected := m.state.Selected
	if selected == nil {
		return m, nil
	}
	m.mode = modeEdit
	m.focus = focusTitle
	m.titleInput.SetValue(selected.Title)
	m.contentArea.SetValue(selected.Content)
	m.contentArea.Blur()
	m.titleInput.Focus()
	return m, textinput.Blink
}

func (m *Model) toggleEditFocus() {
	if m.focus == focusTitle {
		m.focus = focusContent
		m.titleInput.Blur()
		m.contentArea.Focus()
		return
	}
	m.focus = focusTitle
	m.contentArea.Blur()
	m.titleInput.Focus()
}

func (m *Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if len(m.state.Notes) == 0 {
		return m, nil
	}
	next := m.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(m.state.Notes)-1 {
		next = len(m.state.Notes) - 1
	}
	if next == m.cursor {
		return m, nil
	}
	m.cursor = next
	return m, selectNoteCmd(m.coordinator, m.state.Notes[next].ID)
}

// applyState installs a coordinator snapshot and realigns the cursor with the
// selection it carries.
func (m *Model) applyState(state reconcile.State) {
	m.state = state
	m.cursor = 0
	for i, note := range state.Notes {
		if note.ID == state.SelectedID {
			m.cursor = i
			break
		}
	}
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	if m.state.Selected == nil {
		m.viewport.SetContent(dimStyle.Render("No note selected."))
		return
	}
	m.viewport.SetContent(renderMarkdown(m.state.Selected.Content, m.detailWidth()))
}

func (m *Model) resize() {
	detail := m.detailWidth()
	m.viewport.Width = detail
	m.viewport.Height = m.paneHeight()
	m.titleInput.Width = detail - 2
	m.contentArea.SetWidth(detail)
	m.contentArea.SetHeight(m.paneHeight() - 3)
}

func (m *Model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	return w
}

func (m *Model) detailWidth() int {
	w := m.width - m.listWidth() - 6
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) paneHeight() int {
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) View() string {
	header := titleStyle.Render("Notable")
	if m.mode == modeFilter || m.filterInput.Value() != "" {
		header += "  " + m.filterInput.View()
	}

	list := m.renderList()
	var detail string
	if m.mode == modeEdit {
		detail = m.renderEditor()
	} else {
		detail = m.viewport.View()
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listPaneStyle.Width(m.listWidth()).Height(m.paneHeight()).Render(list),
		detailPaneStyle.Width(m.detailWidth()).Height(m.paneHeight()).Render(detail),
	)

	return strings.Join([]string{header, body, m.renderStatus()}, "\n")
}

func (m *Model) renderList() string {
	if len(m.state.Notes) == 0 {
		return dimStyle.Render("No notes. Press n to create one.")
	}
	maxWidth := m.listWidth() - 4
	var b strings.Builder
	for i, note := range m.state.Notes {
		title := runewidth.Truncate(note.Title, maxWidth, "…")
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("> " + title))
		} else {
			b.WriteString("  " + title)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderEditor() string {
	return m.titleInput.View() + "\n\n" + m.contentArea.View()
}

func (m *Model) renderStatus() string {
	var parts []string
	if m.state.Busy {
		parts = append(parts, m.spinner.View()+"syncing")
	}
	if m.state.Err != "" {
		parts = append(parts, errorStyle.Render(m.state.Err))
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	help := "n new · enter edit · d delete · / filter · y copy · q quit"
	if m.mode == modeEdit {
		help = "ctrl+s save · tab switch field · esc cancel"
	}
	parts = append(parts, dimStyle.Render(help))
	parts = append(parts, dimStyle.Render(fmt.Sprintf("%d notes", len(m.state.Notes))))
	return strings.Join(parts, "  ")
}

// Run starts the UI and blocks until it exits.
func Run(coordinator *reconcile.Coordinator) error {
	program := tea.NewProgram(NewModel(coordinator), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
