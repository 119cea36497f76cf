package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/state"
)

// View represents the current view.
type View int

const (
	ViewList View = iota
	ViewDetail
)

// SyncLister is the part of the history store the monitor reads.
type SyncLister interface {
	ListSyncs(ctx context.Context, repoPath string, limit int) ([]*state.Sync, error)
}

// Model is the Bubble Tea model for the history monitor.
type Model struct {
	ctx           context.Context
	cancel        context.CancelFunc
	store         SyncLister
	repoFilter    string
	limit         int
	syncs         []*state.Sync
	table         table.Model
	currentView   View
	selectedIndex int
	width         int
	height        int
	refreshTicker time.Duration
	lastRefresh   time.Time
	err           error
	quitting      bool
}

// KeyMap defines the keybindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Messages
type tickMsg time.Time
type refreshMsg []*state.Sync
type errMsg struct{ err error }

// NewModel creates a monitor over store. An empty repoFilter shows every repository.
func NewModel(ctx context.Context, store SyncLister, repoFilter string, limit int, refreshInterval time.Duration) Model {
	ctx, cancel := context.WithCancel(ctx)

	columns := []table.Column{
		{Title: "STARTED", Width: 16},
		{Title: "REPO", Width: 20},
		{Title: "COMMAND", Width: 32},
		{Title: "STATUS", Width: 14},
		{Title: "HEAD", Width: 17},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("15")).
		Background(ColorPrimary).
		Bold(false)
	t.SetStyles(s)

	return Model{
		ctx:           ctx,
		cancel:        cancel,
		store:         store,
		repoFilter:    repoFilter,
		limit:         limit,
		table:         t,
		currentView:   ViewList,
		refreshTicker: refreshInterval,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSyncs(),
		m.tick(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancel()
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Refresh):
			return m, m.loadSyncs()

		case key.Matches(msg, keys.Enter):
			if m.currentView == ViewList && len(m.syncs) > 0 {
				m.selectedIndex = m.table.Cursor()
				m.currentView = ViewDetail
			}
			return m, nil

		case key.Matches(msg, keys.Back):
			if m.currentView == ViewDetail {
				m.currentView = ViewList
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 4)
		m.table.SetHeight(msg.Height - 10)

	case tickMsg:
		return m, tea.Batch(m.loadSyncs(), m.tick())

	case refreshMsg:
		m.syncs = msg
		m.err = nil
		m.lastRefresh = time.Now()
		m.updateTable()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	if m.currentView == ViewList {
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	switch m.currentView {
	case ViewDetail:
		return m.detailView()
	default:
		return m.listView()
	}
}

func (m *Model) listView() string {
	var b strings.Builder

	title := "gitsync history"
	if m.repoFilter != "" {
		title += ": " + m.repoFilter
	}
	b.WriteString(TitleStyle.Render(title) + "\n\n")

	if len(m.syncs) == 0 {
		b.WriteString(NormalStyle.Render("No syncs recorded yet.") + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString(HelpStyle.Render(fmt.Sprintf(
		"[↑↓] Navigate  [Enter] Details  [r] Refresh  [q] Quit  |  Last refresh: %s",
		m.lastRefresh.Format("15:04:05"),
	)))

	return b.String()
}

func (m *Model) detailView() string {
	if m.selectedIndex >= len(m.syncs) {
		return "No sync selected"
	}

	s := m.syncs[m.selectedIndex]
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Sync %s", shortID(s.ID))) + "\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(LabelStyle.Render(label) + ValueStyle.Render(value) + "\n")
	}

	row("Repository:", s.RepoPath)
	row("Command:", s.Invocation)
	b.WriteString(LabelStyle.Render("Status:") + GetStatusStyle(s.Status).Render(GetStatusIcon(s.Status)+" "+s.Status) + "\n")
	row("Started:", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if s.FinishedAt != nil {
		row("Duration:", FormatDuration(s.Duration()))
	}
	row("Head before:", git.ShortSHA(s.HeadBefore))
	row("Head after:", git.ShortSHA(s.HeadAfter))
	if s.ExitCode != nil {
		row("Exit code:", fmt.Sprintf("%d", *s.ExitCode))
	}
	if s.ErrorMessage != "" {
		b.WriteString(LabelStyle.Render("Error:") + ErrorStyle.Render(s.ErrorMessage) + "\n")
	}

	if s.Output != "" {
		b.WriteString("\n" + LabelStyle.Render("Output:") + "\n")
		b.WriteString(OutputStyle.Render(strings.TrimRight(s.Output, "\n")) + "\n")
	}

	b.WriteString(HelpStyle.Render("[Esc] Back  [r] Refresh  [q] Quit"))

	return b.String()
}

func (m *Model) updateTable() {
	rows := make([]table.Row, len(m.syncs))
	for i, s := range m.syncs {
		head := "-"
		if s.HeadBefore != "" || s.HeadAfter != "" {
			head = fmt.Sprintf("%s→%s", orDash(git.ShortSHA(s.HeadBefore)), orDash(git.ShortSHA(s.HeadAfter)))
		}

		rows[i] = table.Row{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(s.RepoPath),
			GetOperationIcon(s.Operation) + " " + s.Invocation,
			GetStatusIcon(s.Status) + " " + s.Status,
			head,
		}
	}
	m.table.SetRows(rows)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshTicker, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadSyncs() tea.Cmd {
	return func() tea.Msg {
		if m.store == nil {
			return refreshMsg(nil)
		}

		syncs, err := m.store.ListSyncs(m.ctx, m.repoFilter, m.limit)
		if err != nil {
			return errMsg{err}
		}
		return refreshMsg(syncs)
	}
}

// FormatDuration renders a sync duration the way history listings show it.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
