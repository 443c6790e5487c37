package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/store"
	"github.com/manav03panchal/tasktime/internal/tracker"
)

// Tracker is the part of the time-tracking owner the dashboard drives.
// *tracker.Tracker satisfies it.
type Tracker interface {
	Load(ctx context.Context) (store.ListResult, error)
	Tasks() []*model.Task
	Metrics() tracker.Metrics
	Running(id string) bool
	Toggle(ctx context.Context, id string) (store.Result, error)
	Complete(ctx context.Context, id string) (store.Result, error)
	Events() <-chan tracker.Event
	Notices() <-chan tracker.Notice
}

// tickMsg is sent when the clock line should be redrawn.
type tickMsg time.Time

// eventMsg carries a timer tick from the tracker.
type eventMsg tracker.Event

// noticeMsg carries a tracker notification.
type noticeMsg tracker.Notice

// warningMsg carries a store fallback warning.
type warningMsg string

// loadedMsg is sent when tasks were (re)loaded.
type loadedMsg struct {
	offline bool
	err     error
}

// resultMsg is sent when a timer command finished.
type resultMsg struct {
	res store.Result
	err error
}

// DashboardModel is the main bubbletea model for the dashboard.
type DashboardModel struct {
	ctx      context.Context
	tracker  Tracker
	warnings <-chan string

	// Data
	tasks   []*model.Task
	running map[string]bool
	offline bool

	// UI state
	selected   int
	width      int
	height     int
	err        error
	message    string
	messageExp time.Time
	now        func() time.Time

	refreshInterval time.Duration
	focusLimit      int
}

// DashboardConfig holds configuration for the dashboard.
type DashboardConfig struct {
	Tracker Tracker
	// Warnings delivers store fallback warnings. Optional.
	Warnings        <-chan string
	RefreshInterval time.Duration
	FocusLimit      int
}

// NewDashboardModel creates a new dashboard model. Commands run with ctx.
func NewDashboardModel(ctx context.Context, config DashboardConfig) *DashboardModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = time.Second
	}
	if config.FocusLimit == 0 {
		config.FocusLimit = 3
	}

	return &DashboardModel{
		ctx:             ctx,
		tracker:         config.Tracker,
		warnings:        config.Warnings,
		running:         make(map[string]bool),
		now:             time.Now,
		refreshInterval: config.RefreshInterval,
		focusLimit:      config.FocusLimit,
	}
}

// Init loads the tasks and subscribes to tracker events.
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.loadCmd(),
		m.waitEvent(),
		m.waitNotice(),
		m.waitWarning(),
	)
}

// Update handles messages and updates the model.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, m.tickCmd()

	case eventMsg:
		m.applyTick(msg.TaskID, msg.Elapsed)
		return m, m.waitEvent()

	case noticeMsg:
		text := msg.Title
		if msg.Offline {
			text += " (saved locally)"
		}
		m.setMessage(text, 3*time.Second)
		return m, m.waitNotice()

	case warningMsg:
		m.setMessage(string(msg), 5*time.Second)
		return m, m.waitWarning()

	case loadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.offline = msg.offline
		}
		m.sync()
		return m, nil

	case resultMsg:
		m.err = msg.err
		m.sync()
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input.
func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}
		return m, nil

	case " ", "enter":
		if t := m.Selected(); t != nil {
			return m, m.commandCmd(m.tracker.Toggle, t.ID)
		}
		return m, nil

	case "c":
		if t := m.Selected(); t != nil {
			if t.Status == model.StatusCompleted {
				m.setMessage("Task already completed", 2*time.Second)
				return m, nil
			}
			return m, m.commandCmd(m.tracker.Complete, t.ID)
		}
		return m, nil

	case "r":
		m.setMessage("Refreshed", time.Second)
		return m, m.loadCmd()
	}

	return m, nil
}

// Selected returns the task under the cursor.
func (m *DashboardModel) Selected() *model.Task {
	if m.selected < 0 || m.selected >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.selected]
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{m.renderHeader()}

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	sections = append(sections, NewMetricsComponent(m.tracker.Metrics(), len(m.tasks)).View())
	sections = append(sections, NewTaskListComponent(m.tasks, m.running, m.selected, m.width).View())
	if focus := NewFocusComponent(m.tasks, m.focusLimit).View(); focus != "" {
		sections = append(sections, focus)
	}
	sections = append(sections, HelpBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the dashboard header.
func (m *DashboardModel) renderHeader() string {
	title := StyleTitle.Render("Tasktime Dashboard")
	timeStr := StyleSubtitle.Render(m.now().Format("Mon Jan 2, 15:04:05"))
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", timeStr)
	if m.offline {
		header += "  " + StyleWarning.Render("offline")
	}
	return header + "\n"
}

// sync copies the tracker state into the model, keeping the cursor on the
// same task when it still exists.
func (m *DashboardModel) sync() {
	var selectedID string
	if t := m.Selected(); t != nil {
		selectedID = t.ID
	}

	m.tasks = m.tracker.Tasks()
	m.running = make(map[string]bool, len(m.tasks))
	for i, t := range m.tasks {
		m.running[t.ID] = m.tracker.Running(t.ID)
		if t.ID == selectedID {
			m.selected = i
		}
	}
	if m.selected >= len(m.tasks) {
		m.selected = max(len(m.tasks)-1, 0)
	}
}

// applyTick updates one row without reloading everything.
func (m *DashboardModel) applyTick(id string, elapsed int64) {
	for _, t := range m.tasks {
		if t.ID == id {
			t.TimeLogged = elapsed
			return
		}
	}
}

// setMessage sets a temporary message.
func (m *DashboardModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(duration)
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.tracker.Load(m.ctx)
		return loadedMsg{offline: res.Offline, err: err}
	}
}

func (m *DashboardModel) commandCmd(cmd func(context.Context, string) (store.Result, error), id string) tea.Cmd {
	return func() tea.Msg {
		res, err := cmd(m.ctx, id)
		return resultMsg{res: res, err: err}
	}
}

func (m *DashboardModel) waitEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-m.tracker.Events():
			return eventMsg(e)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *DashboardModel) waitNotice() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-m.tracker.Notices():
			return noticeMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *DashboardModel) waitWarning() tea.Cmd {
	if m.warnings == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case w := <-m.warnings:
			return warningMsg(w)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Run starts the dashboard TUI and blocks until the user quits.
func Run(ctx context.Context, config DashboardConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewDashboardModel(ctx, config), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
