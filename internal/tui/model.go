package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/app"
	"github.com/andy/timeledger/internal/calendar"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenCalendar Screen = iota
	ScreenTimer
	ScreenDashboard
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenCalendar:
		return "Calendar"
	case ScreenTimer:
		return "Timer"
	case ScreenDashboard:
		return "Dashboard"
	default:
		return "Unknown"
	}
}

const (
	// headerRows is the header line plus the divider above screen content
	headerRows = 2
	// footerRows is the status line plus the navigation line
	footerRows = 2
)

// Model is the root Bubble Tea model
type Model struct {
	app           *app.App
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized, except the calendar)
	calendar  *CalendarModel
	timer     *TimerModel
	dashboard *DashboardModel

	checkedFirstRun bool
	hint            string

	err     error
	quitMsg string // shown when quit is blocked
}

// New creates a new root model showing the calendar for the week of week
func New(a *app.App, grid calendar.Grid, week time.Time) Model {
	return Model{
		app:           a,
		currentScreen: ScreenCalendar,
		calendar:      NewCalendarModel(a, grid, calendar.WeekStart(week)),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.checkFirstRun(), m.calendar.Init())
}

// checkFirstRun checks if any clients exist in the database
func (m *Model) checkFirstRun() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		clients, err := a.ClientService.List(context.Background())
		if err != nil {
			return firstRunCheckMsg{hasClients: true} // assume yes on error
		}
		return firstRunCheckMsg{hasClients: len(clients) > 0}
	}
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	refresh := func() tea.Msg { return RefreshDataMsg{} }
	switch screen {
	case ScreenCalendar:
		return refresh
	case ScreenTimer:
		if m.timer == nil {
			m.timer = NewTimerModel(m.app)
			return m.timer.Init()
		}
		return refresh
	case ScreenDashboard:
		if m.dashboard == nil {
			m.dashboard = NewDashboardModel(m.app)
			return m.dashboard.Init()
		}
		return refresh
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

func (m *Model) activeScreen() tea.Model {
	switch m.currentScreen {
	case ScreenCalendar:
		return m.calendar
	case ScreenTimer:
		if m.timer != nil {
			return m.timer
		}
	case ScreenDashboard:
		if m.dashboard != nil {
			return m.dashboard
		}
	}
	return nil
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.activeScreen().(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// contentSize is the area left to a screen inside the header and footer
func (m *Model) contentSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.width, Height: max(m.height-headerRows-footerRows, 1)}
}

func (m *Model) switchTo(screen Screen) tea.Cmd {
	m.currentScreen = screen
	cmd := m.initScreen(screen)
	size := m.contentSize()
	resize := func() tea.Msg { return size }
	return tea.Batch(cmd, resize)
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		msg = m.contentSize()
		var cmd tea.Cmd
		_, cmd = m.calendar.Update(msg)
		if m.timer != nil {
			m.timer.Update(msg)
		}
		if m.dashboard != nil {
			m.dashboard.Update(msg)
		}
		return m, cmd

	case tea.MouseMsg:
		if m.currentScreen != ScreenCalendar {
			return m, nil
		}
		// Screens see coordinates relative to their own origin
		msg.Y -= headerRows
		_, cmd := m.calendar.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		m.quitMsg = ""
		m.err = nil

		if !m.activeScreenCapturingInput() || key.Matches(msg, DefaultKeyMap.Quit) && msg.String() == "ctrl+c" {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				t, _ := m.app.TimerService.GetActiveTimer(context.Background())
				if t != nil {
					m.quitMsg = "Timer is running. Stop or discard it before quitting."
					return m, nil
				}
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Calendar):
				return m, m.switchTo(ScreenCalendar)

			case key.Matches(msg, DefaultKeyMap.Timer):
				return m, m.switchTo(ScreenTimer)

			case key.Matches(msg, DefaultKeyMap.Dashboard):
				return m, m.switchTo(ScreenDashboard)
			}
		}

	case firstRunCheckMsg:
		m.checkedFirstRun = true
		if !msg.hasClients {
			m.hint = "No clients yet. Add one with 'timeledger clients add' to start tracking."
		}
		return m, nil

	case SwitchScreenMsg:
		return m, m.switchTo(msg.Screen)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case TimerTickMsg:
		// Ticks only matter to the screen that asked for them
		if m.currentScreen == ScreenCalendar {
			return m, nil
		}
	}

	// Route message to current screen
	var cmd tea.Cmd
	if screen := m.activeScreen(); screen != nil {
		_, cmd = screen.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("timeledger - %s", m.currentScreen.String()))
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", max(m.width, 10)),
	)

	content := "Loading..."
	if screen := m.activeScreen(); screen != nil {
		content = screen.View()
	}
	// Pin the footer to the bottom rows
	content = lipgloss.NewStyle().
		Height(m.contentSize().Height).
		MaxHeight(m.contentSize().Height).
		Render(content)

	status := ""
	switch {
	case m.quitMsg != "":
		status = lipgloss.NewStyle().Foreground(warningColor).Render(m.quitMsg)
	case m.err != nil:
		status = errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error()))
	case m.hint != "":
		status = subtitleStyle.Render(m.hint)
	}

	footer := footerStyle.Render("[W]eek  [T]imer  Dash[b]oard  [Q]uit")

	return strings.Join([]string{header, divider, content, status, footer}, "\n")
}

// Run starts the TUI on the calendar for the week of week
func Run(a *app.App, grid calendar.Grid, week time.Time) error {
	p := tea.NewProgram(New(a, grid, week), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
