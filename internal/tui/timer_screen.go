package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/app"
	"github.com/andy/timeledger/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

// TimerTickMsg is sent every second while a screen is watching a timer.
// A screen only follows ticks carrying its latest id, so restarting the
// ticker never leaves two chains running.
type TimerTickMsg struct {
	Screen Screen
	id     int
}

func tickTimer(screen Screen, id int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TimerTickMsg{Screen: screen, id: id}
	})
}

// timerStateMsg carries the timer after a load or a state change
type timerStateMsg struct {
	timer   *domain.ActiveTimer
	clients []*domain.Client
	accrued decimal.Decimal
	status  string
	err     error
}

// TimerModel shows the active timer, or a client picker when idle
type TimerModel struct {
	app *app.App

	timer   *domain.ActiveTimer
	clients []*domain.Client
	accrued decimal.Decimal

	cursor      int
	description textinput.Model
	editing     bool // description input has focus

	tickID  int
	ticking bool
	status  string
	err     error
}

// NewTimerModel creates the timer screen
func NewTimerModel(a *app.App) *TimerModel {
	ti := textinput.New()
	ti.Placeholder = "What are you working on? (optional)"
	ti.CharLimit = 200
	ti.Width = 50
	return &TimerModel{app: a, description: ti}
}

// IsCapturingInput is true while the description is being typed
func (m *TimerModel) IsCapturingInput() bool {
	return m.editing
}

func (m *TimerModel) Init() tea.Cmd {
	return m.load("")
}

// load reads the timer and the client list, tagging the result with status
func (m *TimerModel) load(status string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx := context.Background()
		msg := timerStateMsg{status: status}
		if msg.clients, msg.err = a.ClientService.List(ctx); msg.err != nil {
			return msg
		}
		if msg.timer, msg.err = a.TimerService.GetActiveTimer(ctx); msg.err != nil || msg.timer == nil {
			return msg
		}
		msg.accrued, msg.err = a.TimerService.AccruedValue(ctx)
		return msg
	}
}

// do runs a timer operation and reloads
func (m *TimerModel) do(op func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := op(context.Background())
		if err != nil {
			return timerStateMsg{err: err}
		}
		return m.load(status)()
	}
}

func (m *TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		// ticks may have been dropped while another screen was shown
		m.ticking = false
		return m, m.load("")

	case timerStateMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.timer, m.clients, m.accrued = msg.timer, msg.clients, msg.accrued
		if msg.status != "" {
			m.status = msg.status
		}
		m.cursor = min(m.cursor, max(len(m.clients)-1, 0))
		if m.timer != nil && !m.ticking {
			m.ticking = true
			m.tickID++
			return m, tickTimer(ScreenTimer, m.tickID)
		}
		return m, nil

	case TimerTickMsg:
		if msg.Screen != ScreenTimer || msg.id != m.tickID {
			return m, nil
		}
		if m.timer == nil {
			m.ticking = false
			return m, nil
		}
		// Reload so changes made from the CLI show up
		return m, tea.Batch(m.load(""), tickTimer(ScreenTimer, m.tickID))

	case tea.KeyMsg:
		m.err = nil
		if m.editing {
			return m.updateDescription(msg)
		}
		m.status = ""
		if m.timer != nil {
			return m, m.updateRunning(msg)
		}
		return m, m.updateIdle(msg)
	}
	return m, nil
}

func (m *TimerModel) updateDescription(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Back):
		m.editing = false
		m.description.Blur()
		return m, nil
	case key.Matches(msg, DefaultKeyMap.Select):
		m.editing = false
		m.description.Blur()
		return m, m.start()
	}
	var cmd tea.Cmd
	m.description, cmd = m.description.Update(msg)
	return m, cmd
}

func (m *TimerModel) updateIdle(msg tea.KeyMsg) tea.Cmd {
	switch s := msg.String(); {
	case key.Matches(msg, DefaultKeyMap.ScrollUp):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.ScrollDn):
		if m.cursor < len(m.clients)-1 {
			m.cursor++
		}
	case len(s) == 1 && s >= "1" && s <= "9":
		if i := int(s[0] - '1'); i < len(m.clients) {
			m.cursor = i
			return m.start()
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if len(m.clients) > 0 {
			m.editing = true
			return m.description.Focus()
		}
	case key.Matches(msg, DefaultKeyMap.Back):
		return func() tea.Msg { return SwitchScreenMsg{Screen: ScreenCalendar} }
	}
	return nil
}

func (m *TimerModel) updateRunning(msg tea.KeyMsg) tea.Cmd {
	svc := m.app.TimerService
	switch msg.String() {
	case "p":
		return m.do(func(ctx context.Context) (string, error) { return "Paused", svc.Pause(ctx) })
	case "r":
		return m.do(func(ctx context.Context) (string, error) { return "Resumed", svc.Resume(ctx) })
	case "x":
		return m.do(func(ctx context.Context) (string, error) {
			e, err := svc.Stop(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Entry saved: %s %s-%s (%s)",
				e.Date.Format("Jan 2"), e.StartTime, e.EndTime, formatHours(e.Hours)), nil
		})
	case "d":
		return m.do(func(ctx context.Context) (string, error) { return "Timer discarded", svc.Discard(ctx) })
	}
	return nil
}

func (m *TimerModel) start() tea.Cmd {
	if m.cursor >= len(m.clients) {
		return nil
	}
	client := m.clients[m.cursor]
	desc := strings.TrimSpace(m.description.Value())
	m.description.Reset()
	svc := m.app.TimerService
	return m.do(func(ctx context.Context) (string, error) {
		if _, err := svc.Start(ctx, client.ID, "", desc); err != nil {
			return "", err
		}
		return "Started for " + client.Name, nil
	})
}

func (m *TimerModel) clientOf(id string) *domain.Client {
	for _, c := range m.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *TimerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Timer") + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render("  "+m.status) + "\n\n")
	}

	if m.timer != nil {
		m.viewRunning(&b)
	} else {
		m.viewIdle(&b)
	}
	return b.String()
}

func (m *TimerModel) viewRunning(b *strings.Builder) {
	t := m.timer
	elapsed := t.Elapsed(time.Now())
	clock := fmt.Sprintf("%02d:%02d:%02d",
		int(elapsed.Hours()), int(elapsed.Minutes())%60, int(elapsed.Seconds())%60)

	state := timerRunningStyle.Render("● RUNNING")
	if t.State() == domain.TimerStatePaused {
		state = timerPausedStyle.Render("❚❚ PAUSED")
	}

	name, rate := "Unknown client", ""
	if c := m.clientOf(t.ClientID); c != nil {
		name, rate = c.Name, formatMoney(c.HourlyRate)+"/hr"
	}

	fmt.Fprintf(b, "  %s  %s\n\n", state, timerValueStyle.Render(clock))
	fmt.Fprintf(b, "  %-13s %s %s\n", "Client:", name, subtitleStyle.Render(rate))
	if t.Project != "" {
		fmt.Fprintf(b, "  %-13s %s\n", "Project:", t.Project)
	}
	if t.Description != "" {
		fmt.Fprintf(b, "  %-13s %s\n", "Description:", t.Description)
	}
	fmt.Fprintf(b, "  %-13s %s\n", "Started:", t.StartTime.Local().Format("Mon Jan 2 15:04"))
	fmt.Fprintf(b, "  %-13s %s\n", "Accrued:", timerValueStyle.Render(formatMoney(m.accrued)))
	b.WriteString("\n" + helpStyle.Render("  p: pause  r: resume  x: stop and save  d: discard"))
}

func (m *TimerModel) viewIdle(b *strings.Builder) {
	switch {
	case m.clients == nil:
		b.WriteString("  Loading clients...\n")
		return
	case len(m.clients) == 0:
		b.WriteString("  No clients yet. Add one with 'timeledger clients add'.\n")
		return
	}

	b.WriteString("  Start a timer for:\n\n")
	for i, c := range m.clients {
		cursor := "  "
		name := c.Name
		if i == m.cursor {
			cursor = "> "
			name = focusStyle.Render(name)
		}
		shortcut := "   "
		if i < 9 {
			shortcut = fmt.Sprintf("%d. ", i+1)
		}
		fmt.Fprintf(b, "  %s%s%s %s %s\n", cursor, shortcut, blockStyle(c.Color).Render("  "), name,
			subtitleStyle.Render(formatMoney(c.HourlyRate)+"/hr"))
	}

	if m.editing {
		fmt.Fprintf(b, "\n  %s\n", m.description.View())
		b.WriteString("\n" + helpStyle.Render("  enter: start  esc: back"))
		return
	}
	b.WriteString("\n" + helpStyle.Render("  ↑/↓: choose  enter: describe and start  1-9: quick start  esc: calendar"))
}
