package tui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andy/timeledger/internal/app"
	"github.com/andy/timeledger/internal/calendar"
	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/repository"
	"github.com/andy/timeledger/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel summarizes the week and what is owed
type DashboardModel struct {
	app *app.App

	week          *service.WeekSummary
	dashboard     *service.Dashboard
	activeTimer   *domain.ActiveTimer
	recentEntries []*domain.TimeEntry
	clientNames   map[string]string

	tickID  int
	loading bool
	err     error
}

type dashboardDataMsg struct {
	week          *service.WeekSummary
	dashboard     *service.Dashboard
	activeTimer   *domain.ActiveTimer
	recentEntries []*domain.TimeEntry
	clientNames   map[string]string
	err           error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App) *DashboardModel {
	return &DashboardModel{
		app:         a,
		loading:     true,
		clientNames: make(map[string]string),
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		msg := dashboardDataMsg{clientNames: make(map[string]string)}
		now := time.Now()

		week, err := m.app.ReportService.GetWeekSummary(ctx, calendar.WeekStart(now))
		if err != nil {
			msg.err = fmt.Errorf("week summary: %w", err)
			return msg
		}
		msg.week = week

		dash, err := m.app.ReportService.GetDashboard(ctx, now)
		if err != nil {
			msg.err = fmt.Errorf("dashboard: %w", err)
			return msg
		}
		msg.dashboard = dash

		if t, err := m.app.TimerService.GetActiveTimer(ctx); err == nil {
			msg.activeTimer = t
		}

		clients, err := m.app.ClientService.List(ctx)
		if err != nil {
			msg.err = fmt.Errorf("clients: %w", err)
			return msg
		}
		for _, c := range clients {
			msg.clientNames[c.ID] = c.Name
		}

		from := domain.TruncateDay(now).AddDate(0, 0, -7)
		entries, err := m.app.EntryService.List(ctx, repository.EntryFilter{From: &from})
		if err == nil {
			msg.recentEntries = entries
		}
		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.week = msg.week
		m.dashboard = msg.dashboard
		m.activeTimer = msg.activeTimer
		m.recentEntries = msg.recentEntries
		m.clientNames = msg.clientNames
		// each load starts a fresh tick chain and retires the previous one
		m.tickID++
		if m.activeTimer != nil {
			return m, tickTimer(ScreenDashboard, m.tickID)
		}
		return m, nil

	case TimerTickMsg:
		if msg.Screen != ScreenDashboard || msg.id != m.tickID || m.activeTimer == nil {
			return m, nil
		}
		t, err := m.app.TimerService.GetActiveTimer(context.Background())
		if err == nil {
			m.activeTimer = t
		}
		if m.activeTimer != nil {
			return m, tickTimer(ScreenDashboard, m.tickID)
		}
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, func() tea.Msg { return SwitchScreenMsg{Screen: ScreenCalendar} }
		}
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var s string
	s += titleStyle.Render("Dashboard") + "\n\n"

	d := m.dashboard
	s += fmt.Sprintf("  This Week:    %-12s  Value:        %s\n",
		formatHours(m.week.TotalHours), formatMoney(m.week.TotalValue))
	s += fmt.Sprintf("  Unbilled:     %-12s  Value:        %s\n",
		formatHours(d.UnbilledHours), formatMoney(d.UnbilledValue))
	s += fmt.Sprintf("  Outstanding:  %-12s  Paid to date: %s\n",
		formatMoney(d.OutstandingBalance), formatMoney(d.TotalPaid))

	if d.OverdueCount > 0 {
		s += lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("  %d overdue (%s)", d.OverdueCount, formatMoney(d.OverdueBalance))) + "\n"
	}
	if d.DraftCount > 0 {
		s += subtitleStyle.Render(fmt.Sprintf("  %d draft invoice(s) not sent", d.DraftCount)) + "\n"
	}

	s += "\n"
	if m.activeTimer != nil {
		s += m.renderActiveTimer()
	} else {
		s += subtitleStyle.Render("  No active timer") + "\n"
	}

	s += "\n" + m.renderRecentEntries()
	return s
}

func (m *DashboardModel) renderActiveTimer() string {
	clientName, ok := m.clientNames[m.activeTimer.ClientID]
	if !ok {
		clientName = "Unknown client"
	}

	elapsed := m.activeTimer.Elapsed(time.Now())
	h := int(elapsed.Hours())
	min := int(elapsed.Minutes()) % 60
	sec := int(elapsed.Seconds()) % 60
	timeStr := fmt.Sprintf("%02d:%02d:%02d", h, min, sec)

	var stateStyle lipgloss.Style
	if m.activeTimer.State() == domain.TimerStatePaused {
		stateStyle = timerPausedStyle
	} else {
		stateStyle = timerRunningStyle
	}

	return fmt.Sprintf("  Active Timer\n  %s %s - %s  [%s]\n",
		stateStyle.Render("●"),
		clientName,
		m.activeTimer.Description,
		timerValueStyle.Render(timeStr),
	)
}

func (m *DashboardModel) renderRecentEntries() string {
	header := "  Recent Entries (Last 7 Days)\n"
	if len(m.recentEntries) == 0 {
		return header + subtitleStyle.Render("  No recent entries") + "\n"
	}

	// Most recent first
	sorted := make([]*domain.TimeEntry, len(m.recentEntries))
	copy(sorted, m.recentEntries)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].StartTime > sorted[j].StartTime
	})

	s := header
	limit := min(8, len(sorted))
	for _, entry := range sorted[:limit] {
		clientName, ok := m.clientNames[entry.ClientID]
		if !ok {
			clientName = "Unknown"
		}
		s += fmt.Sprintf("  %-7s %-20s %6s  %s\n",
			entry.Date.Format("Jan 2"),
			truncateStr(clientName, 20),
			formatHours(entry.Hours),
			truncateStr(entry.Description, 30),
		)
	}
	return s
}
