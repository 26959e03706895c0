package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/app"
	"github.com/andy/timeledger/internal/calendar"
	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/repository"
	"github.com/andy/timeledger/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// rows used below the grid for status and help
const calendarFooterRows = 2

type calendarMode int

const (
	calendarModeGrid calendarMode = iota
	calendarModeForm
)

// CalendarModel is the weekly calendar. Dragging on empty grid creates an
// entry, dragging a block moves it and clicking a block edits it.
type CalendarModel struct {
	app    *app.App
	engine *calendar.Engine
	layout termLayout
	now    func() time.Time

	width, height int
	presetIdx     int // -1 for the configured range

	entries    map[string]*domain.TimeEntry
	clientByID map[string]*domain.Client
	lastClient string

	mode calendarMode
	form entryForm

	loading   bool
	err       error
	statusMsg string
}

type calendarDataMsg struct {
	weekStart time.Time
	entries   []*domain.TimeEntry
	clients   []*domain.Client
	err       error
}

type entryChangedMsg struct {
	status string
	err    error
}

// NewCalendarModel creates the calendar screen for the week containing weekStart
func NewCalendarModel(a *app.App, grid calendar.Grid, weekStart time.Time) *CalendarModel {
	m := &CalendarModel{
		app:        a,
		layout:     newTermLayout(80),
		now:        time.Now,
		presetIdx:  -1,
		entries:    make(map[string]*domain.TimeEntry),
		clientByID: make(map[string]*domain.Client),
		loading:    true,
	}
	for i, p := range calendar.Presets {
		if p.StartHour == grid.StartHour && p.EndHour == grid.EndHour {
			m.presetIdx = i
		}
	}
	m.engine = calendar.NewEngine(grid, m.layout, weekStart)
	return m
}

// IsCapturingInput returns true while the entry form is open
func (m *CalendarModel) IsCapturingInput() bool {
	return m.mode == calendarModeForm
}

func (m *CalendarModel) Init() tea.Cmd {
	return m.loadWeek()
}

func (m *CalendarModel) loadWeek() tea.Cmd {
	days := m.engine.Days()
	from, to := days[0], days[len(days)-1]
	return func() tea.Msg {
		ctx := context.Background()
		entries, err := m.app.EntryService.List(ctx, repository.EntryFilter{From: &from, To: &to})
		if err != nil {
			return calendarDataMsg{weekStart: from, err: err}
		}
		clients, err := m.app.ClientService.List(ctx)
		return calendarDataMsg{weekStart: from, entries: entries, clients: clients, err: err}
	}
}

func (m *CalendarModel) createEntry(v formValues) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		client, err := m.app.ClientService.Resolve(ctx, v.clientQuery)
		if err != nil {
			return entryChangedMsg{err: err}
		}
		entry, err := m.app.EntryService.Create(ctx, service.EntryInput{
			ClientID: client.ID, Date: v.date, Start: v.start, End: v.end,
			Project: v.project, Description: v.description,
		})
		if err != nil {
			return entryChangedMsg{err: err}
		}
		return entryChangedMsg{status: fmt.Sprintf("Added %s for %s", formatHours(entry.Hours), client.Name)}
	}
}

func (m *CalendarModel) updateEntry(v formValues) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		client, err := m.app.ClientService.Resolve(ctx, v.clientQuery)
		if err != nil {
			return entryChangedMsg{err: err}
		}
		if _, err := m.app.EntryService.Update(ctx, v.entryID, service.EntryInput{
			ClientID: client.ID, Date: v.date, Start: v.start, End: v.end,
			Project: v.project, Description: v.description,
		}); err != nil {
			return entryChangedMsg{err: err}
		}
		return entryChangedMsg{status: "Entry updated"}
	}
}

func (m *CalendarModel) moveEntry(ev calendar.MoveRequested) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.app.EntryService.Reschedule(context.Background(), ev.EntryID, ev.Date, ev.Start, ev.End)
		if err != nil {
			return entryChangedMsg{err: err}
		}
		return entryChangedMsg{status: fmt.Sprintf("Moved to %s %s-%s",
			entry.Date.Format("Mon Jan 2"), entry.StartTime, entry.EndTime)}
	}
}

func (m *CalendarModel) deleteEntry(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.EntryService.Delete(context.Background(), id); err != nil {
			return entryChangedMsg{err: err}
		}
		return entryChangedMsg{status: "Entry deleted"}
	}
}

func (m *CalendarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		scroll := m.layout.scroll
		m.layout = newTermLayout(msg.Width)
		m.layout.scroll = clampScroll(scroll, m.gridRows(), m.engine.Grid())
		m.engine.SetLayout(m.layout)
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadWeek()

	case calendarDataMsg:
		if !msg.weekStart.Equal(m.engine.Days()[0]) {
			// a stale load for a week we already left
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.setData(msg.entries, msg.clients)
		}
		return m, nil

	case entryChangedMsg:
		if msg.err != nil {
			if m.mode == calendarModeForm {
				m.form.err = msg.err
			} else {
				m.err = msg.err
			}
			return m, m.loadWeek()
		}
		m.mode = calendarModeGrid
		m.statusMsg = msg.status
		return m, m.loadWeek()

	case formSubmitMsg:
		m.lastClient = msg.values.clientQuery
		if msg.values.entryID == "" {
			return m, m.createEntry(msg.values)
		}
		return m, m.updateEntry(msg.values)

	case formDeleteMsg:
		return m, m.deleteEntry(msg.entryID)

	case formCancelMsg:
		m.mode = calendarModeGrid
		return m, nil
	}

	if m.mode == calendarModeForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *CalendarModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollBy(-int(m.engine.Grid().QuarterHeight()))
			return m, nil
		case tea.MouseButtonWheelDown:
			m.scrollBy(int(m.engine.Grid().QuarterHeight()))
			return m, nil
		}
	}

	var request calendar.Event
	for _, ev := range m.layout.pointerEvents(msg) {
		if out := m.engine.Handle(ev); out != nil && request == nil {
			request = out
		}
	}

	switch ev := request.(type) {
	case calendar.NewEntryRequested:
		m.statusMsg, m.err = "", nil
		m.form = newEntryForm(m.lastClient, "", "", ev.Date, ev.Start, ev.End)
		m.mode = calendarModeForm
		return m, textinput.Blink
	case calendar.MoveRequested:
		m.statusMsg, m.err = "", nil
		return m, m.moveEntry(ev)
	case calendar.EditRequested:
		entry, ok := m.entries[ev.EntryID]
		if !ok {
			return m, nil
		}
		m.statusMsg, m.err = "", nil
		m.form = editEntryForm(entry, m.clientLabel(entry.ClientID))
		m.mode = calendarModeForm
		return m, textinput.Blink
	}
	return m, nil
}

func (m *CalendarModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	switch {
	case key.Matches(msg, DefaultKeyMap.Back):
		m.engine.Cancel()
	case key.Matches(msg, DefaultKeyMap.PrevWeek):
		return m, m.showWeek(m.engine.Days()[0].AddDate(0, 0, -7))
	case key.Matches(msg, DefaultKeyMap.NextWeek):
		return m, m.showWeek(m.engine.Days()[0].AddDate(0, 0, 7))
	case key.Matches(msg, DefaultKeyMap.ThisWeek):
		return m, m.showWeek(m.now())
	case key.Matches(msg, DefaultKeyMap.Preset):
		m.presetIdx = (m.presetIdx + 1) % len(calendar.Presets)
		m.engine.SetGrid(m.engine.Grid().WithPreset(calendar.Presets[m.presetIdx]))
		m.scrollBy(0)
	case key.Matches(msg, DefaultKeyMap.ScrollUp):
		m.scrollBy(-int(m.engine.Grid().HourHeight))
	case key.Matches(msg, DefaultKeyMap.ScrollDn):
		m.scrollBy(int(m.engine.Grid().HourHeight))
	case key.Matches(msg, DefaultKeyMap.Reload):
		m.loading = true
		return m, m.loadWeek()
	}
	return m, nil
}

func (m *CalendarModel) showWeek(t time.Time) tea.Cmd {
	m.engine.SetWeek(t)
	m.engine.SetBlocks(nil)
	m.loading = true
	return m.loadWeek()
}

func (m *CalendarModel) scrollBy(rows int) {
	m.layout.scroll = clampScroll(m.layout.scroll+rows, m.gridRows(), m.engine.Grid())
	m.engine.SetLayout(m.layout)
}

func (m *CalendarModel) gridRows() int {
	return visibleRows(m.height-calendarFooterRows, m.engine.Grid())
}

func (m *CalendarModel) setData(entries []*domain.TimeEntry, clients []*domain.Client) {
	m.entries = make(map[string]*domain.TimeEntry, len(entries))
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	m.clientByID = make(map[string]*domain.Client, len(clients))
	for _, c := range clients {
		m.clientByID[c.ID] = c
	}
	m.engine.SetBlocks(calendar.BlocksFor(m.engine.Days(), entries))
}

func (m *CalendarModel) clientLabel(id string) string {
	if c, ok := m.clientByID[id]; ok {
		return c.Name
	}
	return ""
}

func (m *CalendarModel) View() string {
	if m.mode == calendarModeForm {
		return m.form.View()
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewTitle() + "\n")
	b.WriteString(m.viewDayHeaders() + "\n")
	b.WriteString(m.viewGrid())

	switch {
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.statusMsg != "":
		b.WriteString("\n" + statusStyle.Render(m.statusMsg))
	case m.loading:
		b.WriteString("\n" + subtitleStyle.Render("Loading entries..."))
	default:
		b.WriteString("\n")
	}
	b.WriteString("\n" + helpStyle.Render("drag: new entry  drag block: move  click block: edit  h/l: week  .: today  p: hours  j/k: scroll"))
	return b.String()
}

func (m *CalendarModel) viewTitle() string {
	grid := m.engine.Grid()
	label := fmt.Sprintf("%02d:00-%02d:00", grid.StartHour, grid.EndHour)
	if m.presetIdx >= 0 {
		label = calendar.Presets[m.presetIdx].Label + " " + label
	}
	var total float64
	for _, e := range m.entries {
		total += e.Hours
	}
	week := m.engine.Days()[0].Format("Jan 2, 2006")
	return titleStyle.Render("Week of "+week) + subtitleStyle.Render(fmt.Sprintf("  %s  %s logged", label, formatHours(total)))
}

func (m *CalendarModel) viewDayHeaders() string {
	today := domain.TruncateDay(m.now())
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for _, d := range m.engine.Days() {
		style := dayHeaderStyle
		if d.Equal(today) {
			style = todayStyle
		}
		b.WriteString(style.Width(m.layout.colWidth).Render(truncateStr(d.Format("Mon 1/2"), m.layout.colWidth-1)))
	}
	return b.String()
}

// paint is what one grid cell shows
type paint struct {
	block   calendar.Block
	preview bool
}

func (m *CalendarModel) viewGrid() string {
	grid := m.engine.Grid()
	blocks := m.engine.Blocks()
	preview, dragging := m.engine.Preview()
	cell := m.layout.colWidth - 1

	var b strings.Builder
	rows := m.gridRows()
	for r := m.layout.scroll; r < m.layout.scroll+rows; r++ {
		y := float64(r) + 0.5
		t := grid.SnapDown(y)
		hourLine := t.Minute() == 0 && int(grid.TimeToY(t)) == r

		if hourLine {
			b.WriteString(gutterStyle.Render(fmt.Sprintf("%-*s", gutterWidth, t.String())))
		} else {
			b.WriteString(strings.Repeat(" ", gutterWidth))
		}

		for day := 0; day < 7; day++ {
			p, ok := m.cellAt(blocks, preview, dragging, day, t)
			switch {
			case !ok && hourLine:
				b.WriteString(hourLineStyle.Render(strings.Repeat("─", cell)))
			case !ok:
				b.WriteString(strings.Repeat(" ", cell))
			default:
				b.WriteString(m.renderCell(p, r, cell))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// cellAt returns the block covering t in the column. The gesture preview
// wins over stored blocks, and a block being carried is drawn only at its
// preview position.
func (m *CalendarModel) cellAt(blocks []calendar.Block, preview calendar.Block, dragging bool, day int, t domain.ClockTime) (paint, bool) {
	if dragging && preview.DayIndex == day && t >= preview.Start && t < preview.End {
		return paint{block: preview, preview: true}, true
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		bl := blocks[i]
		if dragging && bl.EntryID == preview.EntryID && preview.EntryID != "" {
			continue
		}
		if bl.DayIndex == day && t >= bl.Start && t < bl.End {
			return paint{block: bl}, true
		}
	}
	return paint{}, false
}

func (m *CalendarModel) renderCell(p paint, row, width int) string {
	grid := m.engine.Grid()
	first := int(grid.TimeToY(p.block.Start))

	entry := m.entries[p.block.EntryID]
	var color, text string
	style := previewStyle
	if entry != nil {
		if c, ok := m.clientByID[entry.ClientID]; ok {
			color = c.Color
		}
		if !p.preview {
			style = blockStyle(color)
			if entry.IsLocked() {
				style = lockedStyle(color)
			}
		}
	}

	switch row - first {
	case 0:
		if entry != nil {
			text = m.clientLabel(entry.ClientID)
		} else {
			text = "New entry"
		}
	case 1:
		text = p.block.Start.String() + "-" + p.block.End.String()
	case 2:
		if entry != nil {
			text = entry.Description
		}
	}
	return style.Width(width).Render(truncateStr(text, width))
}
