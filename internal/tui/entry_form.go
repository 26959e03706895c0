package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// entry form field indices
const (
	formFieldClient = iota
	formFieldProject
	formFieldDescription
	formFieldDate
	formFieldStart
	formFieldEnd
	formFieldCount
)

var formLabels = [formFieldCount]string{"Client:", "Project:", "Description:", "Date:", "Start:", "End:"}

// entryForm collects the text of a new or existing entry. The span comes
// from the calendar gesture and can still be corrected by hand.
type entryForm struct {
	entryID string // empty for a new entry
	locked  bool
	fields  []textinput.Model
	focus   int
	err     error
}

// formValues is what the form submits; the client is still a query
type formValues struct {
	entryID     string
	clientQuery string
	project     string
	description string
	date        time.Time
	start       domain.ClockTime
	end         domain.ClockTime
}

// formSubmitMsg is emitted when the user saves the form
type formSubmitMsg struct{ values formValues }

// formDeleteMsg is emitted when the user deletes the edited entry
type formDeleteMsg struct{ entryID string }

// formCancelMsg is emitted when the user leaves the form
type formCancelMsg struct{}

func newEntryForm(client, project, description string, date time.Time, start, end domain.ClockTime) entryForm {
	f := entryForm{fields: make([]textinput.Model, formFieldCount)}

	setup := func(i int, placeholder, value string, limit, width int) {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Width = width
		ti.SetValue(value)
		f.fields[i] = ti
	}
	setup(formFieldClient, "Client name", client, 100, 40)
	setup(formFieldProject, "Project", project, 100, 40)
	setup(formFieldDescription, "What did you work on?", description, 200, 50)
	setup(formFieldDate, domain.DateLayout, date.Format(domain.DateLayout), 10, 12)
	setup(formFieldStart, "09:00", start.String(), 5, 6)
	setup(formFieldEnd, "17:00", end.String(), 5, 6)

	f.focus = formFieldClient
	if client != "" {
		f.focus = formFieldDescription
	}
	f.fields[f.focus].Focus()
	return f
}

func editEntryForm(entry *domain.TimeEntry, clientName string) entryForm {
	f := newEntryForm(clientName, entry.Project, entry.Description, entry.Date, entry.StartTime, entry.EndTime)
	f.entryID = entry.ID
	f.locked = entry.IsLocked()
	return f
}

// values parses the form fields
func (f entryForm) values() (formValues, error) {
	v := formValues{
		entryID:     f.entryID,
		clientQuery: strings.TrimSpace(f.fields[formFieldClient].Value()),
		project:     f.fields[formFieldProject].Value(),
		description: f.fields[formFieldDescription].Value(),
	}
	if v.clientQuery == "" {
		return v, fmt.Errorf("client is required")
	}
	var err error
	if v.date, err = domain.ParseDate(f.fields[formFieldDate].Value()); err != nil {
		return v, err
	}
	if v.start, err = domain.ParseClockTime(f.fields[formFieldStart].Value()); err != nil {
		return v, err
	}
	if v.end, err = domain.ParseClockTime(f.fields[formFieldEnd].Value()); err != nil {
		return v, err
	}
	if _, err := domain.Hours(v.start, v.end); err != nil {
		return v, err
	}
	return v, nil
}

func (f entryForm) submit() (entryForm, tea.Cmd) {
	v, err := f.values()
	if err != nil {
		f.err = err
		return f, nil
	}
	f.err = nil
	return f, func() tea.Msg { return formSubmitMsg{values: v} }
}

func (f entryForm) Update(msg tea.Msg) (entryForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			return f, func() tea.Msg { return formCancelMsg{} }

		case key.Matches(msg, DefaultKeyMap.NextField):
			f.fields[f.focus].Blur()
			f.focus = (f.focus + 1) % formFieldCount
			return f, f.fields[f.focus].Focus()

		case key.Matches(msg, DefaultKeyMap.PrevField):
			f.fields[f.focus].Blur()
			f.focus = (f.focus - 1 + formFieldCount) % formFieldCount
			return f, f.fields[f.focus].Focus()

		case key.Matches(msg, DefaultKeyMap.Save):
			return f.submit()

		case key.Matches(msg, DefaultKeyMap.Delete):
			if f.entryID == "" {
				return f, nil
			}
			id := f.entryID
			return f, func() tea.Msg { return formDeleteMsg{entryID: id} }

		case key.Matches(msg, DefaultKeyMap.Select):
			if f.focus == formFieldCount-1 {
				return f.submit()
			}
			f.fields[f.focus].Blur()
			f.focus++
			return f, f.fields[f.focus].Focus()
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return f, cmd
}

func (f entryForm) View() string {
	var s string
	title := "New Entry"
	if f.entryID != "" {
		title = "Edit Entry"
	}
	s += titleStyle.Render(title) + "\n"
	if f.locked {
		s += lipgloss.NewStyle().Foreground(warningColor).Render("  This entry is on an invoice and cannot be changed.") + "\n"
	}
	s += "\n"

	for i, label := range formLabels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == f.focus {
			indicator = "> "
			labelStyle = focusStyle
		}
		s += fmt.Sprintf("%s%-13s %s\n", indicator, labelStyle.Render(label), f.fields[i].View())
	}

	if f.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("  Error: %v", f.err)) + "\n"
	}

	help := "  tab/shift+tab: fields  enter: next/save  ctrl+s: save  esc: cancel"
	if f.entryID != "" {
		help += "  ctrl+d: delete"
	}
	s += "\n" + helpStyle.Render(help)
	return s
}
