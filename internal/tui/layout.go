package tui

import (
	"github.com/andy/timeledger/internal/calendar"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	gutterWidth = 6 // "09:00 "
	minColWidth = 8
	// gridTop is the first grid row below the week title and day headers
	gridTop = 2
)

// termLayout places the seven day columns on terminal cells. Rows and
// columns are relative to the calendar screen's own origin.
type termLayout struct {
	colWidth int
	scroll   int // grid rows scrolled off the top
}

func newTermLayout(width int) termLayout {
	w := (width - gutterWidth) / 7
	if w < minColWidth {
		w = minColWidth
	}
	return termLayout{colWidth: w}
}

// DayAt implements calendar.Layout
func (l termLayout) DayAt(x float64) int {
	if x < gutterWidth {
		return -1
	}
	day := int(x-gutterWidth) / l.colWidth
	if day > 6 {
		return -1
	}
	return day
}

// ColumnTop implements calendar.Layout
func (l termLayout) ColumnTop() float64 {
	return float64(gridTop - l.scroll)
}

// pointerEvents converts a mouse message into engine events. A row is
// addressed by its top edge, which sits on a quarter line, and a column by
// its center. A release is followed by the click browsers would send.
func (l termLayout) pointerEvents(msg tea.MouseMsg) []calendar.PointerEvent {
	x, y := float64(msg.X)+0.5, float64(msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			return []calendar.PointerEvent{{Kind: calendar.PointerDown, X: x, Y: y, Button: calendar.ButtonLeft}}
		case tea.MouseButtonRight:
			return []calendar.PointerEvent{{Kind: calendar.PointerDown, X: x, Y: y, Button: calendar.ButtonRight}}
		}
	case tea.MouseActionMotion:
		return []calendar.PointerEvent{{Kind: calendar.PointerMove, X: x, Y: y}}
	case tea.MouseActionRelease:
		return []calendar.PointerEvent{
			{Kind: calendar.PointerUp, X: x, Y: y},
			{Kind: calendar.PointerClick, X: x, Y: y, Button: calendar.ButtonLeft},
		}
	}
	return nil
}

// visibleRows returns how many grid rows fit in height
func visibleRows(height int, grid calendar.Grid) int {
	rows := height - gridTop
	if total := int(grid.Height()); rows > total {
		rows = total
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// clampScroll keeps the scroll offset inside the grid
func clampScroll(scroll, rows int, grid calendar.Grid) int {
	maxScroll := int(grid.Height()) - rows
	if scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}
