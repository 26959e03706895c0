package tui

import (
	"testing"

	"github.com/andy/timeledger/internal/calendar"
	tea "github.com/charmbracelet/bubbletea"
)

func TestTermLayoutDayAt(t *testing.T) {
	l := newTermLayout(gutterWidth + 7*10)

	tests := []struct {
		x    float64
		want int
	}{
		{0, -1},
		{5.5, -1},
		{6.5, 0},
		{15.9, 0},
		{16.5, 1},
		{75.5, 6},
		{76.5, -1},
	}
	for _, tt := range tests {
		if got := l.DayAt(tt.x); got != tt.want {
			t.Errorf("DayAt(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestTermLayoutNarrowTerminal(t *testing.T) {
	l := newTermLayout(20)
	if l.colWidth != minColWidth {
		t.Errorf("colWidth = %d, want %d", l.colWidth, minColWidth)
	}
}

func TestTermLayoutColumnTopFollowsScroll(t *testing.T) {
	l := newTermLayout(80)
	if got := l.ColumnTop(); got != gridTop {
		t.Errorf("ColumnTop() = %v, want %d", got, gridTop)
	}
	l.scroll = 5
	if got := l.ColumnTop(); got != gridTop-5 {
		t.Errorf("ColumnTop() with scroll = %v, want %d", got, gridTop-5)
	}
}

func TestPointerEvents(t *testing.T) {
	l := newTermLayout(80)

	press := l.pointerEvents(tea.MouseMsg{X: 10, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(press) != 1 || press[0].Kind != calendar.PointerDown || press[0].Button != calendar.ButtonLeft {
		t.Fatalf("press = %+v, want one left PointerDown", press)
	}
	if press[0].X != 10.5 || press[0].Y != 4 {
		t.Errorf("press at (%v, %v), want column center and row top (10.5, 4)", press[0].X, press[0].Y)
	}

	right := l.pointerEvents(tea.MouseMsg{X: 10, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if len(right) != 1 || right[0].Button != calendar.ButtonRight {
		t.Errorf("right press = %+v, want ButtonRight", right)
	}

	motion := l.pointerEvents(tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if len(motion) != 1 || motion[0].Kind != calendar.PointerMove {
		t.Errorf("motion = %+v, want one PointerMove", motion)
	}

	release := l.pointerEvents(tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionRelease})
	if len(release) != 2 || release[0].Kind != calendar.PointerUp || release[1].Kind != calendar.PointerClick {
		t.Errorf("release = %+v, want PointerUp then PointerClick", release)
	}

	wheel := l.pointerEvents(tea.MouseMsg{X: 12, Y: 6, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if len(wheel) != 0 {
		t.Errorf("wheel = %+v, want no events", wheel)
	}
}

func TestVisibleRowsAndScroll(t *testing.T) {
	grid := calendar.Grid{StartHour: 7, EndHour: 18, HourHeight: 4} // 44 rows

	if got := visibleRows(100, grid); got != 44 {
		t.Errorf("visibleRows(100) = %d, want whole grid 44", got)
	}
	if got := visibleRows(22, grid); got != 20 {
		t.Errorf("visibleRows(22) = %d, want 20", got)
	}
	if got := visibleRows(0, grid); got != 1 {
		t.Errorf("visibleRows(0) = %d, want 1", got)
	}

	if got := clampScroll(30, 20, grid); got != 24 {
		t.Errorf("clampScroll(30) = %d, want 24", got)
	}
	if got := clampScroll(-3, 20, grid); got != 0 {
		t.Errorf("clampScroll(-3) = %d, want 0", got)
	}
}
