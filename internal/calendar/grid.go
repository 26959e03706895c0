// Package calendar maps a weekly time grid to pointer coordinates and turns
// pointer gestures into time entry requests. It has no rendering code; the
// TUI (or any other front end) feeds it PointerEvents and draws its Preview.
package calendar

import (
	"fmt"
	"math"

	"github.com/andy/timeledger/internal/domain"
)

// SnapMinutes is the grid resolution
const SnapMinutes = 15

// Grid is the visible hour range of a day column. Y is measured in the
// caller's units (pixels, terminal rows) from the top of the column.
type Grid struct {
	StartHour  int
	EndHour    int
	HourHeight float64
}

// Validate returns an error if the grid cannot be drawn
func (g Grid) Validate() error {
	if g.StartHour < 0 || g.EndHour > 24 || g.StartHour >= g.EndHour {
		return fmt.Errorf("invalid hour range %d-%d", g.StartHour, g.EndHour)
	}
	if g.HourHeight <= 0 {
		return fmt.Errorf("hour height must be positive, got %v", g.HourHeight)
	}
	return nil
}

// Height is the height of the whole visible range
func (g Grid) Height() float64 {
	return float64(g.EndHour-g.StartHour) * g.HourHeight
}

// QuarterHeight is the height of one snap cell
func (g Grid) QuarterHeight() float64 {
	return g.HourHeight * SnapMinutes / 60
}

// First and Last are the visible bounds as clock times
func (g Grid) First() domain.ClockTime { return domain.NewClockTime(g.StartHour, 0) }
func (g Grid) Last() domain.ClockTime  { return domain.NewClockTime(g.EndHour, 0) }

func (g Grid) clampY(y float64) float64 {
	return math.Max(0, math.Min(y, g.Height()))
}

func (g Grid) clampTime(t domain.ClockTime) domain.ClockTime {
	if t < g.First() {
		return g.First()
	}
	if t > g.Last() {
		return g.Last()
	}
	return t
}

// cells converts y into a fractional number of snap cells below the top
func (g Grid) cells(y float64) float64 {
	return g.clampY(y) / g.QuarterHeight()
}

func (g Grid) cellTime(n float64) domain.ClockTime {
	return g.clampTime(g.First() + domain.ClockTime(int(n)*SnapMinutes))
}

// YToTime returns the quarter hour nearest to y
func (g Grid) YToTime(y float64) domain.ClockTime {
	return g.cellTime(math.Round(g.cells(y)))
}

// SnapDown returns the start of the quarter hour containing y
func (g Grid) SnapDown(y float64) domain.ClockTime {
	return g.cellTime(math.Floor(g.cells(y)))
}

// TimeToY returns the offset of t, clamped to the visible range
func (g Grid) TimeToY(t domain.ClockTime) float64 {
	offset := g.clampTime(t) - g.First()
	return float64(offset) / SnapMinutes * g.QuarterHeight()
}

// Snap moves y to the nearest quarter-hour line
func (g Grid) Snap(y float64) float64 {
	return math.Round(g.cells(y)) * g.QuarterHeight()
}

// Preset is a named visible hour range
type Preset struct {
	Name      string
	Label     string
	StartHour int
	EndHour   int
}

var Presets = []Preset{
	{Name: "business", Label: "Business hours", StartHour: 7, EndHour: 18},
	{Name: "workday", Label: "Work day", StartHour: 6, EndHour: 20},
	{Name: "extended", Label: "Extended", StartHour: 5, EndHour: 23},
	{Name: "full", Label: "Full day", StartHour: 0, EndHour: 24},
}

// PresetByName looks up a preset
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// WithPreset returns g showing the preset's hours
func (g Grid) WithPreset(p Preset) Grid {
	g.StartHour, g.EndHour = p.StartHour, p.EndHour
	return g
}
