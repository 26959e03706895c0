package calendar

import (
	"math"
	"time"

	"github.com/andy/timeledger/internal/domain"
)

type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	// PointerClick follows an Up that ended a press, the way browsers report
	// it. Front ends without native clicks synthesize one after each Up.
	PointerClick
)

type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
)

// PointerEvent is a pointer action in layout coordinates
type PointerEvent struct {
	Kind   PointerKind
	X, Y   float64
	Button Button
}

// Layout tells the engine where the day columns are
type Layout interface {
	// DayAt returns the day column index under x, or -1 outside every column
	DayAt(x float64) int
	// ColumnTop is the y of the first visible hour line
	ColumnTop() float64
}

// Block is a rendered time entry
type Block struct {
	EntryID  string
	DayIndex int
	Start    domain.ClockTime
	End      domain.ClockTime
}

func (b Block) duration() domain.ClockTime { return b.End - b.Start }

type State interface{ isState() }

type Idle struct{}

// DraggingNewBlock is a press on empty grid being stretched into a block.
// Y values are relative to the column top.
type DraggingNewBlock struct {
	DayIndex int
	AnchorY  float64
	CurrentY float64
}

// DraggingExistingBlock is a block being carried to a new slot
type DraggingExistingBlock struct {
	Entry           Block
	PointerOffsetY  float64
	PreviewDayIndex int
	PreviewY        float64 // snapped top edge
	moved           bool
}

func (Idle) isState()                  {}
func (DraggingNewBlock) isState()      {}
func (DraggingExistingBlock) isState() {}

type Event interface{ isEvent() }

type NewEntryRequested struct {
	Date  time.Time
	Start domain.ClockTime
	End   domain.ClockTime
}

type MoveRequested struct {
	EntryID string
	Date    time.Time
	Start   domain.ClockTime
	End     domain.ClockTime
}

type EditRequested struct {
	EntryID string
}

func (NewEntryRequested) isEvent() {}
func (MoveRequested) isEvent()     {}
func (EditRequested) isEvent()     {}

// Engine is the drag state machine for one calendar view. It is not safe
// for concurrent use.
type Engine struct {
	grid        Grid
	layout      Layout
	days        []time.Time
	blocks      []Block
	state       State
	justDragged bool
}

// NewEngine creates an idle engine showing the week containing weekStart
func NewEngine(grid Grid, layout Layout, weekStart time.Time) *Engine {
	return &Engine{
		grid:   grid,
		layout: layout,
		days:   WeekDays(WeekStart(weekStart)),
		state:  Idle{},
	}
}

func (e *Engine) Grid() Grid          { return e.grid }
func (e *Engine) State() State        { return e.state }
func (e *Engine) Days() []time.Time   { return e.days }
func (e *Engine) Blocks() []Block     { return e.blocks }
func (e *Engine) JustDragged() bool   { return e.justDragged }
func (e *Engine) SetLayout(l Layout)  { e.layout = l }
func (e *Engine) SetBlocks(b []Block) { e.blocks = b }

// SetGrid changes the visible range and drops any gesture in progress
func (e *Engine) SetGrid(g Grid) {
	e.grid = g
	e.Cancel()
}

// SetWeek shows the week containing t and drops any gesture in progress
func (e *Engine) SetWeek(t time.Time) {
	e.days = WeekDays(WeekStart(t))
	e.Cancel()
}

// Cancel abandons the current gesture
func (e *Engine) Cancel() {
	e.state = Idle{}
}

// Handle advances the state machine. It returns the request produced by
// the event, or nil.
func (e *Engine) Handle(ev PointerEvent) Event {
	y := ev.Y - e.layout.ColumnTop()

	switch st := e.state.(type) {
	case Idle:
		switch ev.Kind {
		case PointerDown:
			if ev.Button == ButtonLeft {
				e.press(ev.X, y)
			}
		case PointerClick:
			return e.click(ev.X, y)
		}

	case DraggingNewBlock:
		switch ev.Kind {
		case PointerMove:
			st.CurrentY = e.grid.Snap(y)
			e.state = st
		case PointerUp:
			st.CurrentY = e.grid.Snap(y)
			e.state = Idle{}
			return e.finishNew(st)
		}

	case DraggingExistingBlock:
		switch ev.Kind {
		case PointerMove:
			e.state = e.carry(st, ev.X, y)
		case PointerUp:
			st = e.carry(st, ev.X, y)
			e.state = Idle{}
			return e.finishMove(st)
		}
	}
	return nil
}

func (e *Engine) press(x, y float64) {
	day := e.layout.DayAt(x)
	if day < 0 || day >= len(e.days) || y < 0 || y > e.grid.Height() {
		return
	}

	if b, ok := e.hit(day, y); ok {
		top := e.grid.TimeToY(b.Start)
		e.state = DraggingExistingBlock{
			Entry:           b,
			PointerOffsetY:  y - top,
			PreviewDayIndex: day,
			PreviewY:        top,
		}
		return
	}

	anchor := e.grid.Snap(y)
	e.state = DraggingNewBlock{DayIndex: day, AnchorY: anchor, CurrentY: anchor}
}

func (e *Engine) click(x, y float64) Event {
	if e.justDragged {
		e.justDragged = false
		return nil
	}
	day := e.layout.DayAt(x)
	if b, ok := e.hit(day, y); ok {
		return EditRequested{EntryID: b.EntryID}
	}
	return nil
}

// hit returns the topmost block under y in the column
func (e *Engine) hit(day int, y float64) (Block, bool) {
	for i := len(e.blocks) - 1; i >= 0; i-- {
		b := e.blocks[i]
		if b.DayIndex != day {
			continue
		}
		if y >= e.grid.TimeToY(b.Start) && y < e.grid.TimeToY(b.End) {
			return b, true
		}
	}
	return Block{}, false
}

// NewBlockSpan returns the times a new-block drag currently covers between
// the snapped anchor and pointer. ok is false while the drag is shorter than
// one quarter hour.
func (e *Engine) NewBlockSpan(st DraggingNewBlock) (start, end domain.ClockTime, ok bool) {
	if math.Round(math.Abs(st.CurrentY-st.AnchorY)/e.grid.QuarterHeight()) < 1 {
		return 0, 0, false
	}
	top, bottom := math.Min(st.AnchorY, st.CurrentY), math.Max(st.AnchorY, st.CurrentY)
	return e.grid.YToTime(top), e.grid.YToTime(bottom), true
}

func (e *Engine) finishNew(st DraggingNewBlock) Event {
	start, end, ok := e.NewBlockSpan(st)
	if !ok {
		return nil
	}
	return NewEntryRequested{Date: e.days[st.DayIndex], Start: start, End: end}
}

// carry moves the preview under the pointer, keeping the old column when
// the pointer leaves every column
func (e *Engine) carry(st DraggingExistingBlock, x, y float64) DraggingExistingBlock {
	if day := e.layout.DayAt(x); day >= 0 && day < len(e.days) {
		st.PreviewDayIndex = day
	}
	start, _ := e.placed(st.Entry, y-st.PointerOffsetY)
	st.PreviewY = e.grid.TimeToY(start)
	if st.PreviewDayIndex != st.Entry.DayIndex || start != st.Entry.Start {
		st.moved = true
	}
	return st
}

// placed snaps a block top to the nearest quarter and keeps the block's
// duration inside the visible range when it fits
func (e *Engine) placed(b Block, top float64) (start, end domain.ClockTime) {
	dur := b.duration()
	start = e.grid.YToTime(top)
	if start+dur > e.grid.Last() {
		start = e.grid.Last() - dur
	}
	if start < e.grid.First() {
		start = e.grid.First()
	}
	end = start + dur
	if end > domain.MinutesPerDay {
		end = domain.MinutesPerDay
	}
	return start, end
}

func (e *Engine) finishMove(st DraggingExistingBlock) Event {
	start, end := e.placed(st.Entry, st.PreviewY)
	if st.PreviewDayIndex == st.Entry.DayIndex && start == st.Entry.Start {
		return nil
	}
	e.justDragged = true
	return MoveRequested{
		EntryID: st.Entry.EntryID,
		Date:    e.days[st.PreviewDayIndex],
		Start:   start,
		End:     end,
	}
}

// Preview returns the block that should be drawn for the gesture in
// progress. Its EntryID is empty for a new block.
func (e *Engine) Preview() (Block, bool) {
	switch st := e.state.(type) {
	case DraggingNewBlock:
		start, end, ok := e.NewBlockSpan(st)
		if !ok {
			return Block{}, false
		}
		return Block{DayIndex: st.DayIndex, Start: start, End: end}, true
	case DraggingExistingBlock:
		start, end := e.placed(st.Entry, st.PreviewY)
		return Block{EntryID: st.Entry.EntryID, DayIndex: st.PreviewDayIndex, Start: start, End: end}, true
	}
	return Block{}, false
}
