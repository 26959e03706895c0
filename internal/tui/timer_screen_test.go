package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTimerScreenQuickStartAndDiscard(t *testing.T) {
	a := newTestApp(t)
	client, _ := seedWeek(t, a)

	m := NewTimerModel(a)
	drive(t, m, m.Init())
	if len(m.clients) != 1 || m.timer != nil {
		t.Fatalf("initial state: %d clients, timer %v", len(m.clients), m.timer)
	}

	_, cmd := m.Update(runeKey("1"))
	_, tick := m.Update(cmd())
	if m.timer == nil || m.timer.ClientID != client.ID {
		t.Fatalf("timer after quick start = %+v, want running for %s", m.timer, client.ID)
	}
	if tick == nil {
		t.Error("a running timer should start ticking")
	}

	// a stale tick from an older chain is ignored
	if _, cmd := m.Update(TimerTickMsg{Screen: ScreenTimer, id: m.tickID - 1}); cmd != nil {
		t.Error("stale tick should not reschedule")
	}

	_, cmd = m.Update(runeKey("d"))
	m.Update(cmd())
	if m.timer != nil {
		t.Fatal("timer should be gone after discard")
	}
	if m.status != "Timer discarded" {
		t.Errorf("status = %q, want Timer discarded", m.status)
	}
	if got, _ := a.TimerService.GetActiveTimer(context.Background()); got != nil {
		t.Error("discarded timer is still stored")
	}
}

func TestTimerScreenDescriptionCapturesInput(t *testing.T) {
	a := newTestApp(t)
	seedWeek(t, a)

	m := NewTimerModel(a)
	drive(t, m, m.Init())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.IsCapturingInput() {
		t.Fatal("enter should focus the description")
	}
	m.Update(runeKey("w"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(cmd())

	if m.timer == nil || m.timer.Description != "w" {
		t.Fatalf("timer = %+v, want description %q", m.timer, "w")
	}
}
