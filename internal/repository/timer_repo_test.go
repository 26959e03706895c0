package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andy/timeledger/internal/domain"
)

func TestTimerRepoSaveGetDelete(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	repo := NewTimerRepo(database, testAccount)

	timer, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if timer != nil {
		t.Fatalf("Get() = %+v, want nil", timer)
	}

	acme := seedClient(t, clients, "acme", "150")
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	timer = domain.NewActiveTimer(acme.ID, "Web", "homepage", start)
	timer.Pause(start.Add(30 * time.Minute))
	if err := repo.Save(ctx, timer); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got == nil || got.State() != domain.TimerStatePaused || !got.StartTime.Equal(start) {
		t.Fatalf("Get() = %+v, want paused timer started at %v", got, start)
	}

	if err := repo.Delete(ctx); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if got, _ := repo.Get(ctx); got != nil {
		t.Fatal("timer still present after Delete()")
	}
}
