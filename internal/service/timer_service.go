package service

import (
	"context"
	"errors"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/logger"
	"github.com/andy/timeledger/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrTimerAlreadyRunning = errors.New("timer is already running")
	ErrTimerNotRunning     = errors.New("timer is not running")
	ErrTimerNotPaused      = errors.New("timer is not paused")
	ErrNoActiveTimer       = errors.New("no active timer")
)

// TimerService manages the stopwatch that turns into a time entry
type TimerService interface {
	// GetState returns the current timer state (idle, running, paused)
	GetState(ctx context.Context) (domain.TimerState, error)

	// GetActiveTimer returns the current active timer, or nil if idle
	GetActiveTimer(ctx context.Context) (*domain.ActiveTimer, error)

	// Start creates a new timer (only from Idle state)
	Start(ctx context.Context, clientID, project, description string) (*domain.ActiveTimer, error)

	Pause(ctx context.Context) error
	Resume(ctx context.Context) error

	// Stop stops the timer and records the elapsed time as an entry
	Stop(ctx context.Context) (*domain.TimeEntry, error)

	// Discard drops the active timer without creating an entry
	Discard(ctx context.Context) error

	// ElapsedDuration returns the elapsed time of the active timer
	ElapsedDuration(ctx context.Context) (time.Duration, error)

	// AccruedValue is the elapsed time priced at the timer client's rate
	AccruedValue(ctx context.Context) (decimal.Decimal, error)
}

type timerService struct {
	timerRepo  repository.TimerRepository
	entryRepo  repository.TimeEntryRepository
	clientRepo repository.ClientRepository
	now        func() time.Time
	log        zerolog.Logger
}

// NewTimerService creates a new timer service
func NewTimerService(
	timerRepo repository.TimerRepository,
	entryRepo repository.TimeEntryRepository,
	clientRepo repository.ClientRepository,
) TimerService {
	return &timerService{
		timerRepo:  timerRepo,
		entryRepo:  entryRepo,
		clientRepo: clientRepo,
		now:        time.Now,
		log:        logger.WithComponent("timer"),
	}
}

func (s *timerService) GetState(ctx context.Context) (domain.TimerState, error) {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return "", err
	}
	if timer == nil {
		return domain.TimerStateIdle, nil
	}
	return timer.State(), nil
}

func (s *timerService) GetActiveTimer(ctx context.Context) (*domain.ActiveTimer, error) {
	return s.timerRepo.Get(ctx)
}

func (s *timerService) active(ctx context.Context) (*domain.ActiveTimer, error) {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if timer == nil {
		return nil, ErrNoActiveTimer
	}
	return timer, nil
}

func (s *timerService) Start(ctx context.Context, clientID, project, description string) (*domain.ActiveTimer, error) {
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	existing, err := s.timerRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTimerAlreadyRunning
	}

	timer := domain.NewActiveTimer(clientID, project, description, s.now())
	if err := s.timerRepo.Save(ctx, timer); err != nil {
		return nil, err
	}
	s.log.Info().Str("client_id", clientID).Msg("timer started")
	return timer, nil
}

func (s *timerService) Pause(ctx context.Context) error {
	timer, err := s.active(ctx)
	if err != nil {
		return err
	}
	if timer.State() != domain.TimerStateRunning {
		return ErrTimerNotRunning
	}
	timer.Pause(s.now())
	return s.timerRepo.Save(ctx, timer)
}

func (s *timerService) Resume(ctx context.Context) error {
	timer, err := s.active(ctx)
	if err != nil {
		return err
	}
	if timer.State() != domain.TimerStatePaused {
		return ErrTimerNotPaused
	}
	timer.Resume(s.now())
	return s.timerRepo.Save(ctx, timer)
}

func (s *timerService) Stop(ctx context.Context) (*domain.TimeEntry, error) {
	timer, err := s.active(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := timer.ToTimeEntry(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.timerRepo.Delete(ctx); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("entry_id", entry.ID).
		Str("client_id", entry.ClientID).
		Float64("hours", entry.Hours).
		Msg("timer stopped")
	return entry, nil
}

func (s *timerService) Discard(ctx context.Context) error {
	if _, err := s.active(ctx); err != nil {
		return err
	}
	if err := s.timerRepo.Delete(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("timer discarded")
	return nil
}

func (s *timerService) ElapsedDuration(ctx context.Context) (time.Duration, error) {
	timer, err := s.active(ctx)
	if err != nil {
		return 0, err
	}
	return timer.Elapsed(s.now()), nil
}

func (s *timerService) AccruedValue(ctx context.Context) (decimal.Decimal, error) {
	timer, err := s.active(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	client, err := s.clientRepo.GetByID(ctx, timer.ClientID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.LineAmount(timer.Elapsed(s.now()).Hours(), client.HourlyRate), nil
}
