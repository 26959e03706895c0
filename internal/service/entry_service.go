package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/logger"
	"github.com/andy/timeledger/internal/repository"
	"github.com/rs/zerolog"
)

// EntryInput carries the editable fields of a time entry
type EntryInput struct {
	ClientID    string
	Date        time.Time
	Start       domain.ClockTime
	End         domain.ClockTime
	Project     string
	Description string
}

// EntryService manages time entries and the uninvoiced-entry selection
type EntryService interface {
	Create(ctx context.Context, input EntryInput) (*domain.TimeEntry, error)
	Get(ctx context.Context, id string) (*domain.TimeEntry, error)
	Update(ctx context.Context, id string, input EntryInput) (*domain.TimeEntry, error)

	// Reschedule moves an entry to another day and span, keeping its text
	Reschedule(ctx context.Context, id string, date time.Time, start, end domain.ClockTime) (*domain.TimeEntry, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repository.EntryFilter) ([]*domain.TimeEntry, error)

	// SelectUninvoiced returns the client's entries that are not on any
	// invoice, dated on or before cutoff when one is given, oldest first.
	SelectUninvoiced(ctx context.Context, clientID string, cutoff *time.Time) ([]*domain.TimeEntry, error)
}

type entryService struct {
	entryRepo  repository.TimeEntryRepository
	clientRepo repository.ClientRepository
	log        zerolog.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(
	entryRepo repository.TimeEntryRepository,
	clientRepo repository.ClientRepository,
) EntryService {
	return &entryService{
		entryRepo:  entryRepo,
		clientRepo: clientRepo,
		log:        logger.WithComponent("entries"),
	}
}

func (s *entryService) Create(ctx context.Context, input EntryInput) (*domain.TimeEntry, error) {
	if _, err := s.clientRepo.GetByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	entry, err := domain.NewTimeEntry(input.ClientID, input.Date, input.Start, input.End, input.Project, input.Description)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("entry_id", entry.ID).
		Str("client_id", entry.ClientID).
		Float64("hours", entry.Hours).
		Msg("time entry created")
	return entry, nil
}

func (s *entryService) Get(ctx context.Context, id string) (*domain.TimeEntry, error) {
	return s.entryRepo.GetByID(ctx, id)
}

func (s *entryService) Update(ctx context.Context, id string, input EntryInput) (*domain.TimeEntry, error) {
	entry, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.GetByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	entry.ClientID = input.ClientID
	entry.Project = input.Project
	entry.Description = input.Description
	if err := entry.Reschedule(input.Date, input.Start, input.End); err != nil {
		return nil, err
	}
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().Str("entry_id", entry.ID).Msg("time entry updated")
	return entry, nil
}

func (s *entryService) Reschedule(
	ctx context.Context,
	id string,
	date time.Time,
	start, end domain.ClockTime,
) (*domain.TimeEntry, error) {
	entry, err := s.editable(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.Reschedule(date, start, end); err != nil {
		return nil, err
	}
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("entry_id", entry.ID).
		Str("date", entry.Date.Format(domain.DateLayout)).
		Str("start", entry.StartTime.String()).
		Str("end", entry.EndTime.String()).
		Msg("time entry moved")
	return entry, nil
}

func (s *entryService) Delete(ctx context.Context, id string) error {
	if _, err := s.editable(ctx, id); err != nil {
		return err
	}
	if err := s.entryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("entry_id", id).Msg("time entry deleted")
	return nil
}

// editable loads an entry and rejects it when an invoice has claimed it
func (s *entryService) editable(ctx context.Context, id string) (*domain.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.IsLocked() {
		return nil, domain.NewValidationError("invoice_id", "entry %s is on invoice %s and cannot be changed", id, *entry.InvoiceID)
	}
	return entry, nil
}

func (s *entryService) List(ctx context.Context, filter repository.EntryFilter) ([]*domain.TimeEntry, error) {
	return s.entryRepo.List(ctx, filter)
}

func (s *entryService) SelectUninvoiced(ctx context.Context, clientID string, cutoff *time.Time) ([]*domain.TimeEntry, error) {
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	if cutoff != nil {
		day := domain.TruncateDay(*cutoff)
		cutoff = &day
	}

	entries, err := s.entryRepo.ListUninvoiced(ctx, clientID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select uninvoiced entries: %w", err)
	}
	return entries, nil
}
