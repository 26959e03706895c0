package service

import (
	"context"
	"sort"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/repository"
	"github.com/shopspring/decimal"
)

// WeekSummary provides weekly time tracking analytics
type WeekSummary struct {
	WeekStart     time.Time
	TotalHours    float64
	UnbilledHours float64
	TotalValue    decimal.Decimal
	ByClient      map[string]float64 // Hours by client ID
	ByDay         map[time.Weekday]float64
}

// ClientSummary provides client-specific time and revenue analytics
type ClientSummary struct {
	ClientID      string
	TotalHours    float64
	TotalValue    decimal.Decimal
	UnbilledHours float64
	UnbilledValue decimal.Decimal
	Entries       []*domain.TimeEntry
}

// Dashboard summarizes what is owed and what is still unbilled
type Dashboard struct {
	UnbilledHours      float64
	UnbilledValue      decimal.Decimal
	OutstandingBalance decimal.Decimal // sent, overdue and partially paid invoices
	OverdueCount       int
	OverdueBalance     decimal.Decimal
	DraftCount         int
	TotalPaid          decimal.Decimal
}

// ReportService provides aggregations and analytics
type ReportService interface {
	// Time tracking summaries
	GetWeekSummary(ctx context.Context, weekStart time.Time) (*WeekSummary, error)
	GetClientSummary(ctx context.Context, clientID string, start, end time.Time) (*ClientSummary, error)

	// Financial summaries
	GetDashboard(ctx context.Context, today time.Time) (*Dashboard, error)
	// GetRevenueByMonth sums payments received by the month they were dated
	GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error)
}

type reportService struct {
	entryRepo   repository.TimeEntryRepository
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
}

// NewReportService creates a new report service
func NewReportService(
	entryRepo repository.TimeEntryRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
) ReportService {
	return &reportService{
		entryRepo:   entryRepo,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
	}
}

// rates maps client id to hourly rate
func (s *reportService) rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(clients))
	for _, c := range clients {
		rates[c.ID] = c.HourlyRate
	}
	return rates, nil
}

func (s *reportService) GetWeekSummary(ctx context.Context, weekStart time.Time) (*WeekSummary, error) {
	weekStart = domain.TruncateDay(weekStart)
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}
	weekEnd := weekStart.AddDate(0, 0, 6)

	entries, err := s.entryRepo.List(ctx, repository.EntryFilter{From: &weekStart, To: &weekEnd})
	if err != nil {
		return nil, err
	}
	rates, err := s.rates(ctx)
	if err != nil {
		return nil, err
	}

	summary := &WeekSummary{
		WeekStart:  weekStart,
		TotalValue: decimal.Zero,
		ByClient:   make(map[string]float64),
		ByDay:      make(map[time.Weekday]float64),
	}
	for _, entry := range entries {
		summary.TotalHours += entry.Hours
		if entry.InvoiceID == nil {
			summary.UnbilledHours += entry.Hours
		}
		summary.TotalValue = summary.TotalValue.Add(domain.LineAmount(entry.Hours, rates[entry.ClientID]))
		summary.ByClient[entry.ClientID] += entry.Hours
		summary.ByDay[entry.Date.Weekday()] += entry.Hours
	}
	summary.TotalValue = domain.RoundMoney(summary.TotalValue)
	return summary, nil
}

func (s *reportService) GetClientSummary(
	ctx context.Context,
	clientID string,
	start, end time.Time,
) (*ClientSummary, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	from, to := domain.TruncateDay(start), domain.TruncateDay(end)
	entries, err := s.entryRepo.List(ctx, repository.EntryFilter{ClientID: clientID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	summary := &ClientSummary{
		ClientID:      clientID,
		TotalValue:    decimal.Zero,
		UnbilledValue: decimal.Zero,
		Entries:       entries,
	}
	for _, entry := range entries {
		value := domain.LineAmount(entry.Hours, client.HourlyRate)
		summary.TotalHours += entry.Hours
		summary.TotalValue = summary.TotalValue.Add(value)
		if entry.InvoiceID == nil {
			summary.UnbilledHours += entry.Hours
			summary.UnbilledValue = summary.UnbilledValue.Add(value)
		}
	}
	return summary, nil
}

func (s *reportService) GetDashboard(ctx context.Context, today time.Time) (*Dashboard, error) {
	today = domain.TruncateDay(today)

	entries, err := s.entryRepo.List(ctx, repository.EntryFilter{UninvoicedOnly: true})
	if err != nil {
		return nil, err
	}
	rates, err := s.rates(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		UnbilledValue:      decimal.Zero,
		OutstandingBalance: decimal.Zero,
		OverdueBalance:     decimal.Zero,
		TotalPaid:          decimal.Zero,
	}
	for _, entry := range entries {
		d.UnbilledHours += entry.Hours
		d.UnbilledValue = d.UnbilledValue.Add(domain.LineAmount(entry.Hours, rates[entry.ClientID]))
	}
	d.UnbilledValue = domain.RoundMoney(d.UnbilledValue)

	for _, inv := range invoices {
		d.TotalPaid = d.TotalPaid.Add(inv.TotalPaid())

		switch inv.EffectiveStatus(today) {
		case domain.InvoiceStatusDraft:
			d.DraftCount++
		case domain.InvoiceStatusOverdue:
			d.OverdueCount++
			d.OverdueBalance = d.OverdueBalance.Add(inv.Balance())
			d.OutstandingBalance = d.OutstandingBalance.Add(inv.Balance())
		case domain.InvoiceStatusSent, domain.InvoiceStatusPartiallyPaid:
			d.OutstandingBalance = d.OutstandingBalance.Add(inv.Balance())
		}
	}
	return d, nil
}

func (s *reportService) GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}

	revenue := make(map[time.Month]decimal.Decimal, 12)
	for m := time.January; m <= time.December; m++ {
		revenue[m] = decimal.Zero
	}
	for _, inv := range invoices {
		for _, p := range inv.Payments {
			if p.Date.Year() == year {
				revenue[p.Date.Month()] = revenue[p.Date.Month()].Add(p.Amount)
			}
		}
	}
	return revenue, nil
}

// SortedClientHours returns ByClient ids ordered by descending hours
func (w *WeekSummary) SortedClientHours() []string {
	ids := make([]string, 0, len(w.ByClient))
	for id := range w.ByClient {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if w.ByClient[ids[i]] == w.ByClient[ids[j]] {
			return ids[i] < ids[j]
		}
		return w.ByClient[ids[i]] > w.ByClient[ids[j]]
	})
	return ids
}
