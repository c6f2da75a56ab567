package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

// ReportService derives the reports view from the configured data source.
type ReportService struct {
	ticketRepo ports.TicketRepository
	userRepo   ports.UserRepository
	loc        *time.Location
	now        func() time.Time
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a report service. Either repository may be nil
// when no data backend is configured; loading then fails with
// ErrBackendUnavailable.
func NewReportService(ticketRepo ports.TicketRepository, userRepo ports.UserRepository, loc *time.Location) *ReportService {
	return NewReportServiceWithClock(ticketRepo, userRepo, loc, time.Now)
}

// NewReportServiceWithClock is NewReportService with a fixed time source.
func NewReportServiceWithClock(
	ticketRepo ports.TicketRepository,
	userRepo ports.UserRepository,
	loc *time.Location,
	now func() time.Time,
) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		loc:        loc,
		now:        now,
	}
}

// Today returns the reference date reports are computed against.
func (s *ReportService) Today() time.Time {
	return domain.StartOfDay(s.now().In(s.loc))
}

// LoadDataset fetches all tickets and users.
func (s *ReportService) LoadDataset(ctx context.Context) (*domain.Dataset, error) {
	if s.ticketRepo == nil || s.userRepo == nil {
		return nil, apperrors.ErrBackendUnavailable
	}

	tickets, err := s.ticketRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	return &domain.Dataset{
		Tickets:  tickets,
		Users:    users,
		LoadedAt: s.now().UTC(),
	}, nil
}

// BuildReport validates filters and derives the report from ds.
func (s *ReportService) BuildReport(ds *domain.Dataset, filters domain.ReportFilters) (*domain.Report, error) {
	filters = filters.Normalize()
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if ds == nil {
		ds = &domain.Dataset{}
	}

	return domain.BuildReport(*ds, filters, s.Today()), nil
}

// GenerateReport loads the dataset and builds the report for filters.
func (s *ReportService) GenerateReport(ctx context.Context, filters domain.ReportFilters) (*domain.Report, error) {
	filters = filters.Normalize()
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	ds, err := s.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}

	return s.BuildReport(ds, filters)
}

// Options lists the filter control values for the current dataset.
func (s *ReportService) Options(ctx context.Context) (*domain.FilterOptions, error) {
	ds, err := s.LoadDataset(ctx)
	if err != nil {
		return nil, err
	}

	opts := domain.Options(*ds)
	return &opts, nil
}
