package services

import (
	"context"
	"strings"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

// FilterService keeps the reports view's filter state per session.
type FilterService struct {
	store ports.FilterStore
}

var _ ports.FilterService = (*FilterService)(nil)

// NewFilterService creates a new FilterService.
func NewFilterService(store ports.FilterStore) *FilterService {
	return &FilterService{store: store}
}

// Current returns the session's filters, or the defaults if none are stored.
func (s *FilterService) Current(ctx context.Context, sessionID string) (domain.ReportFilters, error) {
	if err := requireSession(sessionID); err != nil {
		return domain.ReportFilters{}, err
	}

	filters, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.ReportFilters{}, err
	}
	if !ok {
		return domain.DefaultFilters(), nil
	}
	return filters.Normalize(), nil
}

// Update validates and stores new filters for the session.
func (s *FilterService) Update(ctx context.Context, sessionID string, filters domain.ReportFilters) (domain.ReportFilters, error) {
	if err := requireSession(sessionID); err != nil {
		return domain.ReportFilters{}, err
	}

	filters = filters.Normalize()
	if err := filters.Validate(); err != nil {
		return domain.ReportFilters{}, err
	}

	if err := s.store.Save(ctx, sessionID, filters); err != nil {
		return domain.ReportFilters{}, err
	}
	return filters, nil
}

// Reset restores the default filter set regardless of prior state.
func (s *FilterService) Reset(ctx context.Context, sessionID string) (domain.ReportFilters, error) {
	if err := requireSession(sessionID); err != nil {
		return domain.ReportFilters{}, err
	}

	defaults := domain.DefaultFilters()
	if err := s.store.Save(ctx, sessionID, defaults); err != nil {
		return domain.ReportFilters{}, err
	}
	return defaults, nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.ErrSessionRequired
	}
	return nil
}
