package ports

import (
	"context"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

// TicketRepository is the data-loading collaborator for tickets.
// Implementations return the complete list; the view never paginates.
type TicketRepository interface {
	ListAll(ctx context.Context) ([]domain.Ticket, error)
}

// UserRepository is the data-loading collaborator for users.
type UserRepository interface {
	ListAll(ctx context.Context) ([]domain.User, error)
}

// FilterStore persists report filters per session.
// Get returns ok=false when the session has no stored filters.
type FilterStore interface {
	Get(ctx context.Context, sessionID string) (filters domain.ReportFilters, ok bool, err error)
	Save(ctx context.Context, sessionID string, filters domain.ReportFilters) error
	Delete(ctx context.Context, sessionID string) error
}
