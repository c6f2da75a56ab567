package postgres

import (
	"context"
	"fmt"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

// SnapshotResult counts the rows written by an import.
type SnapshotResult struct {
	Tickets int64
	Users   int64
}

// Snapshotter stores a loaded dataset so reports can be served from the
// database when the hosted backend is not reachable.
type Snapshotter struct {
	tm      *TransactionManager
	tickets *TicketRepository
	users   *UserRepository
}

func NewSnapshotter(tm *TransactionManager, tickets *TicketRepository, users *UserRepository) *Snapshotter {
	return &Snapshotter{tm: tm, tickets: tickets, users: users}
}

// Import replaces the stored tickets and users in one transaction.
func (s *Snapshotter) Import(ctx context.Context, ds *domain.Dataset) (SnapshotResult, error) {
	var res SnapshotResult
	if ds == nil {
		return res, fmt.Errorf("import snapshot: nil dataset")
	}

	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if res.Users, err = s.users.ReplaceAll(ctx, ds.Users); err != nil {
			return err
		}
		res.Tickets, err = s.tickets.ReplaceAll(ctx, ds.Tickets)
		return err
	})
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("import snapshot: %w", err)
	}
	return res, nil
}
