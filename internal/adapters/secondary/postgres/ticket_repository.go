package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
	"github.com/lorrc/ticket-reports/internal/core/utils"
)

const listTicketsSQL = `
SELECT id, external_id, entry_date, completion_date, status, area, technician
FROM tickets
ORDER BY id`

var ticketColumns = []string{"external_id", "entry_date", "completion_date", "status", "area", "technician"}

// TicketRepository is the secondary adapter for ticket snapshots.
type TicketRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository. Timestamps are
// rendered as localized dates in loc.
func NewTicketRepository(pool *pgxpool.Pool, loc *time.Location) *TicketRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketRepository{pool: pool, loc: loc}
}

// ListAll returns every stored ticket.
func (r *TicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, listTicketsSQL)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var (
			id                    int64
			externalID            pgtype.Text
			entryDate, completion pgtype.Timestamptz
			status, area          string
			technician            pgtype.Text
		)
		if err := rows.Scan(&id, &externalID, &entryDate, &completion, &status, &area, &technician); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}

		tickets = append(tickets, domain.Ticket{
			ID:             utils.FromText(externalID, fmt.Sprint(id)),
			EntryDate:      utils.FromTimestamptz(entryDate, r.loc),
			CompletionDate: utils.FromTimestamptz(completion, r.loc),
			Status:         domain.TicketStatus(status),
			Area:           area,
			Technician:     utils.FromText(technician, domain.NotAvailable),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

// ReplaceAll swaps the stored tickets for the given ones.
func (r *TicketRepository) ReplaceAll(ctx context.Context, tickets []domain.Ticket) (int64, error) {
	db := dbFrom(ctx, r.pool)

	if _, err := db.Exec(ctx, "DELETE FROM tickets"); err != nil {
		return 0, fmt.Errorf("clear tickets: %w", err)
	}

	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		technician := t.Technician
		if !t.HasTechnician() {
			technician = ""
		}
		rows = append(rows, []any{
			utils.ToText(t.ID),
			utils.ToTimestamptz(t.EntryDate, r.loc),
			utils.ToTimestamptz(t.CompletionDate, r.loc),
			string(t.Status),
			t.Area,
			utils.ToText(technician),
		})
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{"tickets"}, ticketColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy tickets: %w", err)
	}
	return n, nil
}
