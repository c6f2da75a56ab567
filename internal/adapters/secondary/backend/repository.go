package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

const (
	ticketsTable = "tickets"
	usersTable   = "users"
)

// ticketRow is the wire shape of a ticket in the hosted backend.
type ticketRow struct {
	ID             json.RawMessage `json:"id"`
	EntryDate      *string         `json:"entry_date"`
	CompletionDate *string         `json:"completion_date"`
	Status         string          `json:"status"`
	Area           *string         `json:"area"`
	Technician     *string         `json:"technician"`
}

type userRow struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// TicketRepository loads tickets from the hosted backend.
type TicketRepository struct {
	client *Client
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(client *Client) *TicketRepository {
	return &TicketRepository{client: client}
}

// ListAll returns every ticket.
func (r *TicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	var rows []ticketRow
	query := url.Values{"select": {"id,entry_date,completion_date,status,area,technician"}}
	if err := r.client.list(ctx, ticketsTable, query, &rows); err != nil {
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, mapTicketRow(row))
	}
	return tickets, nil
}

// UserRepository loads users from the hosted backend.
type UserRepository struct {
	client *Client
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository.
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// ListAll returns every user.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.client.list(ctx, usersTable, url.Values{"select": {"name,role"}}, &rows); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, domain.User{
			Name: strings.TrimSpace(row.Name),
			Role: domain.Role(strings.TrimSpace(row.Role)),
		})
	}
	return users, nil
}

func mapTicketRow(row ticketRow) domain.Ticket {
	technician := deref(row.Technician)
	if technician == "" {
		technician = domain.NotAvailable
	}

	return domain.Ticket{
		ID:             rawID(row.ID),
		EntryDate:      deref(row.EntryDate),
		CompletionDate: deref(row.CompletionDate),
		Status:         domain.TicketStatus(strings.ToLower(strings.TrimSpace(row.Status))),
		Area:           deref(row.Area),
		Technician:     technician,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// rawID accepts numeric and string identifiers alike.
func rawID(raw json.RawMessage) string {
	id := strings.TrimSpace(string(raw))
	if id == "null" {
		return ""
	}
	return strings.Trim(id, `"`)
}
