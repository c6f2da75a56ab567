package domain

import (
	"strings"
	"time"
)

// NotAvailable marks a missing technician or date on a ticket.
const NotAvailable = "N/A"

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusOverdue    TicketStatus = "overdue"
	StatusCompleted  TicketStatus = "completed"
)

// AllStatuses lists the statuses in display order.
func AllStatuses() []TicketStatus {
	return []TicketStatus{StatusOpen, StatusInProgress, StatusOverdue, StatusCompleted}
}

// IsValid checks if the status is a known value.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusOverdue, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s TicketStatus) String() string {
	return string(s)
}

// Ticket is a service work item as delivered by the data backend.
// Dates stay in their localized string form; parsing happens at report time.
type Ticket struct {
	ID             string
	EntryDate      string
	CompletionDate string
	Status         TicketStatus
	Area           string
	Technician     string
}

// AreaLabel returns the ticket's area, or NotAvailable when it has none.
// Charts, filter options and the area filter all use this label.
func (t Ticket) AreaLabel() string {
	if strings.TrimSpace(t.Area) == "" {
		return NotAvailable
	}
	return t.Area
}

// IsCompleted reports whether the ticket has been resolved.
func (t Ticket) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsActive reports whether the ticket still needs work.
func (t Ticket) IsActive() bool {
	return !t.IsCompleted()
}

// HasTechnician reports whether a real technician is assigned.
func (t Ticket) HasTechnician() bool {
	return t.Technician != "" && t.Technician != NotAvailable
}

// ProcessingDays returns the days between entry and completion.
// ok is false unless both dates parse.
func (t Ticket) ProcessingDays(loc *time.Location) (days float64, ok bool) {
	entry, ok := ParseLocalDate(t.EntryDate, loc)
	if !ok {
		return 0, false
	}
	completed, ok := ParseLocalDate(t.CompletionDate, loc)
	if !ok {
		return 0, false
	}
	return DaysBetween(entry, completed), true
}
