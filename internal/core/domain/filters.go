package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
)

// FilterAll disables a categorical filter.
const FilterAll = "all"

// TimeRange bounds the entry date of reported tickets.
type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
	RangeAll    TimeRange = "all"
)

// AllTimeRanges lists the ranges in display order.
func AllTimeRanges() []TimeRange {
	return []TimeRange{Range7Days, Range30Days, Range90Days, RangeAll}
}

// IsValid checks if the range is a known value.
func (r TimeRange) IsValid() bool {
	switch r {
	case Range7Days, Range30Days, Range90Days, RangeAll:
		return true
	}
	return false
}

// Days returns the window length, or 0 for RangeAll.
func (r TimeRange) Days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	case Range90Days:
		return 90
	}
	return 0
}

// IsBounded reports whether the range limits entry dates at all.
func (r TimeRange) IsBounded() bool {
	return r.Days() > 0
}

// Cutoff returns the earliest entry day included relative to today.
func (r TimeRange) Cutoff(today time.Time) time.Time {
	return StartOfDay(today).AddDate(0, 0, -r.Days())
}

func (r TimeRange) String() string {
	return string(r)
}

// ReportFilters is the filter state of the reports view.
type ReportFilters struct {
	TimeRange  TimeRange `json:"timeRange"`
	Area       string    `json:"area"`
	Status     string    `json:"status"`
	Technician string    `json:"technician"`
}

// DefaultFilters returns the filter set a fresh or reset view starts with.
func DefaultFilters() ReportFilters {
	return ReportFilters{
		TimeRange:  Range30Days,
		Area:       FilterAll,
		Status:     FilterAll,
		Technician: FilterAll,
	}
}

// MaxFilterValueLength bounds the free-form area and technician filters.
const MaxFilterValueLength = 200

// Normalize trims every field and replaces empty ones with their defaults.
func (f ReportFilters) Normalize() ReportFilters {
	f.TimeRange = TimeRange(strings.TrimSpace(string(f.TimeRange)))
	f.Area = strings.TrimSpace(f.Area)
	f.Status = strings.TrimSpace(f.Status)
	f.Technician = strings.TrimSpace(f.Technician)

	def := DefaultFilters()
	if f.TimeRange == "" {
		f.TimeRange = def.TimeRange
	}
	if f.Area == "" {
		f.Area = def.Area
	}
	if f.Status == "" {
		f.Status = def.Status
	}
	if f.Technician == "" {
		f.Technician = def.Technician
	}
	return f
}

// Validate checks the enumerated fields and bounds the free-form ones.
func (f ReportFilters) Validate() error {
	errs := apperrors.NewValidationErrors()

	if !f.TimeRange.IsValid() {
		errs.Add("timeRange", "Must be one of: 7d, 30d, 90d, all")
	}
	if f.Status != FilterAll && !TicketStatus(f.Status).IsValid() {
		errs.Add("status", "Must be one of: all, open, in_progress, overdue, completed")
	}
	if len(f.Area) > MaxFilterValueLength {
		errs.Add("area", fmt.Sprintf("Must be at most %d characters", MaxFilterValueLength))
	}
	if len(f.Technician) > MaxFilterValueLength {
		errs.Add("technician", fmt.Sprintf("Must be at most %d characters", MaxFilterValueLength))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// IsDefault reports whether f equals the reset state.
func (f ReportFilters) IsDefault() bool {
	return f == DefaultFilters()
}

// FilterOptions holds the values the filter controls offer.
type FilterOptions struct {
	TimeRanges  []TimeRange    `json:"timeRanges"`
	Areas       []string       `json:"areas"`
	Statuses    []TicketStatus `json:"statuses"`
	Technicians []string       `json:"technicians"`
}
