package utils

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

// ToText converts a string to a pgtype.Text.
// An empty string is stored as NULL.
func ToText(s string) pgtype.Text {
	return pgtype.Text{
		String: s,
		Valid:  s != "",
	}
}

// FromText converts a pgtype.Text to a string, NULL becoming fallback.
func FromText(t pgtype.Text, fallback string) string {
	if !t.Valid || t.String == "" {
		return fallback
	}
	return t.String
}

// ToTimestamptz parses a localized ticket date. Values that do not parse
// (blank, "N/A") are stored as NULL.
func ToTimestamptz(value string, loc *time.Location) pgtype.Timestamptz {
	t, ok := domain.ParseLocalDate(value, loc)
	if !ok {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// FromTimestamptz renders a timestamp as a localized ticket date in loc.
// NULL becomes "".
func FromTimestamptz(ts pgtype.Timestamptz, loc *time.Location) string {
	if !ts.Valid {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return domain.FormatLocalDateTime(ts.Time.In(loc))
}
