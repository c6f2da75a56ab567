package ports

import (
	"context"

	"github.com/lorrc/ticket-reports/internal/core/domain"
)

// ReportService defines the core operations of the reports view.
type ReportService interface {
	// LoadDataset fetches the full ticket and user lists from the data source.
	LoadDataset(ctx context.Context) (*domain.Dataset, error)
	// BuildReport derives a report from an already loaded dataset.
	BuildReport(ds *domain.Dataset, filters domain.ReportFilters) (*domain.Report, error)
	// GenerateReport loads the dataset and builds a report in one step.
	GenerateReport(ctx context.Context, filters domain.ReportFilters) (*domain.Report, error)
	// Options lists the values the filter controls offer.
	Options(ctx context.Context) (*domain.FilterOptions, error)
}

// FilterService defines the port for the per-session filter state.
type FilterService interface {
	Current(ctx context.Context, sessionID string) (domain.ReportFilters, error)
	Update(ctx context.Context, sessionID string, filters domain.ReportFilters) (domain.ReportFilters, error)
	Reset(ctx context.Context, sessionID string) (domain.ReportFilters, error)
}

// RefreshBroadcaster tells live report viewers that the data source changed.
type RefreshBroadcaster interface {
	BroadcastRefresh()
}
