package mocks

import (
	"context"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

var _ ports.TicketRepository = (*MockTicketRepository)(nil)

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockFilterStore is a mock implementation of ports.FilterStore
type MockFilterStore struct {
	mock.Mock
}

var _ ports.FilterStore = (*MockFilterStore)(nil)

func NewMockFilterStore() *MockFilterStore {
	return &MockFilterStore{}
}

func (m *MockFilterStore) Get(ctx context.Context, sessionID string) (domain.ReportFilters, bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.ReportFilters), args.Bool(1), args.Error(2)
}

func (m *MockFilterStore) Save(ctx context.Context, sessionID string, filters domain.ReportFilters) error {
	args := m.Called(ctx, sessionID, filters)
	return args.Error(0)
}

func (m *MockFilterStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockRefreshBroadcaster is a mock implementation of ports.RefreshBroadcaster
type MockRefreshBroadcaster struct {
	mock.Mock
}

var _ ports.RefreshBroadcaster = (*MockRefreshBroadcaster)(nil)

func NewMockRefreshBroadcaster() *MockRefreshBroadcaster {
	return &MockRefreshBroadcaster{}
}

func (m *MockRefreshBroadcaster) BroadcastRefresh() {
	m.Called()
}

// MockReportService is a mock implementation of ports.ReportService
type MockReportService struct {
	mock.Mock
}

var _ ports.ReportService = (*MockReportService)(nil)

func NewMockReportService() *MockReportService {
	return &MockReportService{}
}

func (m *MockReportService) LoadDataset(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockReportService) BuildReport(ds *domain.Dataset, filters domain.ReportFilters) (*domain.Report, error) {
	args := m.Called(ds, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportService) GenerateReport(ctx context.Context, filters domain.ReportFilters) (*domain.Report, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportService) Options(ctx context.Context) (*domain.FilterOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FilterOptions), args.Error(1)
}

// MockFilterService is a mock implementation of ports.FilterService
type MockFilterService struct {
	mock.Mock
}

var _ ports.FilterService = (*MockFilterService)(nil)

func NewMockFilterService() *MockFilterService {
	return &MockFilterService{}
}

func (m *MockFilterService) Current(ctx context.Context, sessionID string) (domain.ReportFilters, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.ReportFilters), args.Error(1)
}

func (m *MockFilterService) Update(ctx context.Context, sessionID string, filters domain.ReportFilters) (domain.ReportFilters, error) {
	args := m.Called(ctx, sessionID, filters)
	return args.Get(0).(domain.ReportFilters), args.Error(1)
}

func (m *MockFilterService) Reset(ctx context.Context, sessionID string) (domain.ReportFilters, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.ReportFilters), args.Error(1)
}
