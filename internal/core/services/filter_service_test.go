package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
	"github.com/lorrc/ticket-reports/internal/core/mocks"
	"github.com/lorrc/ticket-reports/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFilterService_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults for unknown session", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		store.On("Get", ctx, "s1").Return(domain.ReportFilters{}, false, nil)

		svc := services.NewFilterService(store)

		filters, err := svc.Current(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultFilters(), filters)
	})

	t.Run("stored filters", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		stored := domain.ReportFilters{TimeRange: domain.Range7Days, Area: "Lobby", Status: "open", Technician: "Anna"}
		store.On("Get", ctx, "s1").Return(stored, true, nil)

		svc := services.NewFilterService(store)

		filters, err := svc.Current(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, stored, filters)
	})

	t.Run("missing session", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		svc := services.NewFilterService(store)

		_, err := svc.Current(ctx, "  ")

		assert.ErrorIs(t, err, apperrors.ErrSessionRequired)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestFilterService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and saves", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		want := domain.ReportFilters{TimeRange: domain.Range90Days, Area: domain.FilterAll, Status: "overdue", Technician: domain.FilterAll}
		store.On("Save", ctx, "s1", want).Return(nil)

		svc := services.NewFilterService(store)

		filters, err := svc.Update(ctx, "s1", domain.ReportFilters{TimeRange: domain.Range90Days, Status: "overdue"})

		require.NoError(t, err)
		assert.Equal(t, want, filters)
		store.AssertExpectations(t)
	})

	t.Run("trims before saving", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		want := domain.ReportFilters{TimeRange: domain.RangeAll, Area: "Lobby", Status: domain.FilterAll, Technician: "Anna"}
		store.On("Save", ctx, "s1", want).Return(nil)

		svc := services.NewFilterService(store)

		filters, err := svc.Update(ctx, "s1", domain.ReportFilters{TimeRange: " all", Area: " Lobby ", Technician: "Anna\t"})

		require.NoError(t, err)
		assert.Equal(t, want, filters)
		store.AssertExpectations(t)
	})

	t.Run("rejects overlong area", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		svc := services.NewFilterService(store)

		_, err := svc.Update(ctx, "s1", domain.ReportFilters{Area: strings.Repeat("a", domain.MaxFilterValueLength+1)})

		var verrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.Errors, "area")
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid filters", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		svc := services.NewFilterService(store)

		_, err := svc.Update(ctx, "s1", domain.ReportFilters{TimeRange: "forever"})

		var verrs *apperrors.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		store := mocks.NewMockFilterStore()
		boom := errors.New("redis down")
		store.On("Save", ctx, "s1", mock.AnythingOfType("domain.ReportFilters")).Return(boom)

		svc := services.NewFilterService(store)

		_, err := svc.Update(ctx, "s1", domain.DefaultFilters())

		assert.ErrorIs(t, err, boom)
	})
}

func TestFilterService_Reset(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockFilterStore()
	store.On("Save", ctx, "s1", domain.DefaultFilters()).Return(nil)

	svc := services.NewFilterService(store)

	filters, err := svc.Reset(ctx, "s1")

	require.NoError(t, err)
	assert.Equal(t, domain.Range30Days, filters.TimeRange)
	assert.Equal(t, domain.FilterAll, filters.Area)
	assert.Equal(t, domain.FilterAll, filters.Status)
	assert.Equal(t, domain.FilterAll, filters.Technician)
	store.AssertExpectations(t)
}
