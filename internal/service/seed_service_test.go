package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/roadwatch/internal/models"
)

func TestSeedService_SeedsEmptyStore(t *testing.T) {
	store := new(mockReportStore)
	store.On("Count", mock.Anything).Return(0, nil).Once()
	store.On("CreateMany", mock.Anything, mock.MatchedBy(func(rs []models.Report) bool {
		return len(rs) == 8
	})).Return(nil).Once()

	n, err := NewSeedService(store).SeedIfEmpty(context.Background(), 8, 42)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	store.AssertExpectations(t)
}

func TestSeedService_SkipsNonEmptyStore(t *testing.T) {
	store := new(mockReportStore)
	store.On("Count", mock.Anything).Return(3, nil).Once()

	n, err := NewSeedService(store).SeedIfEmpty(context.Background(), 8, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	store.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
}

func TestSeedService_ZeroIsNoop(t *testing.T) {
	store := new(mockReportStore)

	n, err := NewSeedService(store).SeedIfEmpty(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	store.AssertNotCalled(t, "Count", mock.Anything)
}
