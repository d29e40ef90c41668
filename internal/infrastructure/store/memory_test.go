package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepilot/backend/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	count, err := s.ProcessedCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	first := domain.MatchDecision{
		Merchant:   domain.CatalogRecord{DisplayName: "Chanel No5", Price: 450},
		Category:   domain.CategoryRaise,
		Risk:       domain.RiskNormal,
		Confidence: 95,
	}
	second := domain.MatchDecision{
		Merchant: domain.CatalogRecord{DisplayName: "Dior Sauvage", Price: 520},
		Category: domain.CategoryMissing,
		Risk:     domain.RiskNormal,
	}

	require.NoError(t, s.SaveDecision(ctx, "s1", first))
	require.NoError(t, s.SaveDecision(ctx, "s1", second))

	count, err = s.ProcessedCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	decisions, err := s.Decisions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, "Chanel No5", decisions[0].Merchant.DisplayName)
	assert.Equal(t, domain.CategoryMissing, decisions[1].Category)
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Decisions(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveDecision(ctx, "s1", domain.MatchDecision{Category: domain.CategoryApproved}))

	decisions, err := s.Decisions(ctx, "s1")
	require.NoError(t, err)
	decisions[0].Category = domain.CategoryLower

	again, err := s.Decisions(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryApproved, again[0].Category)
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveDecision(ctx, "s1", domain.MatchDecision{}))
	s.Clear()

	count, err := s.ProcessedCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
