package projection_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"torch-indexer/internal/models"
	"torch-indexer/internal/projection"
)

func TestApplyPlaced(t *testing.T) {
	stats := *models.NewUserStats("0xaa")

	updated := projection.ApplyPlaced(stats, big.NewInt(950))

	assert.Equal(t, 1, updated.TotalBets)
	assert.Equal(t, 0, updated.TotalWon)
	assert.Zero(t, updated.TotalStaked.Cmp(big.NewInt(950)))
	assert.Zero(t, updated.TotalPayout.Sign())

	updated = projection.ApplyPlaced(updated, big.NewInt(50))
	assert.Equal(t, 2, updated.TotalBets)
	assert.Zero(t, updated.TotalStaked.Cmp(big.NewInt(1000)))
}

func TestApplyPlacedDoesNotMutateInput(t *testing.T) {
	stats := *models.NewUserStats("0xaa")
	stats.TotalStaked = big.NewInt(100)

	_ = projection.ApplyPlaced(stats, big.NewInt(950))

	assert.Zero(t, stats.TotalStaked.Cmp(big.NewInt(100)))
	assert.Equal(t, 0, stats.TotalBets)
}

func TestApplyFinalizedWon(t *testing.T) {
	stats := *models.NewUserStats("0xaa")
	stats.TotalBets = 1
	stats.TotalStaked = big.NewInt(950)

	updated := projection.ApplyFinalizedWon(stats, big.NewInt(1900))

	assert.Equal(t, 1, updated.TotalWon)
	assert.Zero(t, updated.TotalPayout.Cmp(big.NewInt(1900)))
	assert.Zero(t, updated.TotalStaked.Cmp(big.NewInt(950)))
}

func TestApplyClaimedIsAdditive(t *testing.T) {
	stats := *models.NewUserStats("0xaa")
	stats.TotalPayout = big.NewInt(1900)

	updated := projection.ApplyClaimed(stats, big.NewInt(1900))

	// claim adds on top of the finalize-time credit
	assert.Zero(t, updated.TotalPayout.Cmp(big.NewInt(3800)))
}

func TestAggregateMonotonicity(t *testing.T) {
	stats := *models.NewUserStats("0xaa")

	steps := []func(models.UserStats) models.UserStats{
		func(s models.UserStats) models.UserStats { return projection.ApplyPlaced(s, big.NewInt(10)) },
		func(s models.UserStats) models.UserStats { return projection.ApplyPlaced(s, big.NewInt(20)) },
		func(s models.UserStats) models.UserStats { return projection.ApplyFinalizedWon(s, big.NewInt(35)) },
		func(s models.UserStats) models.UserStats { return projection.ApplyClaimed(s, big.NewInt(35)) },
		func(s models.UserStats) models.UserStats { return projection.ApplyPlaced(s, big.NewInt(5)) },
	}

	for i, step := range steps {
		next := step(stats)

		require.GreaterOrEqual(t, next.TotalBets, stats.TotalBets, "step %d", i)
		require.GreaterOrEqual(t, next.TotalWon, stats.TotalWon, "step %d", i)
		require.True(t, next.TotalStaked.Cmp(stats.TotalStaked) >= 0, "step %d", i)
		require.True(t, next.TotalPayout.Cmp(stats.TotalPayout) >= 0, "step %d", i)
		require.LessOrEqual(t, next.TotalWon, next.TotalBets, "step %d", i)

		stats = next
	}
}
