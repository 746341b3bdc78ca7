package projection_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"torch-indexer/internal/models"
	"torch-indexer/internal/projection"
	"torch-indexer/internal/store"
)

// stubReader serves canned getBet results keyed by bet id.
type stubReader struct {
	details map[string]*models.BetDetails
	err     error
	calls   int
}

func (r *stubReader) GetBet(ctx context.Context, betID *big.Int, blockNumber uint64) (*models.BetDetails, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	d, ok := r.details[betID.String()]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return d, nil
}

func newTestProjector(reader *stubReader) (*projection.Projector, store.EntityStore) {
	s := store.NewMemoryStore()
	return projection.NewProjector(s, reader, nil, zap.NewNop()), s
}

func meta(block uint64, tx string, logIndex uint) models.EventMeta {
	return models.EventMeta{
		BlockNumber:     block,
		Timestamp:       1_700_000_000 + block,
		TransactionHash: tx,
		LogIndex:        logIndex,
	}
}

func betDetails(bettor string, stake int64) *models.BetDetails {
	return &models.BetDetails{
		Bettor:          bettor,
		TargetTimestamp: big.NewInt(1_700_100_000),
		PriceMin:        big.NewInt(100),
		PriceMax:        big.NewInt(200),
		Stake:           big.NewInt(stake),
		QualityBps:      big.NewInt(9500),
		Weight:          big.NewInt(stake),
		ActualPrice:     new(big.Int),
	}
}

func placed(m models.EventMeta, bettor string, betID, bucket int64) *models.BetPlaced {
	return &models.BetPlaced{EventMeta: m, Bettor: bettor, BetID: big.NewInt(betID), Bucket: big.NewInt(bucket)}
}

func TestBetPlacedCreatesEntities(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, s := newTestProjector(reader)

	err := p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3))
	require.NoError(t, err)

	bet, found, err := s.GetBet(ctx, "0")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0xaa", bet.User)
	assert.Equal(t, int64(3), bet.Bucket)
	assert.Zero(t, bet.Stake.Cmp(big.NewInt(950)))
	assert.Zero(t, bet.Payout.Sign())
	assert.False(t, bet.Finalized)
	assert.Equal(t, uint64(42), bet.BlockNumber)

	_, found, err = s.GetUser(ctx, "0xaa")
	require.NoError(t, err)
	assert.True(t, found)

	stats, found, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, stats.TotalBets)
	assert.Zero(t, stats.TotalStaked.Cmp(big.NewInt(950)))

	cp, err := s.Checkpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cp)
}

func TestSecondBetReusesUser(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
		"1": betDetails("0xaa", 450),
	}}
	p, s := newTestProjector(reader)

	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3)))
	require.NoError(t, p.Apply(ctx, placed(meta(43, "0xt2", 0), "0xaa", 1, 5)))

	stats, _, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBets)
	assert.Zero(t, stats.TotalStaked.Cmp(big.NewInt(1400)))

	bets, err := s.ListBetsByUser(ctx, "0xaa")
	require.NoError(t, err)
	assert.Len(t, bets, 2)
}

func TestFullLifecycleAccumulatesPayoutTwice(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, s := newTestProjector(reader)

	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3)))
	require.NoError(t, p.Apply(ctx, &models.BetFinalized{
		EventMeta:   meta(50, "0xt2", 0),
		BetID:       big.NewInt(0),
		ActualPrice: big.NewInt(150),
		Won:         true,
		Payout:      big.NewInt(1900),
	}))
	require.NoError(t, p.Apply(ctx, &models.BetClaimed{
		EventMeta: meta(55, "0xt3", 0),
		BetID:     big.NewInt(0),
		Bettor:    "0xaa",
		Payout:    big.NewInt(1900),
	}))

	bet, _, err := s.GetBet(ctx, "0")
	require.NoError(t, err)
	assert.True(t, bet.Finalized)
	assert.True(t, bet.Won)
	assert.True(t, bet.Claimed)
	assert.Zero(t, bet.ActualPrice.Cmp(big.NewInt(150)))
	assert.Zero(t, bet.Payout.Cmp(big.NewInt(1900)))

	stats, _, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBets)
	assert.Equal(t, 1, stats.TotalWon)
	// the payout is credited at finalize and again at claim
	assert.Zero(t, stats.TotalPayout.Cmp(big.NewInt(3800)))
}

func TestFinalizeLostBetLeavesStats(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, s := newTestProjector(reader)

	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3)))
	require.NoError(t, p.Apply(ctx, &models.BetFinalized{
		EventMeta:   meta(50, "0xt2", 0),
		BetID:       big.NewInt(0),
		ActualPrice: big.NewInt(300),
		Won:         false,
		Payout:      new(big.Int),
	}))

	bet, _, err := s.GetBet(ctx, "0")
	require.NoError(t, err)
	assert.True(t, bet.Finalized)
	assert.False(t, bet.Won)

	stats, _, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalWon)
	assert.Zero(t, stats.TotalPayout.Sign())
}

func TestReplayedEventIsNoOp(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, s := newTestProjector(reader)

	ev := placed(meta(42, "0xt1", 0), "0xaa", 0, 3)
	require.NoError(t, p.Apply(ctx, ev))
	require.NoError(t, p.Apply(ctx, ev))
	require.NoError(t, p.Apply(ctx, ev))

	stats, _, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBets)
	assert.Zero(t, stats.TotalStaked.Cmp(big.NewInt(950)))
	assert.Equal(t, uint64(2), p.Stats().Replays)
	assert.Equal(t, 1, reader.calls)
}

func TestReplayedFinalizeIsNoOp(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, s := newTestProjector(reader)

	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3)))
	fin := &models.BetFinalized{
		EventMeta:   meta(50, "0xt2", 0),
		BetID:       big.NewInt(0),
		ActualPrice: big.NewInt(150),
		Won:         true,
		Payout:      big.NewInt(1900),
	}
	require.NoError(t, p.Apply(ctx, fin))
	require.NoError(t, p.Apply(ctx, fin))

	stats, _, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalWon)
	assert.Zero(t, stats.TotalPayout.Cmp(big.NewInt(1900)))
}

func TestDuplicatePlacementForExistingBet(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, s := newTestProjector(reader)

	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3)))
	// same bet id surfaces again under a different event identity
	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1b", 0), "0xaa", 0, 3)))

	stats, _, err := s.GetUserStats(ctx, "0xaa")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBets)

	// the duplicate is ledgered so a third delivery short-circuits
	seen, err := s.WasProcessed(ctx, "0xt1b-0")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestReaderFailureLeavesEventRetryable(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{err: errors.New("connection refused")}
	p, s := newTestProjector(reader)

	ev := placed(meta(42, "0xt1", 0), "0xaa", 0, 3)
	require.NoError(t, p.Apply(ctx, ev))

	_, found, err := s.GetBet(ctx, "0")
	require.NoError(t, err)
	assert.False(t, found)
	seen, err := s.WasProcessed(ctx, ev.Meta().ID())
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, uint64(1), p.Stats().Skipped)

	// backfill redelivers after the node recovers
	reader.err = nil
	reader.details = map[string]*models.BetDetails{"0": betDetails("0xaa", 950)}
	require.NoError(t, p.Apply(ctx, ev))

	_, found, err = s.GetBet(ctx, "0")
	require.NoError(t, err)
	assert.True(t, found)
	seen, err = s.WasProcessed(ctx, ev.Meta().ID())
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestFinalizeUnknownBetIsSkipped(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{}}
	p, s := newTestProjector(reader)

	fin := &models.BetFinalized{
		EventMeta:   meta(50, "0xt2", 0),
		BetID:       big.NewInt(9),
		ActualPrice: big.NewInt(150),
		Won:         true,
		Payout:      big.NewInt(1900),
	}
	require.NoError(t, p.Apply(ctx, fin))

	assert.Equal(t, uint64(1), p.Stats().Skipped)
	seen, err := s.WasProcessed(ctx, fin.Meta().ID())
	require.NoError(t, err)
	assert.False(t, seen)

	// the checkpoint still advances past the skipped event
	cp, err := s.Checkpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), cp)
}

func TestClaimUnknownBetIsSkipped(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProjector(&stubReader{})

	require.NoError(t, p.Apply(ctx, &models.BetClaimed{
		EventMeta: meta(55, "0xt3", 0),
		BetID:     big.NewInt(9),
		Bettor:    "0xaa",
		Payout:    big.NewInt(1900),
	}))

	assert.Equal(t, uint64(1), p.Stats().Skipped)
	assert.Equal(t, uint64(0), p.Stats().BetsClaimed)
}

func TestFeesInSameTransactionStayDistinct(t *testing.T) {
	ctx := context.Background()
	p, s := newTestProjector(&stubReader{})

	require.NoError(t, p.Apply(ctx, &models.FeeCollected{EventMeta: meta(60, "0xt4", 0), Amount: big.NewInt(50)}))
	require.NoError(t, p.Apply(ctx, &models.FeeCollected{EventMeta: meta(60, "0xt4", 1), Amount: big.NewInt(25)}))
	// replay of the first one
	require.NoError(t, p.Apply(ctx, &models.FeeCollected{EventMeta: meta(60, "0xt4", 0), Amount: big.NewInt(50)}))

	fees, err := s.ListFees(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fees, 2)
	assert.Equal(t, uint64(2), p.Stats().FeesCollected)
}

func TestStatsCounters(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{details: map[string]*models.BetDetails{
		"0": betDetails("0xaa", 950),
	}}
	p, _ := newTestProjector(reader)

	require.NoError(t, p.Apply(ctx, placed(meta(42, "0xt1", 0), "0xaa", 0, 3)))
	require.NoError(t, p.Apply(ctx, &models.BetFinalized{
		EventMeta:   meta(50, "0xt2", 0),
		BetID:       big.NewInt(0),
		ActualPrice: big.NewInt(150),
		Won:         true,
		Payout:      big.NewInt(1900),
	}))
	require.NoError(t, p.Apply(ctx, &models.BetClaimed{
		EventMeta: meta(55, "0xt3", 0),
		BetID:     big.NewInt(0),
		Bettor:    "0xaa",
		Payout:    big.NewInt(1900),
	}))
	require.NoError(t, p.Apply(ctx, &models.FeeCollected{EventMeta: meta(60, "0xt4", 0), Amount: big.NewInt(50)}))

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.BetsPlaced)
	assert.Equal(t, uint64(1), stats.BetsFinalized)
	assert.Equal(t, uint64(1), stats.BetsClaimed)
	assert.Equal(t, uint64(1), stats.FeesCollected)
}
