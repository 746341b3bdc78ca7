package projection

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"torch-indexer/internal/chain"
	"torch-indexer/internal/models"
	"torch-indexer/internal/store"
)

// Projector turns the decoded event stream into User/UserStats/Bet/Fee
// entities. It processes one event at a time in delivery order and performs
// no locking of its own around the store: serialization is the listener's
// guarantee.
//
// Error policy: store failures are returned and stop the pipeline. Everything
// else (contract read failure, update for an unknown bet) is logged with the
// event's identity and swallowed, degrading only that event.
type Projector struct {
	store       store.EntityStore
	reader      chain.BetReader
	broadcaster Broadcaster
	log         *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// Stats are running counters for the admin surface.
type Stats struct {
	BetsPlaced    uint64 `json:"bets_placed"`
	BetsFinalized uint64 `json:"bets_finalized"`
	BetsClaimed   uint64 `json:"bets_claimed"`
	FeesCollected uint64 `json:"fees_collected"`
	Replays       uint64 `json:"replays"`
	Skipped       uint64 `json:"skipped"`
}

func NewProjector(s store.EntityStore, reader chain.BetReader, broadcaster Broadcaster, logger *zap.Logger) *Projector {
	return &Projector{
		store:       s,
		reader:      reader,
		broadcaster: broadcaster,
		log:         logger,
	}
}

func (p *Projector) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Apply projects one event. Reprocessing an event that was fully handled
// before is a no-op: the processed ledger is checked before any entity write
// or aggregate delta, which is what makes reorg replays safe.
func (p *Projector) Apply(ctx context.Context, ev models.Event) error {
	meta := ev.Meta()

	seen, err := p.store.WasProcessed(ctx, meta.ID())
	if err != nil {
		return err
	}
	if seen {
		p.count(func(s *Stats) { s.Replays++ })
		p.log.Debug("event already processed",
			zap.String("kind", string(ev.Kind())),
			zap.String("event_id", meta.ID()))
		return nil
	}

	var handled bool
	switch e := ev.(type) {
	case *models.BetPlaced:
		handled, err = p.applyBetPlaced(ctx, e)
	case *models.BetFinalized:
		handled, err = p.applyBetFinalized(ctx, e)
	case *models.BetClaimed:
		handled, err = p.applyBetClaimed(ctx, e)
	case *models.FeeCollected:
		handled, err = p.applyFeeCollected(ctx, e)
	default:
		return fmt.Errorf("unhandled event kind: %s", ev.Kind())
	}
	if err != nil {
		return err
	}

	if err := p.store.SetCheckpoint(ctx, meta.BlockNumber); err != nil {
		return err
	}

	if !handled {
		// not marked processed: a later backfill or replay may succeed
		p.count(func(s *Stats) { s.Skipped++ })
		return nil
	}

	return p.store.MarkProcessed(ctx, meta.ID())
}

func (p *Projector) applyBetPlaced(ctx context.Context, ev *models.BetPlaced) (bool, error) {
	betID := ev.BetID.String()

	if _, found, err := p.store.GetBet(ctx, betID); err != nil {
		return false, err
	} else if found {
		p.log.Warn("bet already exists, skipping placement",
			zap.String("bet_id", betID),
			zap.String("tx", ev.TransactionHash))
		return true, nil
	}

	details, err := p.reader.GetBet(ctx, ev.BetID, ev.BlockNumber)
	if err != nil {
		p.log.Warn("failed to read bet from contract, skipping placement",
			zap.String("bet_id", betID),
			zap.String("tx", ev.TransactionHash),
			zap.Error(err))
		return false, nil
	}

	userID := ev.Bettor
	bet := &models.Bet{
		ID:              betID,
		User:            userID,
		Bucket:          ev.Bucket.Int64(),
		Stake:           details.Stake,
		PriceMin:        details.PriceMin,
		PriceMax:        details.PriceMax,
		TargetTimestamp: details.TargetTimestamp,
		QualityBps:      details.QualityBps,
		Weight:          details.Weight,
		Finalized:       details.Finalized,
		Claimed:         details.Claimed,
		ActualPrice:     details.ActualPrice,
		Won:             details.Won,
		Payout:          new(big.Int),
		BlockNumber:     ev.BlockNumber,
		Timestamp:       ev.Timestamp,
		TransactionHash: ev.TransactionHash,
	}
	if err := p.store.PutBet(ctx, bet); err != nil {
		return false, err
	}

	if _, found, err := p.store.GetUser(ctx, userID); err != nil {
		return false, err
	} else if !found {
		if err := p.store.PutUser(ctx, &models.User{ID: userID}); err != nil {
			return false, err
		}
	}

	stats, found, err := p.store.GetUserStats(ctx, userID)
	if err != nil {
		return false, err
	}
	if !found {
		stats = models.NewUserStats(userID)
	}
	updated := ApplyPlaced(*stats, details.Stake)
	if err := p.store.PutUserStats(ctx, &updated); err != nil {
		return false, err
	}

	p.count(func(s *Stats) { s.BetsPlaced++ })
	if p.broadcaster != nil {
		p.broadcaster.BroadcastBetPlaced(bet)
	}
	return true, nil
}

func (p *Projector) applyBetFinalized(ctx context.Context, ev *models.BetFinalized) (bool, error) {
	betID := ev.BetID.String()

	bet, found, err := p.store.GetBet(ctx, betID)
	if err != nil {
		return false, err
	}
	if !found {
		p.log.Warn("finalize for unknown bet, skipping",
			zap.String("bet_id", betID),
			zap.String("tx", ev.TransactionHash))
		return false, nil
	}

	bet.Finalized = true
	bet.ActualPrice = ev.ActualPrice
	bet.Won = ev.Won
	bet.Payout = ev.Payout
	if err := p.store.PutBet(ctx, bet); err != nil {
		return false, err
	}

	if ev.Won {
		stats, found, err := p.store.GetUserStats(ctx, bet.User)
		if err != nil {
			return false, err
		}
		if !found {
			p.log.Warn("stats missing for winning bet's user",
				zap.String("bet_id", betID),
				zap.String("user", bet.User),
				zap.String("tx", ev.TransactionHash))
		} else {
			updated := ApplyFinalizedWon(*stats, ev.Payout)
			if err := p.store.PutUserStats(ctx, &updated); err != nil {
				return false, err
			}
		}
	}

	p.count(func(s *Stats) { s.BetsFinalized++ })
	if p.broadcaster != nil {
		p.broadcaster.BroadcastBetFinalized(bet)
	}
	return true, nil
}

func (p *Projector) applyBetClaimed(ctx context.Context, ev *models.BetClaimed) (bool, error) {
	betID := ev.BetID.String()

	bet, found, err := p.store.GetBet(ctx, betID)
	if err != nil {
		return false, err
	}
	if !found {
		p.log.Warn("claim for unknown bet, skipping",
			zap.String("bet_id", betID),
			zap.String("tx", ev.TransactionHash))
		return false, nil
	}

	bet.Claimed = true
	bet.Payout = ev.Payout
	if err := p.store.PutBet(ctx, bet); err != nil {
		return false, err
	}

	stats, found, err := p.store.GetUserStats(ctx, bet.User)
	if err != nil {
		return false, err
	}
	if !found {
		p.log.Warn("stats missing for claiming user",
			zap.String("bet_id", betID),
			zap.String("user", bet.User),
			zap.String("tx", ev.TransactionHash))
	} else {
		updated := ApplyClaimed(*stats, ev.Payout)
		if err := p.store.PutUserStats(ctx, &updated); err != nil {
			return false, err
		}
	}

	p.count(func(s *Stats) { s.BetsClaimed++ })
	if p.broadcaster != nil {
		p.broadcaster.BroadcastBetClaimed(bet)
	}
	return true, nil
}

func (p *Projector) applyFeeCollected(ctx context.Context, ev *models.FeeCollected) (bool, error) {
	fee := &models.Fee{
		ID:              ev.Meta().ID(),
		Amount:          ev.Amount,
		BlockNumber:     ev.BlockNumber,
		Timestamp:       ev.Timestamp,
		TransactionHash: ev.TransactionHash,
	}
	if err := p.store.PutFee(ctx, fee); err != nil {
		return false, err
	}

	p.count(func(s *Stats) { s.FeesCollected++ })
	if p.broadcaster != nil {
		p.broadcaster.BroadcastFeeCollected(fee)
	}
	return true, nil
}

func (p *Projector) count(update func(*Stats)) {
	p.mu.Lock()
	update(&p.stats)
	p.mu.Unlock()
}
