package projection

import (
	"math/big"

	"torch-indexer/internal/models"
)

// Pure aggregate transitions over a UserStats snapshot. Kept free of I/O so
// the arithmetic can be tested without a store. Inputs are never mutated;
// every big.Int in the result is a fresh allocation.

// ApplyPlaced records one placed bet with the given net stake.
func ApplyPlaced(s models.UserStats, stake *big.Int) models.UserStats {
	s.TotalBets++
	s.TotalStaked = new(big.Int).Add(orZero(s.TotalStaked), stake)
	s.TotalPayout = new(big.Int).Set(orZero(s.TotalPayout))
	return s
}

// ApplyFinalizedWon records a bet that resolved in the user's favor.
func ApplyFinalizedWon(s models.UserStats, payout *big.Int) models.UserStats {
	s.TotalWon++
	s.TotalStaked = new(big.Int).Set(orZero(s.TotalStaked))
	s.TotalPayout = new(big.Int).Add(orZero(s.TotalPayout), payout)
	return s
}

// ApplyClaimed records a claim payout. The amount accumulates on top of any
// finalize-time credit.
func ApplyClaimed(s models.UserStats, payout *big.Int) models.UserStats {
	s.TotalStaked = new(big.Int).Set(orZero(s.TotalStaked))
	s.TotalPayout = new(big.Int).Add(orZero(s.TotalPayout), payout)
	return s
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
