package models

import "math/big"

// User is the immutable identity record for a bettor address. The id is the
// lowercase hex address and doubles as the foreign key target for Bet.User.
type User struct {
	ID string `json:"id" redis:"id"`
}

// UserStats is the mutable per-user aggregate, one-to-one with User by shared
// id. Every counter is monotonically non-decreasing; TotalWon never exceeds
// TotalBets.
type UserStats struct {
	ID          string   `json:"id" redis:"id"`
	TotalBets   int      `json:"total_bets" redis:"total_bets"`
	TotalWon    int      `json:"total_won" redis:"total_won"`
	TotalStaked *big.Int `json:"total_staked" redis:"total_staked"`
	TotalPayout *big.Int `json:"total_payout" redis:"total_payout"`
}

// Bet is one placed bet. Stake through Weight are copied from contract state
// at placement time and never change afterwards. Finalized and Claimed are
// one-way transitions.
type Bet struct {
	ID     string `json:"id" redis:"id"`
	User   string `json:"user" redis:"user"`
	Bucket int64  `json:"bucket" redis:"bucket"`

	Stake           *big.Int `json:"stake" redis:"stake"`
	PriceMin        *big.Int `json:"price_min" redis:"price_min"`
	PriceMax        *big.Int `json:"price_max" redis:"price_max"`
	TargetTimestamp *big.Int `json:"target_timestamp" redis:"target_timestamp"`
	QualityBps      *big.Int `json:"quality_bps" redis:"quality_bps"`
	Weight          *big.Int `json:"weight" redis:"weight"`

	Finalized   bool     `json:"finalized" redis:"finalized"`
	Claimed     bool     `json:"claimed" redis:"claimed"`
	ActualPrice *big.Int `json:"actual_price" redis:"actual_price"`
	Won         bool     `json:"won" redis:"won"`
	Payout      *big.Int `json:"payout" redis:"payout"`

	BlockNumber     uint64 `json:"block_number" redis:"block_number"`
	Timestamp       uint64 `json:"timestamp" redis:"timestamp"`
	TransactionHash string `json:"transaction_hash" redis:"transaction_hash"`
}

// Fee is an append-only protocol fee record. The id is txHash-logIndex so two
// fee events in one transaction never collide.
type Fee struct {
	ID              string   `json:"id" redis:"id"`
	Amount          *big.Int `json:"amount" redis:"amount"`
	BlockNumber     uint64   `json:"block_number" redis:"block_number"`
	Timestamp       uint64   `json:"timestamp" redis:"timestamp"`
	TransactionHash string   `json:"transaction_hash" redis:"transaction_hash"`
}

// BetDetails is the full bet record as returned by the contract's getBet view
// call. BetPlaced events only carry bettor/betId/bucket; the rest comes from
// here.
type BetDetails struct {
	Bettor          string
	TargetTimestamp *big.Int
	PriceMin        *big.Int
	PriceMax        *big.Int
	Stake           *big.Int
	QualityBps      *big.Int
	Weight          *big.Int
	Finalized       bool
	Claimed         bool
	ActualPrice     *big.Int
	Won             bool
}

func NewUserStats(id string) *UserStats {
	return &UserStats{
		ID:          id,
		TotalStaked: new(big.Int),
		TotalPayout: new(big.Int),
	}
}
