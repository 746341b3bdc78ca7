package models

import "math/big"

type EventKind string

const (
	KindBetPlaced    EventKind = "BetPlaced"
	KindBetFinalized EventKind = "BetFinalized"
	KindBetClaimed   EventKind = "BetClaimed"
	KindFeeCollected EventKind = "FeeCollected"
)

// EventMeta is the provenance every decoded event carries. Timestamp is the
// block timestamp; the listener fills it in after decoding since raw logs do
// not include it.
type EventMeta struct {
	BlockNumber     uint64
	Timestamp       uint64
	TransactionHash string
	LogIndex        uint
}

// ID returns the txHash-logIndex key used for the processed-event ledger and
// for Fee ids.
func (m EventMeta) ID() string {
	return EventID(m.TransactionHash, m.LogIndex)
}

// Event is one of the four decoded contract events.
type Event interface {
	Kind() EventKind
	Meta() EventMeta
}

type BetPlaced struct {
	EventMeta
	Bettor string
	BetID  *big.Int
	Bucket *big.Int
}

type BetFinalized struct {
	EventMeta
	BetID       *big.Int
	ActualPrice *big.Int
	Won         bool
	Payout      *big.Int
}

type BetClaimed struct {
	EventMeta
	BetID  *big.Int
	Bettor string
	Payout *big.Int
}

type FeeCollected struct {
	EventMeta
	Amount *big.Int
}

func (e *BetPlaced) Kind() EventKind    { return KindBetPlaced }
func (e *BetFinalized) Kind() EventKind { return KindBetFinalized }
func (e *BetClaimed) Kind() EventKind   { return KindBetClaimed }
func (e *FeeCollected) Kind() EventKind { return KindFeeCollected }

func (e *BetPlaced) Meta() EventMeta    { return e.EventMeta }
func (e *BetFinalized) Meta() EventMeta { return e.EventMeta }
func (e *BetClaimed) Meta() EventMeta   { return e.EventMeta }
func (e *FeeCollected) Meta() EventMeta { return e.EventMeta }
