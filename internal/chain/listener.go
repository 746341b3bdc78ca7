package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"torch-indexer/internal/models"
)

// EventSink consumes decoded events one at a time. An error from Apply is a
// store-level failure and stops the listener; recoverable per-event problems
// are handled inside the sink.
type EventSink interface {
	Apply(ctx context.Context, ev models.Event) error
}

// Listener subscribes to the contract's logs over a websocket RPC endpoint
// and feeds them, strictly in delivery order, into the sink.
type Listener struct {
	wsURL    string
	contract common.Address
	decoder  *Decoder
	sink     EventSink
	log      *zap.Logger

	// single-entry block timestamp cache; logs arrive in block order so
	// consecutive logs usually share a block
	cachedBlock uint64
	cachedTime  uint64
}

func NewListener(wsURL, contractAddr string, sink EventSink, logger *zap.Logger) (*Listener, error) {
	decoder, err := NewDecoder()
	if err != nil {
		return nil, err
	}
	return &Listener{
		wsURL:    wsURL,
		contract: common.HexToAddress(contractAddr),
		decoder:  decoder,
		sink:     sink,
		log:      logger,
	}, nil
}

// Start runs the subscription loop, reconnecting on subscription errors.
// It returns when ctx is cancelled or the sink reports a store failure.
func (l *Listener) Start(ctx context.Context) error {
	for {
		err := l.run(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return ctx.Err()
		}
		if !isSubscriptionError(err) {
			return err
		}

		l.log.Warn("subscription lost, reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (l *Listener) run(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, l.wsURL)
	if err != nil {
		return subscriptionError{fmt.Errorf("failed to connect to the Ethereum client: %v", err)}
	}
	defer client.Close()

	query := ethereum.FilterQuery{
		Addresses: []common.Address{l.contract},
	}

	logs := make(chan types.Log, 128)
	sub, err := client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return subscriptionError{fmt.Errorf("failed to subscribe to logs: %v", err)}
	}
	defer sub.Unsubscribe()

	l.log.Info("listening for contract events", zap.String("contract", l.contract.Hex()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return subscriptionError{fmt.Errorf("subscription error: %v", err)}
		case vLog := <-logs:
			if vLog.Removed {
				// reorged-out log; the replacement chain re-delivers its
				// events and the processed ledger keeps replays safe
				l.log.Warn("log removed by reorg",
					zap.String("tx", vLog.TxHash.Hex()),
					zap.Uint("log_index", vLog.Index))
				continue
			}

			ev, err := l.decoder.Decode(vLog)
			if errors.Is(err, ErrUnknownEvent) {
				continue
			}
			if err != nil {
				l.log.Warn("failed to decode event",
					zap.String("tx", vLog.TxHash.Hex()),
					zap.Uint("log_index", vLog.Index),
					zap.Error(err))
				continue
			}

			ev = l.withTimestamp(ctx, client, ev)

			if err := l.sink.Apply(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// withTimestamp fills in the block timestamp the raw log lacks.
func (l *Listener) withTimestamp(ctx context.Context, client *ethclient.Client, ev models.Event) models.Event {
	block := ev.Meta().BlockNumber
	if block != l.cachedBlock || l.cachedTime == 0 {
		header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
		if err != nil {
			l.log.Warn("failed to fetch block header",
				zap.Uint64("block", block),
				zap.Error(err))
			return ev
		}
		l.cachedBlock = block
		l.cachedTime = header.Time
	}

	switch e := ev.(type) {
	case *models.BetPlaced:
		e.Timestamp = l.cachedTime
	case *models.BetFinalized:
		e.Timestamp = l.cachedTime
	case *models.BetClaimed:
		e.Timestamp = l.cachedTime
	case *models.FeeCollected:
		e.Timestamp = l.cachedTime
	}
	return ev
}

type subscriptionError struct {
	err error
}

func (e subscriptionError) Error() string { return e.err.Error() }
func (e subscriptionError) Unwrap() error { return e.err }

func isSubscriptionError(err error) bool {
	var se subscriptionError
	return errors.As(err, &se)
}
