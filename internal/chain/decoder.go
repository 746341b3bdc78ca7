package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"torch-indexer/internal/models"
)

// ErrUnknownEvent marks a log whose topic does not match any of the four
// Torch events. Such logs are not malformed, just not ours.
var ErrUnknownEvent = errors.New("unknown event")

type Decoder struct {
	abi abi.ABI
}

func NewDecoder() (*Decoder, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %v", err)
	}
	return &Decoder{abi: parsed}, nil
}

// Decode turns a raw log into one of the typed events. The block timestamp is
// not part of a raw log; callers fill Meta().Timestamp afterwards.
func (d *Decoder) Decode(vLog types.Log) (models.Event, error) {
	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("log %s has no topics", vLog.TxHash.Hex())
	}

	meta := models.EventMeta{
		BlockNumber:     vLog.BlockNumber,
		TransactionHash: strings.ToLower(vLog.TxHash.Hex()),
		LogIndex:        vLog.Index,
	}

	switch vLog.Topics[0] {
	case d.abi.Events["BetPlaced"].ID:
		return d.decodeBetPlaced(vLog, meta)
	case d.abi.Events["BetFinalized"].ID:
		return d.decodeBetFinalized(vLog, meta)
	case d.abi.Events["BetClaimed"].ID:
		return d.decodeBetClaimed(vLog, meta)
	case d.abi.Events["FeeCollected"].ID:
		return d.decodeFeeCollected(vLog, meta)
	default:
		return nil, ErrUnknownEvent
	}
}

func (d *Decoder) decodeBetPlaced(vLog types.Log, meta models.EventMeta) (models.Event, error) {
	if len(vLog.Topics) < 2 {
		return nil, fmt.Errorf("BetPlaced log %s missing bettor topic", meta.ID())
	}
	var data struct {
		BetId  *big.Int
		Bucket *big.Int
	}
	if err := d.abi.UnpackIntoInterface(&data, "BetPlaced", vLog.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack BetPlaced %s: %v", meta.ID(), err)
	}
	return &models.BetPlaced{
		EventMeta: meta,
		Bettor:    models.NormalizeAddress(common.BytesToAddress(vLog.Topics[1].Bytes()).Hex()),
		BetID:     data.BetId,
		Bucket:    data.Bucket,
	}, nil
}

func (d *Decoder) decodeBetFinalized(vLog types.Log, meta models.EventMeta) (models.Event, error) {
	if len(vLog.Topics) < 2 {
		return nil, fmt.Errorf("BetFinalized log %s missing betId topic", meta.ID())
	}
	var data struct {
		ActualPrice *big.Int
		Won         bool
		Payout      *big.Int
	}
	if err := d.abi.UnpackIntoInterface(&data, "BetFinalized", vLog.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack BetFinalized %s: %v", meta.ID(), err)
	}
	return &models.BetFinalized{
		EventMeta:   meta,
		BetID:       new(big.Int).SetBytes(vLog.Topics[1].Bytes()),
		ActualPrice: data.ActualPrice,
		Won:         data.Won,
		Payout:      data.Payout,
	}, nil
}

func (d *Decoder) decodeBetClaimed(vLog types.Log, meta models.EventMeta) (models.Event, error) {
	if len(vLog.Topics) < 3 {
		return nil, fmt.Errorf("BetClaimed log %s missing indexed topics", meta.ID())
	}
	var data struct {
		Payout *big.Int
	}
	if err := d.abi.UnpackIntoInterface(&data, "BetClaimed", vLog.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack BetClaimed %s: %v", meta.ID(), err)
	}
	return &models.BetClaimed{
		EventMeta: meta,
		BetID:     new(big.Int).SetBytes(vLog.Topics[1].Bytes()),
		Bettor:    models.NormalizeAddress(common.BytesToAddress(vLog.Topics[2].Bytes()).Hex()),
		Payout:    data.Payout,
	}, nil
}

func (d *Decoder) decodeFeeCollected(vLog types.Log, meta models.EventMeta) (models.Event, error) {
	var data struct {
		Amount *big.Int
	}
	if err := d.abi.UnpackIntoInterface(&data, "FeeCollected", vLog.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack FeeCollected %s: %v", meta.ID(), err)
	}
	return &models.FeeCollected{
		EventMeta: meta,
		Amount:    data.Amount,
	}, nil
}
