package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"torch-indexer/internal/models"
)

// BetReader fetches the full bet record from the contract. Implementations
// must read at the block the triggering event was emitted in, so the result
// reflects post-event state.
type BetReader interface {
	GetBet(ctx context.Context, betID *big.Int, blockNumber uint64) (*models.BetDetails, error)
}

// ContractReader is the production BetReader backed by a read-only eth_call.
type ContractReader struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
}

func NewContractReader(rpcURL, contractAddr string) (*ContractReader, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the Ethereum client: %v", err)
	}

	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %v", err)
	}

	return &ContractReader{
		client:   client,
		abi:      parsed,
		contract: common.HexToAddress(contractAddr),
	}, nil
}

func (r *ContractReader) Close() {
	r.client.Close()
}

func (r *ContractReader) GetBet(ctx context.Context, betID *big.Int, blockNumber uint64) (*models.BetDetails, error) {
	callData, err := r.abi.Pack("getBet", betID)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getBet: %v", err)
	}

	msg := ethereum.CallMsg{
		To:   &r.contract,
		Data: callData,
	}

	output, err := r.client.CallContract(ctx, msg, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return nil, fmt.Errorf("getBet(%s) call failed: %v", betID, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("getBet(%s) reverted", betID)
	}

	var result struct {
		Bettor          common.Address
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
	if err := r.abi.UnpackIntoInterface(&result, "getBet", output); err != nil {
		return nil, fmt.Errorf("failed to unpack getBet(%s) result: %v", betID, err)
	}

	return &models.BetDetails{
		Bettor:          models.NormalizeAddress(result.Bettor.Hex()),
		TargetTimestamp: result.TargetTimestamp,
		PriceMin:        result.PriceMin,
		PriceMax:        result.PriceMax,
		Stake:           result.Stake,
		QualityBps:      result.QualityBps,
		Weight:          result.Weight,
		Finalized:       result.Finalized,
		Claimed:         result.Claimed,
		ActualPrice:     result.ActualPrice,
		Won:             result.Won,
	}, nil
}
