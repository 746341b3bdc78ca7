package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// TorchMarketABI covers the four events the indexer projects plus the getBet
// view used to backfill bet fields the BetPlaced event does not carry.
const TorchMarketABI = `[
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"bettor","type":"address"},
		{"indexed":false,"internalType":"uint256","name":"betId","type":"uint256"},
		{"indexed":false,"internalType":"uint256","name":"bucket","type":"uint256"}
	],"name":"BetPlaced","type":"event"},
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"uint256","name":"betId","type":"uint256"},
		{"indexed":false,"internalType":"uint256","name":"actualPrice","type":"uint256"},
		{"indexed":false,"internalType":"bool","name":"won","type":"bool"},
		{"indexed":false,"internalType":"uint256","name":"payout","type":"uint256"}
	],"name":"BetFinalized","type":"event"},
	{"anonymous":false,"inputs":[
		{"indexed":true,"internalType":"uint256","name":"betId","type":"uint256"},
		{"indexed":true,"internalType":"address","name":"bettor","type":"address"},
		{"indexed":false,"internalType":"uint256","name":"payout","type":"uint256"}
	],"name":"BetClaimed","type":"event"},
	{"anonymous":false,"inputs":[
		{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}
	],"name":"FeeCollected","type":"event"},
	{"constant":true,"inputs":[
		{"internalType":"uint256","name":"betId","type":"uint256"}
	],"name":"getBet","outputs":[
		{"internalType":"address","name":"bettor","type":"address"},
		{"internalType":"uint256","name":"targetTimestamp","type":"uint256"},
		{"internalType":"uint256","name":"priceMin","type":"uint256"},
		{"internalType":"uint256","name":"priceMax","type":"uint256"},
		{"internalType":"uint256","name":"stake","type":"uint256"},
		{"internalType":"uint256","name":"qualityBps","type":"uint256"},
		{"internalType":"uint256","name":"weight","type":"uint256"},
		{"internalType":"bool","name":"finalized","type":"bool"},
		{"internalType":"bool","name":"claimed","type":"bool"},
		{"internalType":"uint256","name":"actualPrice","type":"uint256"},
		{"internalType":"bool","name":"won","type":"bool"}
	],"stateMutability":"view","type":"function"}
]`

// ParseABI parses TorchMarketABI. Exposed so tests can pack event payloads
// with the exact same ABI the decoder uses.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(TorchMarketABI))
}
