package models

import (
	"fmt"
	"strings"
)

// EventID builds the composite key for an event occurrence. The same scheme
// keys the processed-event ledger and Fee entities.
func EventID(txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
}

// NormalizeAddress lowercases a hex address so entity ids are stable
// regardless of the checksum casing the source used.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}
