package replay

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultExcludedTx is the historical anomalous transfer skipped by default.
const DefaultExcludedTx = "0x9299ff8878c8a22306be0b79a740b6dcc76a4dc5307717a292879923930ba9bc"

// ParseAddress converts a string address into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// ParseTxHashes converts string transaction hashes into a lookup set.
func ParseTxHashes(inputs []string) (map[common.Hash]struct{}, error) {
	hashes := make(map[common.Hash]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		data, err := hexutil.Decode(input)
		if err != nil {
			return nil, fmt.Errorf("invalid tx hash: %s", input)
		}
		if len(data) != common.HashLength {
			return nil, fmt.Errorf("invalid tx hash length: %s", input)
		}
		hashes[common.BytesToHash(data)] = struct{}{}
	}
	return hashes, nil
}
