package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransferEvent is a decoded token transfer as returned by the provider.
type TransferEvent struct {
	Contract    common.Address
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	TxIndex     uint
	LogIndex    uint
	From        common.Address
	To          common.Address
	// Value is nil when the magnitude is absent or could not be decoded.
	Value       *big.Int
	Removed     bool
	DecodeError string
	Raw         types.Log
}

// Malformed reports whether the event lacks a usable magnitude.
func (e TransferEvent) Malformed() bool {
	return e.Value == nil
}
