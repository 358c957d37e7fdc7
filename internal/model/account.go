package model

import "math/big"

// Account is the reconstructed state of one address.
type Account struct {
	Balance          *big.Int
	TransactionCount uint64
	CachedTxHash     string
}
