package model

import "math/big"

// ReportRow is one ledger entry as written to the CSV artifacts.
type ReportRow struct {
	Address          string
	CachedTxHash     string
	Balance          *big.Int
	TransactionCount uint64
}

// KeyRow is a report row with the recovered public key of its address.
type KeyRow struct {
	Address          string
	PublicKey        string
	Balance          *big.Int
	TransactionCount uint64
}
