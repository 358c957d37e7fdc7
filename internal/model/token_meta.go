package model

import "math/big"

// TokenMeta captures ERC-20 metadata of the replayed contract.
type TokenMeta struct {
	Address     string
	Decimals    uint8
	Symbol      string
	Name        string
	TotalSupply *big.Int
}
