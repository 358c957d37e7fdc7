package token

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// erc20ABIJSON carries the events of a classic ERC-20 contract with
// underscore-prefixed argument names.
const erc20ABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "_from", "type": "address"},
      {"indexed": true, "name": "_to", "type": "address"},
      {"indexed": false, "name": "_value", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "_owner", "type": "address"},
      {"indexed": true, "name": "_spender", "type": "address"},
      {"indexed": false, "name": "_value", "type": "uint256"}
    ],
    "name": "Approval",
    "type": "event"
  },
  {"constant": true, "inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"constant": true, "inputs": [], "name": "symbol", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"constant": true, "inputs": [], "name": "name", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"constant": true, "inputs": [], "name": "totalSupply", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

// legacyMetaABIJSON covers tokens that return bytes32 names and symbols.
const legacyMetaABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error

	legacyMetaABI     abi.ABI
	legacyMetaABIOnce sync.Once
	legacyMetaABIErr  error
)

// ERC20ABI returns the built-in ERC-20 ABI.
func ERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

func legacyMetaABIInstance() (abi.ABI, error) {
	legacyMetaABIOnce.Do(func() {
		legacyMetaABI, legacyMetaABIErr = abi.JSON(strings.NewReader(legacyMetaABIJSON))
	})
	return legacyMetaABI, legacyMetaABIErr
}

// LoadABI reads an ABI JSON file, falling back to the built-in ERC-20 ABI
// when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	if strings.TrimSpace(path) == "" {
		return ERC20ABI()
	}

	file, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("open abi: %w", err)
	}
	defer file.Close()

	parsed, err := abi.JSON(file)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}
