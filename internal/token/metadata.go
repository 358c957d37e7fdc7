package token

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ledgerReplay/internal/model"
)

// FetchMetadata loads token metadata via ERC-20 calls at the latest block.
// Only decimals is required; symbol, name and totalSupply are best effort.
func FetchMetadata(ctx context.Context, caller ethereum.ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	erc20, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	legacy, err := legacyMetaABIInstance()
	if err != nil {
		return meta, fmt.Errorf("parse legacy abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", erc20)
	if err != nil {
		return meta, err
	}
	decimals, err := asBigInt(values[0])
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	if !decimals.IsUint64() || decimals.Uint64() > 255 {
		return meta, fmt.Errorf("decimals out of range: %s", decimals)
	}
	meta.Decimals = uint8(decimals.Uint64())

	meta.Symbol = textField(call, "symbol", erc20, legacy, logger)
	meta.Name = textField(call, "name", erc20, legacy, logger)

	if values, err := call("totalSupply", erc20); err == nil {
		if supply, err := asBigInt(values[0]); err == nil {
			meta.TotalSupply = supply
		}
	} else {
		logger.Debug("totalSupply call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

// textField reads a string method, falling back to its bytes32 variant.
func textField(call func(string, abi.ABI) ([]interface{}, error), method string, erc20, legacy abi.ABI, logger *zap.Logger) string {
	values, err := call(method, erc20)
	if err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err = call(method, legacy)
	if err == nil {
		if text, ok := bytes32ToString(values[0]); ok {
			return text
		}
	}
	if err != nil {
		logger.Debug(method+" call failed", zap.Error(err))
	}
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
