package token

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestTransferDecoderDecode(t *testing.T) {
	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewTransferDecoder(erc20, "")
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	from := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	amount, _ := new(big.Int).SetString("5000000000000000000000", 10)

	data, err := erc20.Events["Transfer"].Inputs.NonIndexed().Pack(amount)
	if err != nil {
		t.Fatalf("pack transfer: %v", err)
	}

	log := buildLog(erc20.Events["Transfer"].ID, data, topicFromAddress(from), topicFromAddress(to))

	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode transfer: %v", err)
	}
	if event.From != from || event.To != to {
		t.Fatalf("address mismatch: %s -> %s", event.From.Hex(), event.To.Hex())
	}
	if event.Value == nil || event.Value.Cmp(amount) != 0 {
		t.Fatalf("value mismatch: %v", event.Value)
	}
	if event.Malformed() || event.DecodeError != "" {
		t.Fatalf("unexpected decode error: %s", event.DecodeError)
	}
	if event.BlockNumber != 4212161 || event.LogIndex != 2 || event.TxHash != log.TxHash {
		t.Fatalf("position mismatch: %+v", event)
	}
}

func TestTransferDecoderMissingValue(t *testing.T) {
	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewTransferDecoder(erc20, "Transfer")
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	from := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := buildLog(erc20.Events["Transfer"].ID, nil, topicFromAddress(from), topicFromAddress(to))

	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode should keep malformed event: %v", err)
	}
	if !event.Malformed() || event.DecodeError == "" {
		t.Fatalf("expected malformed event: %+v", event)
	}
	if event.From != from || event.To != to {
		t.Fatalf("parties should still be decoded")
	}
}

func TestTransferDecoderRejectsForeignLogs(t *testing.T) {
	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewTransferDecoder(erc20, "Transfer")
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	if _, err := decoder.Decode(types.Log{}); err == nil {
		t.Fatalf("expected error for log without topics")
	}

	approval := buildLog(erc20.Events["Approval"].ID, nil)
	if _, err := decoder.Decode(approval); err == nil {
		t.Fatalf("expected error for approval log")
	}

	truncated := buildLog(erc20.Events["Transfer"].ID, nil, topicFromAddress(common.Address{}))
	if _, err := decoder.Decode(truncated); err == nil {
		t.Fatalf("expected error for missing receiver topic")
	}
}

func TestTransferDecoderCustomABI(t *testing.T) {
	const custom = `[{"anonymous":false,"inputs":[
		{"indexed":true,"name":"src","type":"address"},
		{"indexed":true,"name":"dst","type":"address"},
		{"indexed":false,"name":"wad","type":"uint256"}
	],"name":"Transfer","type":"event"}]`

	parsed, err := abi.JSON(strings.NewReader(custom))
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewTransferDecoder(parsed, "Transfer")
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := parsed.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(42))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	src := common.HexToAddress("0x4444444444444444444444444444444444444444")
	dst := common.HexToAddress("0x5555555555555555555555555555555555555555")

	event, err := decoder.Decode(buildLog(decoder.Topic0(), data, topicFromAddress(src), topicFromAddress(dst)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.From != src || event.To != dst || event.Value.Int64() != 42 {
		t.Fatalf("decoded mismatch: %+v", event)
	}

	raw := RawEvent(event)
	if raw.Value != "42" || raw.From != src.Hex() || len(raw.Topics) != 3 {
		t.Fatalf("raw event mismatch: %+v", raw)
	}
}

func TestNewTransferDecoderRejectsNonTransferEvents(t *testing.T) {
	const custom = `[{"anonymous":false,"inputs":[
		{"indexed":true,"name":"owner","type":"address"}
	],"name":"Paused","type":"event"}]`

	parsed, err := abi.JSON(strings.NewReader(custom))
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	if _, err := NewTransferDecoder(parsed, "Paused"); err == nil {
		t.Fatalf("expected error for non transfer-shaped event")
	}
	if _, err := NewTransferDecoder(parsed, "Transfer"); err == nil {
		t.Fatalf("expected error for missing event")
	}
}

func buildLog(topic0 common.Hash, data []byte, indexed ...common.Hash) types.Log {
	topics := make([]common.Hash, 0, len(indexed)+1)
	topics = append(topics, topic0)
	topics = append(topics, indexed...)

	return types.Log{
		Address:     common.HexToAddress("0xf230b790e05390fc8295f4d3f60332c93bed42e2"),
		Topics:      topics,
		Data:        data,
		BlockNumber: 4212161,
		TxHash:      common.HexToHash("0xdef456"),
		TxIndex:     1,
		BlockHash:   common.HexToHash("0xabc"),
		Index:       2,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
