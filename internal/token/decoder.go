package token

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"ledgerReplay/internal/model"
)

// TransferDecoder decodes transfer-shaped event logs.
//
// The sender and receiver are the first and second address inputs of the
// event, the magnitude is its first integer input.
type TransferDecoder struct {
	event     abi.Event
	fromName  string
	toName    string
	valueName string
}

// NewTransferDecoder builds a decoder for the named event of contractABI.
func NewTransferDecoder(contractABI abi.ABI, eventName string) (*TransferDecoder, error) {
	if eventName == "" {
		eventName = "Transfer"
	}
	event, ok := contractABI.Events[eventName]
	if !ok {
		return nil, fmt.Errorf("event %s not found in abi", eventName)
	}

	d := &TransferDecoder{event: event}
	for _, input := range event.Inputs {
		if input.Name == "" {
			return nil, fmt.Errorf("event %s has unnamed inputs", eventName)
		}
		switch input.Type.T {
		case abi.AddressTy:
			if d.fromName == "" {
				d.fromName = input.Name
			} else if d.toName == "" {
				d.toName = input.Name
			}
		case abi.UintTy, abi.IntTy:
			if d.valueName == "" {
				d.valueName = input.Name
			}
		}
	}
	if d.fromName == "" || d.toName == "" || d.valueName == "" {
		return nil, fmt.Errorf("event %s is not transfer-shaped", eventName)
	}

	return d, nil
}

// Topic0 returns the event signature hash.
func (d *TransferDecoder) Topic0() common.Hash {
	return d.event.ID
}

// Decode converts a raw log into a TransferEvent. Logs with an unreadable
// magnitude still yield an event, with a nil Value and DecodeError set; an
// error is returned only when the log is not this event at all or its
// parties cannot be recovered.
func (d *TransferDecoder) Decode(log types.Log) (model.TransferEvent, error) {
	if len(log.Topics) == 0 {
		return model.TransferEvent{}, fmt.Errorf("missing topics")
	}
	if log.Topics[0] != d.event.ID {
		return model.TransferEvent{}, fmt.Errorf("unexpected topic0: %s", log.Topics[0].Hex())
	}

	event := model.TransferEvent{
		Contract:    log.Address,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		TxIndex:     log.TxIndex,
		LogIndex:    log.Index,
		Removed:     log.Removed,
		Raw:         log,
	}

	var indexed abi.Arguments
	for _, input := range d.event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	values := make(map[string]interface{})
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return model.TransferEvent{}, fmt.Errorf("parse topics: %w", err)
	}
	if err := d.event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		event.DecodeError = fmt.Sprintf("unpack data: %v", err)
	}

	from, err := asAddress(values[d.fromName])
	if err != nil {
		return model.TransferEvent{}, fmt.Errorf("%s: %w", d.fromName, err)
	}
	to, err := asAddress(values[d.toName])
	if err != nil {
		return model.TransferEvent{}, fmt.Errorf("%s: %w", d.toName, err)
	}
	event.From = from
	event.To = to

	value, err := asBigInt(values[d.valueName])
	if err != nil {
		if event.DecodeError == "" {
			event.DecodeError = fmt.Sprintf("%s: %v", d.valueName, err)
		}
		return event, nil
	}
	if value.Sign() < 0 {
		event.DecodeError = fmt.Sprintf("%s: negative magnitude %s", d.valueName, value)
		return event, nil
	}
	event.Value = value

	return event, nil
}

// RawEvent converts a decoded event into its dump representation.
func RawEvent(event model.TransferEvent) model.RawEvent {
	topics := make([]string, 0, len(event.Raw.Topics))
	for _, topic := range event.Raw.Topics {
		topics = append(topics, topic.Hex())
	}

	record := model.RawEvent{
		BlockNumber: event.BlockNumber,
		BlockHash:   event.BlockHash.Hex(),
		TxHash:      event.TxHash.Hex(),
		TxIndex:     uint64(event.TxIndex),
		LogIndex:    uint64(event.LogIndex),
		Address:     event.Contract.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(event.Raw.Data),
		Removed:     event.Removed,
		From:        event.From.Hex(),
		To:          event.To.Hex(),
		DecodeError: event.DecodeError,
	}
	if event.Value != nil {
		record.Value = event.Value.String()
	}
	return record
}

func asAddress(value interface{}) (common.Address, error) {
	switch typed := value.(type) {
	case common.Address:
		return typed, nil
	case nil:
		return common.Address{}, fmt.Errorf("missing address")
	default:
		return common.Address{}, fmt.Errorf("unexpected address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch typed := value.(type) {
	case *big.Int:
		if typed == nil {
			return nil, fmt.Errorf("missing value")
		}
		return new(big.Int).Set(typed), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(typed)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(typed)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(typed)), nil
	case uint64:
		return new(big.Int).SetUint64(typed), nil
	case int8:
		return big.NewInt(int64(typed)), nil
	case int16:
		return big.NewInt(int64(typed)), nil
	case int32:
		return big.NewInt(int64(typed)), nil
	case int64:
		return big.NewInt(typed), nil
	case nil:
		return nil, fmt.Errorf("missing value")
	default:
		return nil, fmt.Errorf("unexpected value type %T", value)
	}
}
