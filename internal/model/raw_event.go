package model

import (
	"encoding/json"
)

// RawEvent is the dump representation of a fetched Transfer log.
type RawEvent struct {
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	Value       string   `json:"value,omitempty"`
	DecodeError string   `json:"decode_error,omitempty"`
}

// MarshalJSON ensures RawEvent is encoded with stable field names.
func (r RawEvent) MarshalJSON() ([]byte, error) {
	type Alias RawEvent
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a RawEvent from JSON.
func (r *RawEvent) UnmarshalJSON(data []byte) error {
	type Alias RawEvent
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = RawEvent(a)
	return nil
}
