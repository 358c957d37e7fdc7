package storage

import "ledgerReplay/internal/model"

// EventDump is a sink for the raw events of one fetched window.
type EventDump interface {
	PutWindow(fromBlock uint64, events []model.RawEvent) error
}
