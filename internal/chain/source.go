package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ledgerReplay/internal/model"
	"ledgerReplay/internal/token"
)

// LogFilterer is the subset of Client used by TransferSource.
type LogFilterer interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, contract common.Address, topic0 common.Hash) ([]types.Log, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// TransferSource fetches and decodes a contract's transfer events.
type TransferSource struct {
	filterer LogFilterer
	contract common.Address
	decoder  *token.TransferDecoder
	logger   *zap.Logger
}

func NewTransferSource(filterer LogFilterer, contract common.Address, decoder *token.TransferDecoder, logger *zap.Logger) *TransferSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferSource{
		filterer: filterer,
		contract: contract,
		decoder:  decoder,
		logger:   logger,
	}
}

// TransferEvents returns the decoded transfer events of [fromBlock, toBlock]
// in provider order. Logs that are not decodable as transfers are dropped.
func (s *TransferSource) TransferEvents(ctx context.Context, fromBlock, toBlock uint64) ([]model.TransferEvent, error) {
	logs, err := s.filterer.FilterLogs(ctx, fromBlock, toBlock, s.contract, s.decoder.Topic0())
	if err != nil {
		return nil, err
	}

	events := make([]model.TransferEvent, 0, len(logs))
	for _, log := range logs {
		event, err := s.decoder.Decode(log)
		if err != nil {
			s.logger.Warn("undecodable transfer log",
				zap.Error(err),
				zap.Uint64("block_number", log.BlockNumber),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint("log_index", log.Index),
			)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// LatestBlockNumber returns the current chain head.
func (s *TransferSource) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return s.filterer.LatestBlockNumber(ctx)
}
