package keys

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ledgerReplay/internal/ledger"
	"ledgerReplay/internal/model"
)

const defaultConcurrency = 8

// TxFetcher loads mined transactions and the chain id they were signed for.
type TxFetcher interface {
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error)
}

// Service recovers public keys for report rows with a cached transaction.
type Service struct {
	fetcher     TxFetcher
	concurrency int
	logger      *zap.Logger
}

func NewService(fetcher TxFetcher, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, concurrency: concurrency, logger: logger}
}

// Stats counts recovery outcomes.
type Stats struct {
	Rows      int
	Recovered int
	Skipped   int
	Failed    int
}

// RecoverRows returns one key row per input row, in input order. Rows
// without a cached transaction or whose recovery fails keep an empty key.
func (s *Service) RecoverRows(ctx context.Context, rows []model.ReportRow) ([]model.KeyRow, Stats, error) {
	stats := Stats{Rows: len(rows)}
	if s.fetcher == nil {
		return nil, stats, fmt.Errorf("transaction fetcher is nil")
	}

	chainID, err := s.fetcher.ChainID(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("chain id: %w", err)
	}

	out := make([]model.KeyRow, len(rows))
	results := make([]int, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, row := range rows {
		out[i] = model.KeyRow{
			Address:          row.Address,
			Balance:          row.Balance,
			TransactionCount: row.TransactionCount,
		}
		if row.CachedTxHash == "" {
			continue
		}

		g.Go(func() error {
			key, err := s.recoverRow(gctx, chainID, row)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("recover public key failed",
					zap.String("address", row.Address),
					zap.String("tx_hash", row.CachedTxHash),
					zap.Error(err),
				)
				results[i] = -1
				return nil
			}
			out[i].PublicKey = key
			results[i] = 1
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	for _, result := range results {
		switch result {
		case 1:
			stats.Recovered++
		case -1:
			stats.Failed++
		default:
			stats.Skipped++
		}
	}

	return out, stats, nil
}

func (s *Service) recoverRow(ctx context.Context, chainID *big.Int, row model.ReportRow) (string, error) {
	hash := common.HexToHash(row.CachedTxHash)
	tx, err := s.fetcher.TransactionByHash(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("fetch transaction: %w", err)
	}

	pub, address, err := Recover(tx, chainID)
	if err != nil {
		return "", err
	}
	if ledger.Key(address) != ledger.NormalizeAddress(row.Address) {
		return "", fmt.Errorf("recovered address %s does not match", address.Hex())
	}

	return PublicKeyHex(pub), nil
}
