package replay

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"ledgerReplay/internal/ledger"
	"ledgerReplay/internal/metrics"
	"ledgerReplay/internal/model"
)

const (
	defaultEnrichConcurrency = 8
	defaultEnrichCacheSize   = 10000
)

// TxLookup resolves the address that signed a transaction.
type TxLookup interface {
	TransactionOrigin(ctx context.Context, hash common.Hash) (common.Address, error)
}

// ProcessorConfig controls how transfer events are folded into the ledger.
type ProcessorConfig struct {
	Excluded          map[common.Hash]struct{}
	ProcessRemoved    bool
	Enrich            bool
	EnrichConcurrency int
	EnrichCacheSize   int
}

// Stats counts the outcome of folded events.
type Stats struct {
	Events    int
	Applied   int
	Excluded  int
	Removed   int
	Malformed int
}

func (s *Stats) add(other Stats) {
	s.Events += other.Events
	s.Applied += other.Applied
	s.Excluded += other.Excluded
	s.Removed += other.Removed
	s.Malformed += other.Malformed
}

// Processor folds transfer events into a ledger.
type Processor struct {
	cfg     ProcessorConfig
	ledger  *ledger.Ledger
	lookup  TxLookup
	origins *lru.Cache
	sem     *semaphore.Weighted
	logger  *zap.Logger
	pending sync.WaitGroup
}

// NewProcessor builds a Processor. lookup may be nil when enrichment is disabled.
func NewProcessor(cfg ProcessorConfig, l *ledger.Ledger, lookup TxLookup, logger *zap.Logger) (*Processor, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Enrich && lookup == nil {
		return nil, fmt.Errorf("enrichment requires a transaction lookup")
	}
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = defaultEnrichConcurrency
	}
	if cfg.EnrichCacheSize <= 0 {
		cfg.EnrichCacheSize = defaultEnrichCacheSize
	}
	if cfg.Excluded == nil {
		cfg.Excluded = make(map[common.Hash]struct{})
	}

	origins, err := lru.New(cfg.EnrichCacheSize)
	if err != nil {
		return nil, fmt.Errorf("origin cache: %w", err)
	}

	return &Processor{
		cfg:     cfg,
		ledger:  l,
		lookup:  lookup,
		origins: origins,
		sem:     semaphore.NewWeighted(int64(cfg.EnrichConcurrency)),
		logger:  logger,
	}, nil
}

// Ledger returns the ledger the processor folds into.
func (p *Processor) Ledger() *ledger.Ledger {
	return p.ledger
}

// Apply folds events into the ledger in the given order and returns the
// batch of enrichment lookups it started. Balances are final when Apply
// returns; only cached transaction hashes may still change.
func (p *Processor) Apply(ctx context.Context, events []model.TransferEvent) *Batch {
	var stats Stats
	var tasks []enrichTask
	queued := make(map[enrichTask]struct{})

	for _, event := range events {
		stats.Events++

		if event.Removed {
			p.logger.Warn("removed transfer event", eventFields(event)...)
			if !p.cfg.ProcessRemoved {
				stats.Removed++
				metrics.Events.WithLabelValues("removed").Inc()
				continue
			}
		}
		if event.Malformed() {
			p.logger.Warn("malformed transfer event", append(eventFields(event), zap.String("decode_error", event.DecodeError))...)
			stats.Malformed++
			metrics.Events.WithLabelValues("malformed").Inc()
			continue
		}
		if _, ok := p.cfg.Excluded[event.TxHash]; ok {
			p.logger.Info("excluded transfer event", eventFields(event)...)
			stats.Excluded++
			metrics.Events.WithLabelValues("excluded").Inc()
			continue
		}

		from := ledger.Key(event.From)
		to := ledger.Key(event.To)
		p.ledger.Transfer(from, to, event.Value)
		stats.Applied++
		metrics.Events.WithLabelValues("applied").Inc()

		if p.cfg.Enrich && !p.ledger.HasTxHash(from) {
			task := enrichTask{account: from, tx: event.TxHash}
			if _, ok := queued[task]; !ok {
				queued[task] = struct{}{}
				tasks = append(tasks, task)
			}
		}
	}

	metrics.Accounts.Set(float64(p.ledger.Len()))

	return p.startEnrichment(ctx, stats, tasks)
}

// Drain waits for every enrichment batch started so far.
func (p *Processor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func eventFields(event model.TransferEvent) []zap.Field {
	return []zap.Field{
		zap.Uint64("block_number", event.BlockNumber),
		zap.String("tx_hash", event.TxHash.Hex()),
		zap.Uint("log_index", event.LogIndex),
		zap.String("from", event.From.Hex()),
		zap.String("to", event.To.Hex()),
		zap.Bool("removed", event.Removed),
	}
}
