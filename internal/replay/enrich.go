package replay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ledgerReplay/internal/ledger"
	"ledgerReplay/internal/metrics"
)

type enrichTask struct {
	account string
	tx      common.Hash
}

// Batch tracks the enrichment lookups started for one folded window.
type Batch struct {
	Stats Stats
	done  chan struct{}
}

// Wait blocks until every lookup of the batch has finished or ctx is done.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) startEnrichment(ctx context.Context, stats Stats, tasks []enrichTask) *Batch {
	batch := &Batch{Stats: stats, done: make(chan struct{})}
	if len(tasks) == 0 {
		close(batch.done)
		return batch
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		defer close(batch.done)

		var g errgroup.Group
		g.SetLimit(p.cfg.EnrichConcurrency)
		for _, task := range tasks {
			g.Go(func() error {
				if err := p.sem.Acquire(ctx, 1); err != nil {
					return nil
				}
				defer p.sem.Release(1)
				p.enrich(ctx, task)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return batch
}

// enrich caches task.tx on the account when the account signed it.
// Lookup failures are dropped.
func (p *Processor) enrich(ctx context.Context, task enrichTask) {
	if p.ledger.HasTxHash(task.account) {
		return
	}

	var origin common.Address
	if cached, ok := p.origins.Get(task.tx); ok {
		origin = cached.(common.Address)
		metrics.EnrichmentLookups.WithLabelValues("cache_hit").Inc()
	} else {
		var err error
		origin, err = p.lookup.TransactionOrigin(ctx, task.tx)
		if err != nil {
			metrics.EnrichmentLookups.WithLabelValues("error").Inc()
			p.logger.Debug("transaction lookup failed", zap.String("tx_hash", task.tx.Hex()), zap.Error(err))
			return
		}
		p.origins.Add(task.tx, origin)
		metrics.EnrichmentLookups.WithLabelValues("ok").Inc()
	}

	if ledger.Key(origin) != task.account {
		return
	}
	p.ledger.CacheTxHash(task.account, task.tx.Hex())
}
