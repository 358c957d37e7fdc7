package replay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ledgerReplay/internal/metrics"
	"ledgerReplay/internal/model"
	"ledgerReplay/internal/storage"
	"ledgerReplay/internal/token"
)

// Source provides transfer events and the chain head.
type Source interface {
	TransferEvents(ctx context.Context, fromBlock, toBlock uint64) ([]model.TransferEvent, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// RunConfig holds runtime settings for the replay loop.
type RunConfig struct {
	Contract           string
	FirstBlock         uint64
	LastBlock          uint64
	TrackHead          bool
	WindowSize         uint64
	MaxRetries         int
	RetryBackoff       time.Duration
	MaxBackoff         time.Duration
	AwaitEnrichment    bool
	CheckpointPath     string
	CheckpointEnabled  bool
	CheckpointInterval int
	SnapshotPath       string
}

// Result summarizes a replay run.
type Result struct {
	Stats
	Windows   int
	FromBlock uint64
	LastBlock uint64
	Resumed   bool
}

// Runner replays a contract's transfer history window by window.
type Runner struct {
	cfg        RunConfig
	source     Source
	processor  *Processor
	dump       storage.EventDump
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. dump may be nil.
func NewRunner(cfg RunConfig, source Source, processor *Processor, dump storage.EventDump, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 1
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		processor:  processor,
		dump:       dump,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.SnapshotPath, cfg.CheckpointEnabled),
	}
}

// Run executes the replay loop. The ledger is complete for every window up
// to Result.LastBlock when Run returns, even on error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result
	if r.source == nil {
		return result, fmt.Errorf("source is nil")
	}
	if r.processor == nil {
		return result, fmt.Errorf("processor is nil")
	}
	if r.cfg.WindowSize == 0 {
		return result, fmt.Errorf("window size must be greater than zero")
	}

	from := r.cfg.FirstBlock
	last := r.cfg.LastBlock
	if last == 0 {
		head, err := r.latestWithRetry(ctx)
		if err != nil {
			return result, fmt.Errorf("get latest block: %w", err)
		}
		last = head
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return result, err
	}
	if ok && cp.LastProcessedBlock >= from {
		if !strings.EqualFold(cp.Contract, r.cfg.Contract) {
			return result, fmt.Errorf("checkpoint belongs to contract %q", cp.Contract)
		}
		if err := r.checkpoint.Restore(cp, r.processor.Ledger()); err != nil {
			return result, err
		}
		from = cp.LastProcessedBlock + 1
		result.Resumed = true
		r.logger.Info("resume from checkpoint",
			zap.Uint64("last_processed", cp.LastProcessedBlock),
			zap.Uint64("from", from),
			zap.Int("accounts", r.processor.Ledger().Len()),
		)
	}
	result.FromBlock = from

	sinceCheckpoint := 0
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		window, ok, err := r.nextWindow(ctx, from, last)
		if err != nil {
			return result, err
		}
		if !ok {
			if result.Windows == 0 {
				r.logger.Info("nothing to replay", zap.Uint64("from", from), zap.Uint64("to", last))
			}
			break
		}

		r.logger.Info("fetch events", zap.Uint64("from", window.From), zap.Uint64("to", window.To), zap.Bool("final", window.Final))

		events, err := r.fetchWithRetry(ctx, window)
		if err != nil {
			return result, fmt.Errorf("fetch window %d-%d: %w", window.From, window.To, err)
		}
		metrics.WindowsFetched.Inc()

		r.dumpWindow(window, events)

		batch := r.processor.Apply(ctx, events)
		if r.cfg.AwaitEnrichment {
			if err := batch.Wait(ctx); err != nil {
				return result, err
			}
		}

		result.Stats.add(batch.Stats)
		result.Windows++
		result.LastBlock = window.To
		metrics.CurrentBlock.Set(float64(window.To))

		r.logger.Info("window complete",
			zap.Uint64("from", window.From),
			zap.Uint64("to", window.To),
			zap.Int("events", batch.Stats.Events),
			zap.Int("applied", batch.Stats.Applied),
			zap.Int("total_events", result.Events),
			zap.Int("accounts", r.processor.Ledger().Len()),
		)

		sinceCheckpoint++
		if r.checkpoint.Enabled() && (sinceCheckpoint >= r.cfg.CheckpointInterval || window.Final) {
			// the snapshot must carry every cached hash of the windows it covers
			if err := r.processor.Drain(ctx); err != nil {
				return result, err
			}
			if err := r.checkpoint.Save(r.cfg.Contract, window.To, r.processor.Ledger()); err != nil {
				return result, err
			}
			sinceCheckpoint = 0
		}

		if window.Final {
			break
		}
		from = window.To + 1
	}

	return result, nil
}

// nextWindow returns the window starting at from. With head tracking the
// final window is extended to the current chain head. ok is false once the
// range is exhausted.
func (r *Runner) nextWindow(ctx context.Context, from, last uint64) (Window, bool, error) {
	var window Window
	switch {
	case from <= last:
		var err error
		window, err = NextWindow(from, last, r.cfg.WindowSize)
		if err != nil {
			return Window{}, false, err
		}
		if !window.Final || !r.cfg.TrackHead {
			return window, true, nil
		}
	case r.cfg.TrackHead:
		window = Window{From: from, To: last, Final: true}
	default:
		return Window{}, false, nil
	}

	head, err := r.latestWithRetry(ctx)
	if err != nil {
		return Window{}, false, fmt.Errorf("get latest block: %w", err)
	}
	if head > window.To {
		window.To = head
	}
	if window.To < window.From {
		return Window{}, false, nil
	}
	return window, true, nil
}

func (r *Runner) fetchWithRetry(ctx context.Context, window Window) ([]model.TransferEvent, error) {
	var events []model.TransferEvent
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, r.cfg.MaxBackoff, func(ctx context.Context) error {
		var err error
		events, err = r.source.TransferEvents(ctx, window.From, window.To)
		if err != nil {
			metrics.FetchFailures.Inc()
			r.logger.Warn("fetch events failed", zap.Error(err), zap.Uint64("from", window.From), zap.Uint64("to", window.To))
		}
		return err
	})
	return events, err
}

func (r *Runner) latestWithRetry(ctx context.Context) (uint64, error) {
	var head uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, r.cfg.MaxBackoff, func(ctx context.Context) error {
		var err error
		head, err = r.source.LatestBlockNumber(ctx)
		if err != nil {
			r.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	if err == nil {
		metrics.ChainHead.Set(float64(head))
	}
	return head, err
}

func (r *Runner) dumpWindow(window Window, events []model.TransferEvent) {
	if r.dump == nil {
		return
	}
	records := make([]model.RawEvent, 0, len(events))
	for _, event := range events {
		records = append(records, token.RawEvent(event))
	}
	if err := r.dump.PutWindow(window.From, records); err != nil {
		r.logger.Warn("dump events failed", zap.Error(err), zap.Uint64("from", window.From))
	}
}
