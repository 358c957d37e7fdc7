package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	CurrentBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_replay_current_block",
		Help: "Upper bound of the last replayed window",
	})

	ChainHead = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_replay_chain_head",
		Help: "Latest block number reported by the provider",
	})

	WindowsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_replay_windows_fetched_total",
		Help: "Block windows fetched successfully",
	})

	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_replay_fetch_failures_total",
		Help: "Failed window fetch attempts",
	})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_replay_events_total",
		Help: "Transfer events seen by the processor, by outcome",
	}, []string{"outcome"})

	EnrichmentLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_replay_enrichment_lookups_total",
		Help: "Transaction origin lookups, by result",
	}, []string{"result"})

	Accounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_replay_accounts",
		Help: "Distinct addresses in the ledger",
	})
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
