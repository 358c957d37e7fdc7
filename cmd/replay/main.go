package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ledgerReplay/internal/chain"
	"ledgerReplay/internal/config"
	"ledgerReplay/internal/ledger"
	"ledgerReplay/internal/metrics"
	"ledgerReplay/internal/replay"
	"ledgerReplay/internal/report"
	"ledgerReplay/internal/storage"
	"ledgerReplay/internal/token"
)

func main() {
	root := &cobra.Command{
		Use:          "replay",
		Short:        "Token ledger replay",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay transfer events into balance reports",
		RunE:  runReplay,
	}

	runCmd.Flags().String("rpc", "", "JSON-RPC URL")
	runCmd.Flags().String("contract", "", "token contract address")
	runCmd.Flags().String("abi", "", "contract ABI JSON file (default: built-in ERC-20)")
	runCmd.Flags().String("event", "Transfer", "transfer event name in the ABI")
	runCmd.Flags().Uint64("from", 0, "first block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "last block (inclusive), 0 means latest")
	runCmd.Flags().Bool("track-head", false, "extend the final window to the chain head")
	runCmd.Flags().Uint64("window-size", 5000, "blocks per log query")
	runCmd.Flags().Bool("enrich-tx-hashes", false, "cache a transaction signed by each sender")
	runCmd.Flags().Int("enrich-concurrency", 8, "concurrent transaction lookups")
	runCmd.Flags().Int("enrich-cache-size", 10000, "cached transaction origins")
	runCmd.Flags().Bool("await-enrichment", false, "wait for lookups after each window")
	runCmd.Flags().Bool("dump-events", false, "write raw events per window")
	runCmd.Flags().String("events-dir", "./data/events", "raw event dump directory")
	runCmd.Flags().StringSlice("exclude-tx", []string{replay.DefaultExcludedTx}, "transaction hashes to skip (comma-separated)")
	runCmd.Flags().Bool("process-removed", false, "apply events flagged as removed")
	runCmd.Flags().String("out-dir", "./data", "report directory")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", false, "enable checkpointing")
	runCmd.Flags().Int("checkpoint-interval", 10, "windows between checkpoints")
	runCmd.Flags().String("snapshot", "", "ledger snapshot path (default: next to checkpoint)")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts per request, negative retries forever")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().Duration("max-backoff", 30*time.Second, "maximum retry backoff")
	runCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	partitionCmd := &cobra.Command{
		Use:   "partition",
		Short: "Split a ledger snapshot into balance reports",
		RunE:  runPartition,
	}

	partitionCmd.Flags().String("in", "", "input snapshot CSV")
	partitionCmd.Flags().String("out-dir", "./data", "report directory")
	partitionCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(partitionCmd)

	recoverCmd := &cobra.Command{
		Use:   "recover-keys",
		Short: "Recover public keys from cached transactions",
		RunE:  runRecoverKeys,
	}

	recoverCmd.Flags().String("rpc", "", "JSON-RPC URL")
	recoverCmd.Flags().String("in", "", "input report CSV")
	recoverCmd.Flags().String("out", "./data/public_keys.csv", "output CSV")
	recoverCmd.Flags().Int("concurrency", 8, "concurrent transaction lookups")
	recoverCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(recoverCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	contract, err := replay.ParseAddress(cfg.Contract)
	if err != nil {
		return err
	}
	excluded, err := replay.ParseTxHashes(cfg.ExcludeTx)
	if err != nil {
		return err
	}

	contractABI, err := token.LoadABI(cfg.ABIPath)
	if err != nil {
		return err
	}
	decoder, err := token.NewTransferDecoder(contractABI, cfg.Event)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, logger)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	meta, err := token.FetchMetadata(ctx, chainClient, contract, logger)
	if err != nil {
		logger.Warn("token metadata unavailable", zap.String("contract", contract.Hex()), zap.Error(err))
	} else {
		supply := ""
		if meta.TotalSupply != nil {
			supply = meta.TotalSupply.String()
		}
		logger.Info("token metadata",
			zap.String("symbol", meta.Symbol),
			zap.String("name", meta.Name),
			zap.Uint8("decimals", meta.Decimals),
			zap.String("total_supply", supply),
		)
	}

	source := chain.NewTransferSource(chainClient, contract, decoder, logger)

	processor, err := replay.NewProcessor(replay.ProcessorConfig{
		Excluded:          excluded,
		ProcessRemoved:    cfg.ProcessRemoved,
		Enrich:            cfg.EnrichTxHashes,
		EnrichConcurrency: cfg.EnrichConcurrency,
		EnrichCacheSize:   cfg.EnrichCacheSize,
	}, ledger.New(), chainClient, logger)
	if err != nil {
		return err
	}

	var dump storage.EventDump
	if cfg.DumpEvents {
		dump = storage.NewJsonlDump(cfg.EventsDir)
	}

	runner := replay.NewRunner(replay.RunConfig{
		Contract:           ledger.Key(contract),
		FirstBlock:         cfg.FromBlock,
		LastBlock:          cfg.ToBlock,
		TrackHead:          cfg.TrackHead,
		WindowSize:         cfg.WindowSize,
		MaxRetries:         cfg.MaxRetries,
		RetryBackoff:       cfg.RetryBackoff,
		MaxBackoff:         cfg.MaxBackoff,
		AwaitEnrichment:    cfg.AwaitEnrichment,
		CheckpointPath:     cfg.Checkpoint,
		CheckpointEnabled:  cfg.CheckpointEnabled,
		CheckpointInterval: cfg.CheckpointInterval,
		SnapshotPath:       cfg.Snapshot,
	}, source, processor, dump, logger)

	logger.Info("replay start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", contract.Hex()),
		zap.String("event", cfg.Event),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Bool("track_head", cfg.TrackHead),
		zap.Uint64("window_size", cfg.WindowSize),
		zap.Int("excluded_tx", len(excluded)),
		zap.Bool("enrich", cfg.EnrichTxHashes),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("out_dir", cfg.OutDir),
	)

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("replay failed", zap.Error(err), zap.Uint64("last_block", result.LastBlock))
		return err
	}

	if err := processor.Drain(ctx); err != nil {
		return fmt.Errorf("drain enrichment: %w", err)
	}

	l := processor.Ledger()
	partition := report.Split(l.Rows())
	if err := report.NewWriter(cfg.OutDir).Write(partition); err != nil {
		return err
	}

	logger.Info("replay complete",
		zap.String("symbol", meta.Symbol),
		zap.Uint64("from", result.FromBlock),
		zap.Uint64("last_block", result.LastBlock),
		zap.Bool("resumed", result.Resumed),
		zap.Int("windows", result.Windows),
		zap.Int("events", result.Events),
		zap.Int("applied", result.Applied),
		zap.Int("excluded", result.Excluded),
		zap.Int("removed", result.Removed),
		zap.Int("malformed", result.Malformed),
		zap.Int("accounts", l.Len()),
		zap.Int("zero", len(partition.Zero)),
		zap.Int("positive", len(partition.Positive)),
		zap.Int("negative", len(partition.Negative)),
		zap.String("sum", l.Sum().String()),
		zap.String("out_dir", filepath.Clean(cfg.OutDir)),
	)

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

