package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerReplay/internal/chain"
	"ledgerReplay/internal/config"
	"ledgerReplay/internal/keys"
	"ledgerReplay/internal/report"
)

func runRecoverKeys(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRecover(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rows, err := report.ReadFile(cfg.In)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	logger.Info("recover keys start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("in", cfg.In),
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", cfg.Concurrency),
	)

	out, stats, err := keys.NewService(chainClient, cfg.Concurrency, logger).RecoverRows(ctx, rows)
	if err != nil {
		return err
	}
	if err := keys.WriteFile(cfg.Out, out); err != nil {
		return err
	}

	logger.Info("recover keys complete",
		zap.Int("rows", stats.Rows),
		zap.Int("recovered", stats.Recovered),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.String("out", cfg.Out),
	)

	return nil
}
