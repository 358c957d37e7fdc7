package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerReplay/internal/config"
	"ledgerReplay/internal/ledger"
	"ledgerReplay/internal/report"
)

func runPartition(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPartition(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	partition, rows, err := partitionSnapshot(cfg.In, cfg.OutDir)
	if err != nil {
		return err
	}

	logger.Info("partition complete",
		zap.String("in", cfg.In),
		zap.Int("rows", rows),
		zap.Int("accounts", partition.Len()),
		zap.Int("zero", len(partition.Zero)),
		zap.Int("positive", len(partition.Positive)),
		zap.Int("negative", len(partition.Negative)),
		zap.String("out_dir", cfg.OutDir),
	)

	return nil
}

// partitionSnapshot reads a snapshot CSV, merges duplicate spellings of the
// same address and writes the three balance reports to outDir. It returns
// the written partition and the number of input rows.
func partitionSnapshot(in, outDir string) (report.Partition, int, error) {
	rows, err := report.ReadFile(in)
	if err != nil {
		return report.Partition{}, 0, err
	}

	l := ledger.New()
	l.Restore(rows)

	partition := report.Split(l.Rows())
	if err := report.NewWriter(outDir).Write(partition); err != nil {
		return report.Partition{}, len(rows), err
	}
	return partition, len(rows), nil
}
