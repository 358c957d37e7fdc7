package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"ledgerReplay/internal/model"
	"ledgerReplay/internal/report"
)

func TestPartitionSnapshotMergesCaseVariants(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "snapshot.csv")
	content := "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA,,10,1\n" +
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa,0x01,-10,2\n" +
		"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb,null,5,1\n" +
		"0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC,,-5,1\n"
	if err := os.WriteFile(in, []byte(content), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	partition, rows, err := partitionSnapshot(in, outDir)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if rows != 4 || partition.Len() != 3 {
		t.Fatalf("rows=%d accounts=%d", rows, partition.Len())
	}

	zero, err := report.ReadFile(filepath.Join(outDir, report.ZeroFile))
	if err != nil {
		t.Fatalf("read zero: %v", err)
	}
	want := model.ReportRow{
		Address:          "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		CachedTxHash:     "0x01",
		Balance:          new(big.Int),
		TransactionCount: 3,
	}
	if len(zero) != 1 || zero[0].Address != want.Address || zero[0].CachedTxHash != want.CachedTxHash ||
		zero[0].Balance.Sign() != 0 || zero[0].TransactionCount != want.TransactionCount {
		t.Fatalf("unexpected zero rows: %+v", zero)
	}

	positive, err := report.ReadFile(filepath.Join(outDir, report.PositiveFile))
	if err != nil {
		t.Fatalf("read positive: %v", err)
	}
	if len(positive) != 1 || positive[0].CachedTxHash != "" || positive[0].Balance.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected positive rows: %+v", positive)
	}

	negative, err := report.ReadFile(filepath.Join(outDir, report.NegativeFile))
	if err != nil {
		t.Fatalf("read negative: %v", err)
	}
	if len(negative) != 1 || negative[0].Address != "0xcccccccccccccccccccccccccccccccccccccccc" {
		t.Fatalf("unexpected negative rows: %+v", negative)
	}
}

func TestPartitionSnapshotMissingInput(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := partitionSnapshot(filepath.Join(dir, "missing.csv"), dir); err == nil {
		t.Fatalf("expected error for missing snapshot")
	}
}
