package keys

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"ledgerReplay/internal/model"
)

// WriteRows writes address,publicKey,balance,transactionCount rows.
func WriteRows(w io.Writer, rows []model.KeyRow) error {
	writer := csv.NewWriter(w)
	for _, row := range rows {
		balance := "0"
		if row.Balance != nil {
			balance = row.Balance.String()
		}
		record := []string{row.Address, row.PublicKey, balance, strconv.FormatUint(row.TransactionCount, 10)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes rows to path, replacing it atomically.
func WriteFile(path string, rows []model.KeyRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if err := WriteRows(file, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename key file: %w", err)
	}
	return nil
}
