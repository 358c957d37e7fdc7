package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ledgerReplay/internal/model"
)

// WriteRows writes rows as address,cachedTransactionHash,balance,transactionCount.
func WriteRows(w io.Writer, rows []model.ReportRow) error {
	writer := csv.NewWriter(w)
	for _, row := range rows {
		balance := "0"
		if row.Balance != nil {
			balance = row.Balance.String()
		}
		record := []string{
			row.Address,
			row.CachedTxHash,
			balance,
			strconv.FormatUint(row.TransactionCount, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.Address, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadRows parses rows written by WriteRows. The legacy "null" and
// "undefined" hash placeholders are read as empty.
func ReadRows(r io.Reader) ([]model.ReportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	var rows []model.ReportRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		balance, ok := new(big.Int).SetString(strings.TrimSpace(record[2]), 10)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid balance %q", line, record[2])
		}
		count, err := strconv.ParseUint(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid transaction count %q", line, record[3])
		}

		txHash := strings.TrimSpace(record[1])
		if txHash == "null" || txHash == "undefined" {
			txHash = ""
		}

		rows = append(rows, model.ReportRow{
			Address:          strings.TrimSpace(record[0]),
			CachedTxHash:     txHash,
			Balance:          balance,
			TransactionCount: count,
		})
	}
	return rows, nil
}

// WriteFile atomically writes rows to path.
func WriteFile(path string, rows []model.ReportRow) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", tmpPath, err)
	}
	if err := WriteRows(file, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	return nil
}

// ReadFile reads rows from path.
func ReadFile(path string) ([]model.ReportRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	rows, err := ReadRows(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
