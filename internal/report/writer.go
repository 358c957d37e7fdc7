package report

import (
	"fmt"
	"path/filepath"
	"sort"

	"ledgerReplay/internal/model"
)

const (
	ZeroFile     = "zero_balance.csv"
	PositiveFile = "positive_balance.csv"
	NegativeFile = "negative_balance.csv"
)

// Writer writes a partition as three CSV artifacts in one directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Paths returns the artifact paths for the zero, positive and negative groups.
func (w *Writer) Paths() (string, string, string) {
	return filepath.Join(w.dir, ZeroFile), filepath.Join(w.dir, PositiveFile), filepath.Join(w.dir, NegativeFile)
}

// Write writes every group, sorted by address. Groups are written even when empty.
func (w *Writer) Write(p Partition) error {
	zeroPath, positivePath, negativePath := w.Paths()
	groups := []struct {
		path string
		rows []model.ReportRow
	}{
		{zeroPath, p.Zero},
		{positivePath, p.Positive},
		{negativePath, p.Negative},
	}

	for _, group := range groups {
		rows := append([]model.ReportRow(nil), group.rows...)
		sort.Slice(rows, func(i, j int) bool { return rows[i].Address < rows[j].Address })
		if err := WriteFile(group.path, rows); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
