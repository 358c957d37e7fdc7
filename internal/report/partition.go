package report

import "ledgerReplay/internal/model"

// Partition groups report rows by the sign of their balance.
type Partition struct {
	Zero     []model.ReportRow
	Positive []model.ReportRow
	Negative []model.ReportRow
}

// Len returns the number of rows across all groups.
func (p Partition) Len() int {
	return len(p.Zero) + len(p.Positive) + len(p.Negative)
}

// Split partitions rows by balance sign, preserving input order within a group.
// A nil balance counts as zero.
func Split(rows []model.ReportRow) Partition {
	var p Partition
	for _, row := range rows {
		sign := 0
		if row.Balance != nil {
			sign = row.Balance.Sign()
		}
		switch {
		case sign > 0:
			p.Positive = append(p.Positive, row)
		case sign < 0:
			p.Negative = append(p.Negative, row)
		default:
			p.Zero = append(p.Zero, row)
		}
	}
	return p
}
