package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledgerReplay/internal/ledger"
	"ledgerReplay/internal/report"
)

// Checkpoint tracks the last replayed block and the ledger snapshot taken
// right after it.
type Checkpoint struct {
	Contract           string `json:"contract"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	Snapshot           string `json:"snapshot"`
	Accounts           int    `json:"accounts"`
	UpdatedAt          string `json:"updated_at"`
}

// CheckpointStore persists checkpoints and ledger snapshots to disk.
type CheckpointStore struct {
	path         string
	snapshotPath string
	enabled      bool
}

func NewCheckpointStore(path, snapshotPath string, enabled bool) *CheckpointStore {
	if snapshotPath == "" && path != "" {
		snapshotPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".snapshot.csv"
	}
	return &CheckpointStore{path: path, snapshotPath: snapshotPath, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Enabled() bool {
	return c.enabled
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}

	return cp, true, nil
}

// Restore loads the checkpoint's snapshot into l.
func (c *CheckpointStore) Restore(cp Checkpoint, l *ledger.Ledger) error {
	if cp.Snapshot == "" {
		return fmt.Errorf("checkpoint has no snapshot")
	}
	rows, err := report.ReadFile(cp.Snapshot)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	l.Restore(rows)
	return nil
}

// Save writes the ledger snapshot, then the checkpoint pointing at it.
func (c *CheckpointStore) Save(contract string, lastProcessed uint64, l *ledger.Ledger) error {
	if !c.enabled {
		return nil
	}

	rows := l.Rows()
	if err := report.WriteFile(c.snapshotPath, rows); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp := Checkpoint{
		Contract:           contract,
		LastProcessedBlock: lastProcessed,
		Snapshot:           c.snapshotPath,
		Accounts:           len(rows),
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}
