package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"ledgerReplay/internal/model"
)

// JsonlDump writes each window's events to <dir>/<fromBlock>.json, one JSON
// object per line.
type JsonlDump struct {
	dir string
	mu  sync.Mutex
}

func NewJsonlDump(dir string) *JsonlDump {
	return &JsonlDump{dir: dir}
}

// Path returns the dump file of the window starting at fromBlock.
func (s *JsonlDump) Path(fromBlock uint64) string {
	return filepath.Join(s.dir, strconv.FormatUint(fromBlock, 10)+".json")
}

// PutWindow writes a window's events, replacing any previous dump of it.
// Empty windows produce no file.
func (s *JsonlDump) PutWindow(fromBlock uint64, events []model.RawEvent) error {
	if len(events) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.Path(fromBlock), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open dump file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range events {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}

	return nil
}
