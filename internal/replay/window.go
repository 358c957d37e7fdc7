package replay

import "fmt"

// Window represents an inclusive block range fetched in one request.
type Window struct {
	From  uint64
	To    uint64
	Final bool
}

// NextWindow returns the window starting at from, bounded by last and size.
func NextWindow(from, last, size uint64) (Window, error) {
	if size == 0 {
		return Window{}, fmt.Errorf("window size must be greater than zero")
	}
	if last < from {
		return Window{}, fmt.Errorf("last block must be >= from block")
	}

	remaining := last - from + 1
	if remaining <= size {
		return Window{From: from, To: last, Final: true}, nil
	}
	return Window{From: from, To: from + size - 1}, nil
}

// SplitWindows splits a block range into contiguous windows of size blocks.
func SplitWindows(from, to, size uint64) ([]Window, error) {
	if size == 0 {
		return nil, fmt.Errorf("window size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	windows := make([]Window, 0)
	start := from
	for {
		w, err := NextWindow(start, to, size)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
		if w.Final {
			break
		}
		start = w.To + 1
	}

	return windows, nil
}
