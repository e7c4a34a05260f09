// Package replay records bridge state snapshots to JSONL fixture files and
// serves them back through an in-process stand-in for the CommunicationMod
// HTTP bridge. It exists so agents and the watch dashboard can be developed
// against recorded sessions without the game running.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Fixture is one recorded state snapshot, stored as one JSONL line.
type Fixture struct {
	Sequence   int             `json:"sequence"`
	Timestamp  float64         `json:"timestamp"`
	ScreenType string          `json:"screen_type,omitempty"`
	State      json.RawMessage `json:"state"`
}

// Load reads fixtures from a JSONL file in file order. Blank and malformed
// lines are skipped so a recording cut off mid-write still loads.
func Load(path string) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var fixtures []Fixture
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var fx Fixture
		if err := json.Unmarshal(line, &fx); err != nil {
			continue
		}
		if len(fx.State) == 0 {
			continue
		}
		fixtures = append(fixtures, fx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	return fixtures, nil
}

// Writer appends fixtures to a JSONL file, one line per snapshot.
// Sequence numbers start at 1 for each Writer.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	seq  int
}

// NewWriter opens path for appending, creating it if needed
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open fixture file: %w", err)
	}
	return &Writer{file: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one fixture line for the given snapshot document
func (w *Writer) Append(timestamp float64, screenType string, doc []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	fx := Fixture{
		Sequence:   w.seq,
		Timestamp:  timestamp,
		ScreenType: screenType,
		State:      json.RawMessage(doc),
	}
	if err := w.enc.Encode(fx); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// Count returns how many fixtures this writer has appended
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Close flushes and closes the underlying file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
