package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Writer appends dataset entries to a JSONL file. Appends are serialized so
// concurrent sessions never interleave partial lines.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter creates a writer for the given JSONL file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Truncate empties the output file, creating it if needed.
func (w *Writer) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return os.WriteFile(w.path, nil, 0o644)
}

// Append serializes an entry and appends it as one line.
func (w *Writer) Append(entry *Entry) error {
	line, err := MarshalLine(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return w.AppendRaw(line)
}

// AppendRaw appends an already-serialized JSONL line.
func (w *Writer) AppendRaw(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// CompletedPrompts scans an existing dataset file and returns the set of
// prompt texts that already have entries, keyed by trimmed prompt. A missing
// file yields an empty set.
func CompletedPrompts(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	completed := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry struct {
			Metadata struct {
				Prompt string `json:"prompt"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if prompt := strings.TrimSpace(entry.Metadata.Prompt); prompt != "" {
			completed[prompt] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dataset file: %w", err)
	}
	return completed, nil
}
