package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Rescue copies salvageable entries from an errors file into the main
// dataset. An entry qualifies when it carries at least one message and its
// metadata reports at least minTurns turns. Valid lines are copied verbatim
// so rescued entries stay byte-identical; invalid JSON lines are skipped.
// Returns the number of rescued entries.
func Rescue(errorPath, outputPath string, minTurns int) (int, error) {
	f, err := os.Open(errorPath)
	if err != nil {
		return 0, fmt.Errorf("open error file: %w", err)
	}
	defer f.Close()

	writer := NewWriter(outputPath)
	rescued := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry struct {
			Messages []json.RawMessage `json:"messages"`
			Metadata struct {
				Turns int `json:"turns"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			slog.Warn("skipping invalid JSON line", "file", errorPath, "line", lineNum)
			continue
		}
		if len(entry.Messages) == 0 || entry.Metadata.Turns < minTurns {
			continue
		}

		if err := writer.AppendRaw([]byte(line)); err != nil {
			return rescued, err
		}
		rescued++
	}
	if err := scanner.Err(); err != nil {
		return rescued, fmt.Errorf("scan error file: %w", err)
	}
	return rescued, nil
}
