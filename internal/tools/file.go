package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// readFile returns the full text content of a workspace file.
func (r *Registry) readFile(filePath string) (string, error) {
	full, err := r.resolve(filePath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", filePath)
		}
		return "", err
	}
	return string(data), nil
}

// writeFile creates or overwrites a workspace file, creating parent
// directories as needed.
func (r *Registry) writeFile(filePath, content string) (string, error) {
	full, err := r.resolve(filePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), filePath), nil
}

// editFile replaces the first occurrence of oldText with newText. It fails
// when oldText does not appear in the file at all.
func (r *Registry) editFile(filePath, oldText, newText string) (string, error) {
	content, err := r.readFile(filePath)
	if err != nil {
		return "", err
	}
	if !strings.Contains(content, oldText) {
		return "", fmt.Errorf("text not found in file: %s", snippet(oldText, 50))
	}
	updated := strings.Replace(content, oldText, newText, 1)
	if _, err := r.writeFile(filePath, updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully edited %s", filePath), nil
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
