package prompts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Load reads prompts from a source path. Supported sources:
//
//   - a directory of .md files, one prompt per file, numeric stems ordered
//     numerically before other stems
//   - a single .md file (one prompt)
//   - a .txt file (one prompt per line, blank lines and duplicates dropped)
//   - a .json or .jsonl file, extracting user-message contents and common
//     prompt-bearing fields from each record
func Load(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("prompt source not found: %s", path)
	}

	if info.IsDir() {
		return loadMarkdownDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return loadJSONL(path)
	case ".json":
		return loadJSON(path)
	case ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		return []string{text}, nil
	case ".txt":
		return loadText(path)
	default:
		return nil, fmt.Errorf("unsupported prompt source type: %s", filepath.Ext(path))
	}
}

func loadMarkdownDir(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}

	type keyed struct {
		path    string
		numeric bool
		n       int
		stem    string
	}
	keys := make([]keyed, 0, len(matches))
	for _, m := range matches {
		stem := strings.TrimSuffix(filepath.Base(m), ".md")
		n, err := strconv.Atoi(stem)
		keys = append(keys, keyed{path: m, numeric: err == nil, n: n, stem: stem})
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.numeric != b.numeric {
			return a.numeric
		}
		if a.numeric {
			return a.n < b.n
		}
		return a.stem < b.stem
	})

	var prompts []string
	for _, k := range keys {
		data, err := os.ReadFile(k.path)
		if err != nil {
			return nil, err
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			prompts = append(prompts, text)
		}
	}
	return prompts, nil
}

func loadText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var prompts []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		prompts = append(prompts, line)
	}
	return prompts, scanner.Err()
}

func loadJSONL(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var payload any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSONL line %d in %s: %w", lineNum, path, err)
		}
		prompts = append(prompts, extractFromPayload(payload)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dedupe(prompts), nil
}

func loadJSON(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return dedupe(extractFromPayload(payload)), nil
}

func extractFromPayload(payload any) []string {
	if list, ok := payload.([]any); ok {
		var prompts []string
		for _, item := range list {
			prompts = append(prompts, extractFromRecord(item)...)
		}
		return prompts
	}
	return extractFromRecord(payload)
}

// promptKeys are record fields commonly holding a prompt text.
var promptKeys = []string{"prompt", "input", "question", "task"}

func extractFromRecord(record any) []string {
	rec, ok := record.(map[string]any)
	if !ok {
		return nil
	}

	var prompts []string
	if messages, ok := rec["messages"].([]any); ok {
		for _, m := range messages {
			msg, ok := m.(map[string]any)
			if !ok {
				continue
			}
			role, _ := msg["role"].(string)
			if role != "" && strings.ToLower(role) != "user" {
				continue
			}
			if content := stringifyContent(msg["content"]); content != "" {
				prompts = append(prompts, content)
			}
		}
	}

	for _, key := range promptKeys {
		if v, ok := rec[key]; ok {
			if content := stringifyContent(v); content != "" {
				prompts = append(prompts, content)
			}
		}
	}
	return prompts
}

// stringifyContent flattens the content shapes seen in chat datasets:
// plain strings, numbers, and lists of strings or {text: ...} parts.
func stringifyContent(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		var parts []string
		for _, item := range v {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					parts = append(parts, s)
				}
			case map[string]any:
				if s := stringifyContent(it["text"]); s != "" {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func dedupe(prompts []string) []string {
	seen := make(map[string]bool, len(prompts))
	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
