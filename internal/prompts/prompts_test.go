package prompts

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMarkdownDirOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "10.md"), "tenth")
	writeFile(t, filepath.Join(dir, "2.md"), "second")
	writeFile(t, filepath.Join(dir, "alpha.md"), "alpha task")
	writeFile(t, filepath.Join(dir, "beta.md"), "beta task")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	prompts, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	// Numeric stems numerically first, then the rest lexicographically.
	want := []string{"second", "tenth", "alpha task", "beta task"}
	if !reflect.DeepEqual(prompts, want) {
		t.Errorf("expected %v, got %v", want, prompts)
	}
}

func TestLoadMarkdownDirSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "1.md"), "   \n  ")
	writeFile(t, filepath.Join(dir, "2.md"), "real prompt")

	prompts, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(prompts, []string{"real prompt"}) {
		t.Errorf("unexpected prompts: %v", prompts)
	}
}

func TestLoadSingleMarkdownFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.md")
	writeFile(t, path, "  build a parser  \n")

	prompts, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(prompts, []string{"build a parser"}) {
		t.Errorf("unexpected prompts: %v", prompts)
	}
}

func TestLoadTextDedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.txt")
	writeFile(t, path, "task one\n\ntask two\ntask one\n  task two  \n")

	prompts, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(prompts, []string{"task one", "task two"}) {
		t.Errorf("unexpected prompts: %v", prompts)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	writeFile(t, path, strings.Join([]string{
		`{"messages":[{"role":"system","content":"s"},{"role":"user","content":"from messages"}]}`,
		`{"prompt":"from prompt field"}`,
		`{"task":"from task field","irrelevant":1}`,
		`{"prompt":"from prompt field"}`,
	}, "\n"))

	prompts, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"from messages", "from prompt field", "from task field"}
	if !reflect.DeepEqual(prompts, want) {
		t.Errorf("expected %v, got %v", want, prompts)
	}
}

func TestLoadJSONLInvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	writeFile(t, path, `{"prompt":"ok"}`+"\n{broken\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line-numbered error, got %v", err)
	}
}

func TestLoadJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	writeFile(t, path, `[{"input":"one"},{"question":"two"}]`)

	prompts, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(prompts, []string{"one", "two"}) {
		t.Errorf("unexpected prompts: %v", prompts)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	writeFile(t, path, "a,b\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported prompt source type") {
		t.Errorf("expected unsupported-type error, got %v", err)
	}
}

func TestLoadMissingSource(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestStringifyContentShapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "  hello  ", "hello"},
		{"number", float64(42), "42"},
		{"string parts", []any{"a", " b "}, "a\nb"},
		{"text parts", []any{map[string]any{"type": "text", "text": "first"}, map[string]any{"text": "second"}}, "first\nsecond"},
		{"mixed empty", []any{"", map[string]any{"text": ""}}, ""},
		{"unsupported", map[string]any{"x": 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringifyContent(tt.value); got != tt.want {
				t.Errorf("stringifyContent(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestExtractFromRecordSkipsAssistantMessages(t *testing.T) {
	rec := map[string]any{
		"messages": []any{
			map[string]any{"role": "assistant", "content": "reply"},
			map[string]any{"role": "user", "content": "ask"},
		},
	}
	got := extractFromRecord(rec)
	if !reflect.DeepEqual(got, []string{"ask"}) {
		t.Errorf("expected only user contents, got %v", got)
	}
}
