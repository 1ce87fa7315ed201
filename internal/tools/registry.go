package tools

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/user/tracegen/pkg/llm"
)

// Kind identifies one tool capability. The set is closed: dispatch is a
// switch over kinds, and unrecognized names produce an unknown-tool outcome
// rather than an error.
type Kind string

const (
	KindReadFile      Kind = "read_file"
	KindWriteFile     Kind = "write_file"
	KindEditFile      Kind = "edit_file"
	KindListDirectory Kind = "list_directory"
	KindSearchCode    Kind = "search_code"
	KindRunCommand    Kind = "run_command"
	KindWebSearch     Kind = "web_search"
	KindFetchURL      Kind = "fetch_url"
)

// kindOrder fixes the order tool definitions are presented to the model.
var kindOrder = []Kind{
	KindReadFile,
	KindWriteFile,
	KindEditFile,
	KindListDirectory,
	KindSearchCode,
	KindRunCommand,
	KindWebSearch,
	KindFetchURL,
}

// Options configures endpoints tools depend on.
type Options struct {
	// SearxURL is the base URL of the SearXNG instance used by web_search.
	SearxURL string
	// HTTPClient overrides the client used by network tools. Nil selects a
	// default client with a 30 second timeout.
	HTTPClient *http.Client
}

// Registry executes tool calls confined to a single workspace directory.
// One registry is owned by one session; registries share no mutable state.
type Registry struct {
	root       string
	searxURL   string
	httpClient *http.Client
}

// NewRegistry creates a Registry rooted at the given workspace directory.
// The directory must exist; its resolved absolute path becomes the
// confinement boundary for every filesystem tool.
func NewRegistry(workspace string, opts Options) (*Registry, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Registry{
		root:       abs,
		searxURL:   opts.SearxURL,
		httpClient: client,
	}, nil
}

// Root returns the resolved workspace root.
func (r *Registry) Root() string { return r.root }

// Execute runs the named tool with the given arguments and wraps the result
// in the uniform outcome envelope. Tool faults become error outcomes; they
// are never surfaced as Go errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Outcome {
	var result any
	var err error

	switch Kind(name) {
	case KindReadFile:
		result, err = r.readFile(stringArg(args, "file_path"))
	case KindWriteFile:
		result, err = r.writeFile(stringArg(args, "file_path"), stringArg(args, "content"))
	case KindEditFile:
		result, err = r.editFile(stringArg(args, "file_path"), stringArg(args, "old_text"), stringArg(args, "new_text"))
	case KindListDirectory:
		result, err = r.listDirectory(stringArg(args, "dir_path"))
	case KindSearchCode:
		result, err = r.searchCode(stringArg(args, "pattern"), stringArg(args, "file_pattern"))
	case KindRunCommand:
		result, err = r.runCommand(ctx, stringArg(args, "command"))
	case KindWebSearch:
		result, err = r.webSearch(ctx, stringArg(args, "query"))
	case KindFetchURL:
		result, err = r.fetchURL(ctx, stringArg(args, "url"))
	default:
		return UnknownToolOutcome(name)
	}

	if err != nil {
		return Fail(err)
	}
	return OK(result)
}

// Definitions returns the JSON-schema tool definitions for the enabled tool
// names, in canonical order. Unrecognized names are ignored.
func Definitions(enabled []string) []llm.Tool {
	set := make(map[Kind]bool, len(enabled))
	for _, name := range enabled {
		set[Kind(name)] = true
	}
	var defs []llm.Tool
	for _, kind := range kindOrder {
		if set[kind] {
			defs = append(defs, definitions[kind])
		}
	}
	return defs
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
