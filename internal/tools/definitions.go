package tools

import (
	"encoding/json"

	"github.com/user/tracegen/pkg/llm"
)

// definitions holds the JSON-schema definition presented to the model for
// each tool kind. This is the contract the model must respect when
// requesting a tool call.
var definitions = map[Kind]llm.Tool{
	KindReadFile: def("read_file",
		"Read the contents of a file in the workspace",
		`{
			"type": "object",
			"properties": {
				"file_path": {"type": "string", "description": "Path to the file relative to workspace root"}
			},
			"required": ["file_path"]
		}`),
	KindWriteFile: def("write_file",
		"Write content to a file in the workspace",
		`{
			"type": "object",
			"properties": {
				"file_path": {"type": "string", "description": "Path to the file relative to workspace root"},
				"content": {"type": "string", "description": "Content to write to the file"}
			},
			"required": ["file_path", "content"]
		}`),
	KindEditFile: def("edit_file",
		"Edit a file by replacing old_text with new_text",
		`{
			"type": "object",
			"properties": {
				"file_path": {"type": "string", "description": "Path to the file relative to workspace root"},
				"old_text": {"type": "string", "description": "Text to replace"},
				"new_text": {"type": "string", "description": "New text to insert"}
			},
			"required": ["file_path", "old_text", "new_text"]
		}`),
	KindListDirectory: def("list_directory",
		"List files and directories in a path",
		`{
			"type": "object",
			"properties": {
				"dir_path": {"type": "string", "description": "Directory path relative to workspace root (empty for root)"}
			},
			"required": []
		}`),
	KindSearchCode: def("search_code",
		"Search for text patterns in workspace files",
		`{
			"type": "object",
			"properties": {
				"pattern": {"type": "string", "description": "Text pattern to search for"},
				"file_pattern": {"type": "string", "description": "Optional file pattern (e.g., '*.go')"}
			},
			"required": ["pattern"]
		}`),
	KindRunCommand: def("run_command",
		"Execute a shell command in the workspace",
		`{
			"type": "object",
			"properties": {
				"command": {"type": "string", "description": "Command to execute"}
			},
			"required": ["command"]
		}`),
	KindWebSearch: def("web_search",
		"Search the web for information",
		`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"}
			},
			"required": ["query"]
		}`),
	KindFetchURL: def("fetch_url",
		"Fetch a URL and return its content as markdown",
		`{
			"type": "object",
			"properties": {
				"url": {"type": "string", "description": "The URL to fetch"}
			},
			"required": ["url"]
		}`),
}

func def(name, description, parameters string) llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.Function{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(parameters),
		},
	}
}
