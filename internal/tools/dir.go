package tools

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxSearchResults caps how many matches search_code returns.
const maxSearchResults = 50

// Match is one search_code hit. Line numbers are 1-indexed and paths are
// relative to the workspace root.
type Match struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// listDirectory returns the entries of a workspace directory in
// lexicographic order. Directories are suffixed with a separator and files
// are annotated with their byte size. Paths are relative to the workspace
// root, so listing a subdirectory includes its prefix.
func (r *Registry) listDirectory(dirPath string) ([]string, error) {
	full, err := r.resolve(dirPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, err
	}

	items := make([]string, 0, len(entries))
	for _, entry := range entries {
		rel := entry.Name()
		if dirPath != "" {
			rel = filepath.Join(dirPath, entry.Name())
		}
		if entry.IsDir() {
			items = append(items, rel+string(os.PathSeparator))
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		items = append(items, fmt.Sprintf("%s (%d bytes)", rel, info.Size()))
	}
	return items, nil
}

// searchCode performs a case-insensitive substring search over the lines of
// every workspace file matching fileGlob (or all files when fileGlob is
// empty). Files that are not valid text are skipped silently, as are files
// that cannot be read. At most maxSearchResults matches are returned.
func (r *Registry) searchCode(pattern, fileGlob string) ([]Match, error) {
	needle := strings.ToLower(pattern)
	results := make([]Match, 0)

	filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if fileGlob != "" {
			ok, matchErr := filepath.Match(fileGlob, d.Name())
			if matchErr != nil || !ok {
				return nil
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(strings.ToLower(line), needle) {
				results = append(results, Match{
					File:    rel,
					Line:    i + 1,
					Content: strings.TrimSpace(line),
				})
				if len(results) >= maxSearchResults {
					return fs.SkipAll
				}
			}
		}
		return nil
	})

	return results, nil
}
