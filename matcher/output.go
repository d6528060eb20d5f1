package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON encodes v as indented JSON without HTML escaping and writes it
// atomically, creating the parent directory when needed.
func WriteJSON(path string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFilesAtomic(pendingFile{path: path, data: data})
}

// WriteResults persists the match results. A nil slice is written as [].
func WriteResults(path string, results []MatchResult) error {
	return WriteResultFiles(path, "", results)
}

// WriteResultFiles writes the JSON results and, when csvPath is set, the CSV
// export. Both files are staged first; neither target is replaced unless
// both were written.
func WriteResultFiles(jsonPath, csvPath string, results []MatchResult) error {
	if results == nil {
		results = []MatchResult{}
	}
	data, err := encodeJSON(results)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrResultPersist, filepath.Base(jsonPath), err)
	}
	files := []pendingFile{{path: jsonPath, data: data}}
	if csvPath != "" {
		rows, err := encodeResultsCSV(results)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrResultPersist, filepath.Base(csvPath), err)
		}
		files = append(files, pendingFile{path: csvPath, data: rows})
	}
	if err := writeFilesAtomic(files...); err != nil {
		return fmt.Errorf("%w: %v", ErrResultPersist, err)
	}
	return nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pendingFile struct {
	path string
	data []byte
}

// writeFilesAtomic writes every file to a temp sibling and renames them into
// place only after all temp files were written.
func writeFilesAtomic(files ...pendingFile) error {
	staged := make([]string, 0, len(files))
	cleanup := func(tmps []string) {
		for _, tmp := range tmps {
			_ = os.Remove(tmp)
		}
	}
	for _, f := range files {
		if dir := filepath.Dir(f.path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				cleanup(staged)
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		tmp := f.path + ".tmp"
		if err := os.WriteFile(tmp, f.data, 0o644); err != nil {
			cleanup(staged)
			return fmt.Errorf("write temp file: %w", err)
		}
		staged = append(staged, tmp)
	}
	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			cleanup(staged[i:])
			return fmt.Errorf("rename %s: %w", filepath.Base(f.path), err)
		}
	}
	return nil
}
