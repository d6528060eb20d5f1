package matcher

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// delimiterFor returns the field separator for tabular corpus files, or false
// for JSON input.
func delimiterFor(path string) (rune, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ',', true
	case ".tsv":
		return '\t', true
	default:
		return 0, false
	}
}

// parseDelimitedCorpus reads one issue per row. The header names the region
// code, region name and issue columns through the field candidates; rows of
// the same region are grouped in first-seen order.
func parseDelimitedCorpus(data []byte, comma rune, fields FieldCandidates) ([]RegionRecord, error) {
	fields = fields.withDefaults()
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	codeCol := findColumn(header, fields.RegionCode)
	nameCol := findColumn(header, fields.RegionName)
	issueCol := findColumn(header, fields.Issues)
	if nameCol < 0 {
		return nil, fmt.Errorf("no region name column (looked for %s)", strings.Join(fields.RegionName, ", "))
	}
	if issueCol < 0 {
		return nil, fmt.Errorf("no issue column (looked for %s)", strings.Join(fields.Issues, ", "))
	}

	var records []RegionRecord
	byName := make(map[string]int)
	for _, row := range rows[1:] {
		name := cellAt(row, nameCol)
		if name == "" {
			continue
		}
		idx, ok := byName[name]
		if !ok {
			idx = len(records)
			byName[name] = idx
			records = append(records, RegionRecord{Code: cellAt(row, codeCol), Name: name})
		}
		if issue := cellAt(row, issueCol); issue != "" {
			records[idx].Issues = append(records[idx].Issues, issue)
		}
	}
	if len(records) == 0 {
		return nil, errors.New("corpus has no region records")
	}
	return records, nil
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return cleanCell(row[col])
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

var resultCSVHeader = []string{
	"origin_region", "origin_region_code", "theme_id", "theme_name", "origin_issue_text",
	"rank", "comparator_region", "comparator_region_code", "comparator_issue_text", "score", "explanation",
}

// WriteResultsCSV flattens the results to one row per ranked candidate.
func WriteResultsCSV(path string, results []MatchResult) error {
	data, err := encodeResultsCSV(results)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResultPersist, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrResultPersist, err)
	}
	return nil
}

func encodeResultsCSV(results []MatchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(resultCSVHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, res := range results {
		for rank, c := range res.Candidates {
			row := []string{
				res.OriginRegion, res.OriginRegionCode, res.ThemeID, res.ThemeName, res.OriginIssueText,
				strconv.Itoa(rank + 1), c.ComparatorRegion, c.ComparatorRegionCode, c.ComparatorIssueText,
				strconv.FormatFloat(float64(c.Score), 'f', 4, 32), c.Explanation,
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
