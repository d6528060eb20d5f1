package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Issue is one strategic issue statement of a region.
type Issue struct {
	RegionCode     string
	RegionName     string
	RawText        string
	NormalizedText string
	ThemeIDs       []string
	Embedding      []float32
}

// HasTheme reports whether the tagger assigned id to the issue.
func (i Issue) HasTheme(id string) bool {
	return containsString(i.ThemeIDs, id)
}

// RegionRecord is a region with its raw issue list as read from the input file.
type RegionRecord struct {
	Code   string   `json:"kodepemda"`
	Name   string   `json:"namapemda"`
	Issues []string `json:"data"`
}

// Corpus is the ordered list of issues of every region. Positions are the
// indices of the similarity matrix.
type Corpus struct {
	Issues  []Issue
	records []RegionRecord
}

// NewCorpus flattens records into issues, skipping blank statements, and
// normalizes each issue once. With unicodeNormalize the raw text is NFKC
// normalized before the enumeration marker is stripped.
func NewCorpus(records []RegionRecord, unicodeNormalize bool) *Corpus {
	c := &Corpus{records: records}
	for _, rec := range records {
		for _, raw := range rec.Issues {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			text := raw
			if unicodeNormalize {
				text = NormalizeText(text)
			}
			c.Issues = append(c.Issues, Issue{
				RegionCode:     strings.TrimSpace(rec.Code),
				RegionName:     strings.TrimSpace(rec.Name),
				RawText:        raw,
				NormalizedText: NormalizeIssue(text),
			})
		}
	}
	return c
}

// Tag attaches theme ids to every issue.
func (c *Corpus) Tag(lex *Lexicon) {
	for i := range c.Issues {
		c.Issues[i].ThemeIDs = lex.Tag(c.Issues[i].NormalizedText)
	}
}

// Texts returns the normalized texts in corpus order.
func (c *Corpus) Texts() []string {
	out := make([]string, len(c.Issues))
	for i, is := range c.Issues {
		out[i] = is.NormalizedText
	}
	return out
}

// Records returns the region records the corpus was built from.
func (c *Corpus) Records() []RegionRecord {
	return c.records
}

// Regions returns the distinct region names that own at least one issue,
// sorted ascending.
func (c *Corpus) Regions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, is := range c.Issues {
		if _, ok := seen[is.RegionName]; ok {
			continue
		}
		seen[is.RegionName] = struct{}{}
		out = append(out, is.RegionName)
	}
	sort.Strings(out)
	return out
}

// HasRegion reports whether any issue belongs to the named region.
func (c *Corpus) HasRegion(name string) bool {
	for _, is := range c.Issues {
		if is.RegionName == name {
			return true
		}
	}
	return false
}

// LoadCorpus reads the regional issue file. Files ending in .csv or .tsv hold
// one issue per row; everything else is read as JSON.
func LoadCorpus(path string, cfg CorpusConfig) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read corpus: %v", ErrConfigLoad, err)
	}
	var records []RegionRecord
	if comma, ok := delimiterFor(path); ok {
		records, err = parseDelimitedCorpus(data, comma, cfg.Fields)
	} else {
		records, err = ParseRegionRecords(data, cfg.Fields)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: corpus %s: %v", ErrConfigLoad, filepath.Base(path), err)
	}
	return NewCorpus(records, cfg.UnicodeNormalize), nil
}

// ParseRegionRecords decodes {"data": [{"kodepemda", "namapemda", "data": [...]}]}
// with keys resolved through the field candidates. A bare array of records is
// accepted as well.
func ParseRegionRecords(data []byte, fields FieldCandidates) ([]RegionRecord, error) {
	fields = fields.withDefaults()
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var obj map[string]json.RawMessage
		if objErr := json.Unmarshal(data, &obj); objErr != nil {
			return nil, objErr
		}
		raw, ok := firstField(obj, fields.Records)
		if !ok {
			return nil, fmt.Errorf("no record list (looked for %s)", strings.Join(fields.Records, ", "))
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("record list: %w", err)
		}
	}
	if len(items) == 0 {
		return nil, errors.New("corpus has no region records")
	}
	records := make([]RegionRecord, 0, len(items))
	for i, item := range items {
		var rec RegionRecord
		if raw, ok := firstField(item, fields.RegionCode); ok {
			rec.Code = scalarString(raw)
		}
		raw, ok := firstField(item, fields.RegionName)
		if !ok {
			return nil, fmt.Errorf("record %d: missing region name", i)
		}
		if err := json.Unmarshal(raw, &rec.Name); err != nil {
			return nil, fmt.Errorf("record %d name: %w", i, err)
		}
		if raw, ok := firstField(item, fields.Issues); ok {
			issues, err := decodeIssues(raw)
			if err != nil {
				return nil, fmt.Errorf("record %d (%s) issues: %w", i, rec.Name, err)
			}
			rec.Issues = issues
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeIssues accepts a list of strings; null entries are dropped.
func decodeIssues(raw json.RawMessage) ([]string, error) {
	var list []*string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if strErr := json.Unmarshal(raw, &single); strErr == nil {
			return []string{single}, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// scalarString renders a code that may be stored as string or number.
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}
