package matcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	explainPrefix   = "Fokus tema umum yang terdeteksi: "
	explainFallback = "Kecocokan berdasarkan makna kalimat secara umum."
)

// Theme is one topic of the lexicon.
type Theme struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Lexicon is the ordered theme dictionary. Keywords are stored case-folded.
type Lexicon struct {
	themes []Theme
	byID   map[string]int
}

// NewLexicon validates ids and case-folds keywords. Empty keywords are dropped
// because they would match every text.
func NewLexicon(themes []Theme) (*Lexicon, error) {
	lex := &Lexicon{
		themes: make([]Theme, 0, len(themes)),
		byID:   make(map[string]int, len(themes)),
	}
	for _, t := range themes {
		t.ID = strings.TrimSpace(t.ID)
		t.Name = strings.TrimSpace(t.Name)
		if t.ID == "" {
			t.ID = t.Name
		}
		if t.Name == "" {
			t.Name = t.ID
		}
		if t.ID == "" {
			return nil, errors.New("theme without id or name")
		}
		if _, dup := lex.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate theme id %q", t.ID)
		}
		t.Keywords = foldKeywords(t.Keywords)
		lex.byID[t.ID] = len(lex.themes)
		lex.themes = append(lex.themes, t)
	}
	return lex, nil
}

func foldKeywords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		folded := foldCase(w)
		if strings.TrimSpace(folded) == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	return out
}

// Themes returns the themes in insertion order.
func (l *Lexicon) Themes() []Theme {
	out := make([]Theme, len(l.themes))
	copy(out, l.themes)
	return out
}

// Len returns the number of themes.
func (l *Lexicon) Len() int { return len(l.themes) }

// Lookup resolves a theme by id, falling back to a case-insensitive name match.
func (l *Lexicon) Lookup(key string) (Theme, bool) {
	key = strings.TrimSpace(key)
	if idx, ok := l.byID[key]; ok {
		return l.themes[idx], true
	}
	for _, t := range l.themes {
		if strings.EqualFold(t.Name, key) {
			return t, true
		}
	}
	return Theme{}, false
}

// Tag returns the ids of every theme with at least one keyword occurring as a
// case-insensitive substring of text, in lexicon order.
func (l *Lexicon) Tag(text string) []string {
	folded := foldCase(text)
	var ids []string
	for _, t := range l.themes {
		if containsAny(folded, t.Keywords) {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Explain names the themes whose keywords occur in both texts. It does not
// depend on which theme produced the match.
func (l *Lexicon) Explain(a, b string) string {
	fa, fb := foldCase(a), foldCase(b)
	var names []string
	seen := make(map[string]struct{})
	for _, t := range l.themes {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		if containsAny(fa, t.Keywords) && containsAny(fb, t.Keywords) {
			seen[t.Name] = struct{}{}
			names = append(names, t.Name)
		}
	}
	if len(names) == 0 {
		return explainFallback
	}
	sort.Strings(names)
	return explainPrefix + strings.Join(names, ", ") + "."
}

func containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// LoadLexicon reads a theme lexicon. Three layouts are accepted: an array of
// theme objects, an object wrapping such an array under a group key
// (e.g. "klasifikasi_topik"), and an object mapping theme name to keywords.
func LoadLexicon(path string, fields FieldCandidates) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read lexicon: %v", ErrConfigLoad, err)
	}
	lex, err := ParseLexicon(data, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: lexicon %s: %v", ErrConfigLoad, filepath.Base(path), err)
	}
	return lex, nil
}

// ParseLexicon decodes lexicon JSON in any of the layouts LoadLexicon accepts.
func ParseLexicon(data []byte, fields FieldCandidates) (*Lexicon, error) {
	fields = fields.withDefaults()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty lexicon")
	}
	var themes []Theme
	switch trimmed[0] {
	case '[':
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		parsed, err := themesFromObjects(items, fields)
		if err != nil {
			return nil, err
		}
		themes = parsed
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, err
		}
		if items, ok := themeGroup(obj, fields); ok {
			parsed, err := themesFromObjects(items, fields)
			if err != nil {
				return nil, err
			}
			themes = parsed
		} else {
			parsed, err := themesFromOrderedObject(trimmed)
			if err != nil {
				return nil, err
			}
			themes = parsed
		}
	default:
		return nil, errors.New("lexicon must be a JSON array or object")
	}
	return NewLexicon(themes)
}

func themesFromObjects(items []map[string]json.RawMessage, fields FieldCandidates) ([]Theme, error) {
	themes := make([]Theme, 0, len(items))
	for i, item := range items {
		var t Theme
		if raw, ok := firstField(item, fields.ThemeID); ok {
			if err := json.Unmarshal(raw, &t.ID); err != nil {
				return nil, fmt.Errorf("theme %d id: %w", i, err)
			}
		}
		if raw, ok := firstField(item, fields.ThemeName); ok {
			if err := json.Unmarshal(raw, &t.Name); err != nil {
				return nil, fmt.Errorf("theme %d name: %w", i, err)
			}
		}
		if raw, ok := firstField(item, fields.ThemeKeywords); ok {
			if err := json.Unmarshal(raw, &t.Keywords); err != nil {
				return nil, fmt.Errorf("theme %d keywords: %w", i, err)
			}
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// themesFromOrderedObject walks {"Theme": ["kw", ...], ...} token by token so
// that the file order survives as the theme enumeration order.
func themesFromOrderedObject(data []byte) ([]Theme, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var themes []Theme
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var keywords []string
		if err := dec.Decode(&keywords); err != nil {
			return nil, fmt.Errorf("theme %q: %w", name, err)
		}
		themes = append(themes, Theme{ID: name, Name: name, Keywords: keywords})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return themes, nil
}

// themeGroup returns the wrapped theme list. A group key whose value is not an
// array of objects is a theme named like the key.
func themeGroup(obj map[string]json.RawMessage, fields FieldCandidates) ([]map[string]json.RawMessage, bool) {
	raw, ok := firstField(obj, fields.ThemeGroup)
	if !ok {
		return nil, false
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func firstField(obj map[string]json.RawMessage, candidates []string) (json.RawMessage, bool) {
	for _, key := range candidates {
		if raw, ok := obj[key]; ok {
			return raw, true
		}
	}
	for key, raw := range obj {
		for _, cand := range candidates {
			if strings.EqualFold(key, cand) {
				return raw, true
			}
		}
	}
	return nil, false
}

// explainTags is Explain computed from tag sets already produced by Tag, which
// hold exactly the themes with a keyword hit in each text.
func (l *Lexicon) explainTags(a, b []string) string {
	var names []string
	seen := make(map[string]struct{})
	for _, id := range a {
		idx, ok := l.byID[id]
		if !ok || !containsString(b, id) {
			continue
		}
		name := l.themes[idx].Name
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return explainFallback
	}
	sort.Strings(names)
	return explainPrefix + strings.Join(names, ", ") + "."
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
