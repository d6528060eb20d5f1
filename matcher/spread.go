package matcher

import (
	"fmt"
	"sort"
	"strings"
)

// SpreadEntry counts the issues of one region that mention a theme.
type SpreadEntry struct {
	Region     string `json:"region"`
	RegionCode string `json:"region_code"`
	Count      int    `json:"count"`
}

// Spread counts, for every region of the corpus, the issues carrying at least
// one keyword of the theme. Regions without a hit are listed with zero. The
// result is ordered by count descending, then region name.
func Spread(corpus *Corpus, lex *Lexicon, themeKey string) (Theme, []SpreadEntry, error) {
	theme, ok := lex.Lookup(themeKey)
	if !ok {
		return Theme{}, nil, fmt.Errorf("%w: theme %q", ErrScopeNotFound, themeKey)
	}

	byRegion := make(map[string]*SpreadEntry)
	var entries []*SpreadEntry
	add := func(name, code string) *SpreadEntry {
		if e, ok := byRegion[name]; ok {
			return e
		}
		e := &SpreadEntry{Region: name, RegionCode: code}
		byRegion[name] = e
		entries = append(entries, e)
		return e
	}
	for _, rec := range corpus.Records() {
		add(strings.TrimSpace(rec.Name), strings.TrimSpace(rec.Code))
	}
	for _, is := range corpus.Issues {
		e := add(is.RegionName, is.RegionCode)
		if containsAny(foldCase(is.NormalizedText), theme.Keywords) {
			e.Count++
		}
	}

	out := make([]SpreadEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Region < out[j].Region
	})
	return theme, out, nil
}

// ThemeIssue is one issue listed under a theme.
type ThemeIssue struct {
	Region     string `json:"region"`
	RegionCode string `json:"region_code"`
	Issue      string `json:"issue"`
}

// ThemeListing is the keyword set of a theme together with every issue that
// mentions one of its keywords.
type ThemeListing struct {
	ThemeID    string       `json:"theme_id"`
	Theme      string       `json:"theme"`
	Keywords   []string     `json:"keywords"`
	IssueCount int          `json:"issue_count"`
	Issues     []ThemeIssue `json:"issues"`
}

// ListTheme collects the issues of a theme in corpus order.
func ListTheme(corpus *Corpus, lex *Lexicon, themeKey string) (ThemeListing, error) {
	theme, ok := lex.Lookup(themeKey)
	if !ok {
		return ThemeListing{}, fmt.Errorf("%w: theme %q", ErrScopeNotFound, themeKey)
	}
	listing := ThemeListing{
		ThemeID:  theme.ID,
		Theme:    theme.Name,
		Keywords: append([]string{}, theme.Keywords...),
		Issues:   []ThemeIssue{},
	}
	for _, is := range corpus.Issues {
		if !containsAny(foldCase(is.NormalizedText), theme.Keywords) {
			continue
		}
		listing.Issues = append(listing.Issues, ThemeIssue{
			Region:     is.RegionName,
			RegionCode: is.RegionCode,
			Issue:      strings.TrimSpace(is.RawText),
		})
	}
	listing.IssueCount = len(listing.Issues)
	return listing, nil
}
