package matcher

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultDominantThreshold is the minimum TF-IDF similarity for an issue to
// count towards a theme.
const DefaultDominantThreshold = 0.25

var (
	wordToken     = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)
	leadingMarker = regexp.MustCompile(`^(?:\d+[.)]?|[a-z][.)]|[-.)\s])+`)
)

// ThemeCount pairs a theme name with a number of issues.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// RegionThemes summarizes which themes dominate a region's issue list.
type RegionThemes struct {
	Region     string               `json:"region"`
	RegionCode string               `json:"region_code"`
	TopThemes  []ThemeCount         `json:"top_themes"`
	Matched    map[string][]string  `json:"matched_issues"`
	Scores     map[string][]float64 `json:"scores"`
	Unmatched  []string             `json:"unmatched_issues"`
}

// DominantThemes assigns every issue of a region to the single theme whose
// keyword text is most similar under a two-document TF-IDF cosine. Issues
// scoring below threshold are reported as unmatched. Regions with no matched
// issue are left out.
func DominantThemes(corpus *Corpus, lex *Lexicon, threshold float64, top int) []RegionThemes {
	if top <= 0 {
		top = 2
	}
	themes := lex.Themes()
	themeTexts := make([]string, len(themes))
	for i, t := range themes {
		themeTexts[i] = strings.Join(t.Keywords, " ")
	}

	out := []RegionThemes{}
	for _, rec := range corpus.Records() {
		if len(rec.Issues) == 0 || rec.Issues[0] == "" {
			continue
		}
		rt := RegionThemes{
			Region:     strings.TrimSpace(rec.Name),
			RegionCode: strings.TrimSpace(rec.Code),
			Matched:    make(map[string][]string, len(themes)),
			Scores:     make(map[string][]float64, len(themes)),
		}
		for _, t := range themes {
			rt.Matched[t.Name] = []string{}
			rt.Scores[t.Name] = []float64{}
		}
		counts := make(map[string]int)
		var firstSeen []string
		for _, issue := range rec.Issues {
			cleaned := cleanForTFIDF(issue)
			if cleaned == "" {
				continue
			}
			best, bestScore := -1, 0.0
			for i, text := range themeTexts {
				if score := tfidfCosine(cleaned, text); score > bestScore {
					best, bestScore = i, score
				}
			}
			if best < 0 || bestScore < threshold {
				rt.Unmatched = append(rt.Unmatched, strings.TrimSpace(issue))
				continue
			}
			name := themes[best].Name
			if counts[name] == 0 {
				firstSeen = append(firstSeen, name)
			}
			counts[name]++
			rt.Matched[name] = append(rt.Matched[name], strings.TrimSpace(issue))
			rt.Scores[name] = append(rt.Scores[name], math.Round(bestScore*10000)/100)
		}
		if len(counts) == 0 {
			continue
		}
		ranked := make([]ThemeCount, len(firstSeen))
		for i, name := range firstSeen {
			ranked[i] = ThemeCount{Theme: name, Count: counts[name]}
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
		if len(ranked) > top {
			ranked = ranked[:top]
		}
		rt.TopThemes = ranked
		out = append(out, rt)
	}
	return out
}

// cleanForTFIDF lower-cases the issue and drops leading list markers such as
// "1.", "a)" or "-".
func cleanForTFIDF(issue string) string {
	lowered := foldCase(strings.TrimSpace(issue))
	return strings.TrimSpace(leadingMarker.ReplaceAllString(lowered, ""))
}

func termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, tok := range wordToken.FindAllString(foldCase(text), -1) {
		counts[tok]++
	}
	return counts
}

// tfidfCosine fits a TF-IDF model on exactly the two documents, using raw
// term counts, smoothed idf ln((1+n)/(1+df))+1 and l2-normalized rows, and
// returns the cosine of the two rows.
func tfidfCosine(a, b string) float64 {
	ta, tb := termCounts(a), termCounts(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	idf := func(term string) float64 {
		df := 0
		if _, ok := ta[term]; ok {
			df++
		}
		if _, ok := tb[term]; ok {
			df++
		}
		return math.Log(3/float64(1+df)) + 1
	}
	weigh := func(counts map[string]float64) (map[string]float64, float64) {
		w := make(map[string]float64, len(counts))
		var norm float64
		for term, c := range counts {
			v := c * idf(term)
			w[term] = v
			norm += v * v
		}
		return w, math.Sqrt(norm)
	}
	wa, na := weigh(ta)
	wb, nb := weigh(tb)
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for term, va := range wa {
		if vb, ok := wb[term]; ok {
			dot += va * vb
		}
	}
	return dot / (na * nb)
}
