package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MatchOptions tunes a matching pass.
type MatchOptions struct {
	Threshold float32
	Scope     Scope
	// Workers bounds how many regions are matched concurrently.
	Workers int
	// Progress is called after each region with the number of regions done.
	Progress func(done, total int)
	Logger   zerolog.Logger
}

// Match finds, for every region, theme and tagged origin issue, the best
// scoring issue of each other region that clears the threshold. Regions are
// visited by name ascending and themes in lexicon order; the output order does
// not depend on Workers.
func Match(ctx context.Context, corpus *Corpus, lex *Lexicon, sim *SimilarityMatrix, opts MatchOptions) ([]MatchResult, error) {
	if sim.Size() != len(corpus.Issues) {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d issues", sim.Size(), len(corpus.Issues))
	}
	regions, themes, err := resolveScope(corpus, lex, opts.Scope)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := opts.Logger

	slots := make([][]MatchResult, len(regions))
	var (
		progressMu sync.Mutex
		done       int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, region := range regions {
		idx, region := idx, region
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logger.Info().
				Int("region_index", idx+1).
				Int("region_total", len(regions)).
				Str("region", region).
				Msg("processing region")
			slots[idx] = matchRegion(region, themes, corpus, lex, sim, opts.Threshold, logger)
			if opts.Progress != nil {
				progressMu.Lock()
				done++
				opts.Progress(done, len(regions))
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	results := make([]MatchResult, 0, total)
	for _, s := range slots {
		results = append(results, s...)
	}
	return results, nil
}

func resolveScope(corpus *Corpus, lex *Lexicon, scope Scope) ([]string, []Theme, error) {
	regions := corpus.Regions()
	if name := strings.TrimSpace(scope.Region); name != "" {
		if !corpus.HasRegion(name) {
			return nil, nil, fmt.Errorf("%w: region %q", ErrScopeNotFound, name)
		}
		regions = []string{name}
	}
	themes := lex.Themes()
	if key := strings.TrimSpace(scope.Theme); key != "" {
		t, ok := lex.Lookup(key)
		if !ok {
			return nil, nil, fmt.Errorf("%w: theme %q", ErrScopeNotFound, key)
		}
		themes = []Theme{t}
	}
	return regions, themes, nil
}

// matchRegion reads only shared immutable state and returns a private slice.
func matchRegion(region string, themes []Theme, corpus *Corpus, lex *Lexicon, sim *SimilarityMatrix, threshold float32, logger zerolog.Logger) []MatchResult {
	issues := corpus.Issues
	var own []int
	for i := range issues {
		if issues[i].RegionName == region {
			own = append(own, i)
		}
	}

	var out []MatchResult
	for _, theme := range themes {
		var origins []int
		for _, o := range own {
			if issues[o].HasTheme(theme.ID) {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			continue
		}
		logger.Debug().
			Str("region", region).
			Str("theme", theme.Name).
			Int("issues", len(origins)).
			Msg("theme issues found")

		for _, o := range origins {
			origin := issues[o]
			cands := bestPerRegion(o, region, issues, sim, threshold, lex)
			if len(cands) == 0 {
				continue
			}
			rankCandidates(cands)
			out = append(out, MatchResult{
				OriginRegion:     region,
				OriginRegionCode: origin.RegionCode,
				ThemeID:          theme.ID,
				ThemeName:        theme.Name,
				OriginIssueText:  origin.RawText,
				Candidates:       cands,
			})
		}
	}
	return out
}

// bestPerRegion keeps a single candidate per comparator region. A later issue
// replaces the recorded one only with a strictly greater score.
func bestPerRegion(o int, region string, issues []Issue, sim *SimilarityMatrix, threshold float32, lex *Lexicon) []MatchCandidate {
	best := make(map[string]int)
	var cands []MatchCandidate
	origin := issues[o]
	for j := range issues {
		c := issues[j]
		if j == o || c.RegionName == region {
			continue
		}
		score := sim.At(o, j)
		if !(score >= threshold) {
			continue
		}
		cand := MatchCandidate{
			ComparatorRegion:     c.RegionName,
			ComparatorRegionCode: c.RegionCode,
			ComparatorIssueText:  c.RawText,
			Score:                score,
		}
		if k, ok := best[c.RegionName]; ok {
			if score > cands[k].Score {
				cand.Explanation = lex.explainTags(origin.ThemeIDs, c.ThemeIDs)
				cands[k] = cand
			}
			continue
		}
		cand.Explanation = lex.explainTags(origin.ThemeIDs, c.ThemeIDs)
		best[c.RegionName] = len(cands)
		cands = append(cands, cand)
	}
	return cands
}

// rankCandidates orders by score descending. Equal scores fall back to the
// comparator region name and then its code, both ascending.
func rankCandidates(cands []MatchCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ComparatorRegion != b.ComparatorRegion {
			return a.ComparatorRegion < b.ComparatorRegion
		}
		return a.ComparatorRegionCode < b.ComparatorRegionCode
	})
}
