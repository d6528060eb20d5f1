package matcher

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairScore struct {
	i, j  int
	score float32
}

// fixture tags the corpus and builds a matrix whose unspecified off-diagonal
// entries are zero.
func fixture(t *testing.T, records []RegionRecord, scores ...pairScore) (*Corpus, *Lexicon, *SimilarityMatrix) {
	t.Helper()
	lex := testLexicon(t)
	c := NewCorpus(records, false)
	c.Tag(lex)
	m := newSimilarityMatrix(len(c.Issues))
	for i := range c.Issues {
		m.set(i, i, 1)
	}
	for _, s := range scores {
		m.set(s.i, s.j, s.score)
	}
	return c, lex, m
}

func runMatch(t *testing.T, c *Corpus, lex *Lexicon, m *SimilarityMatrix, opts MatchOptions) []MatchResult {
	t.Helper()
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	opts.Logger = zerolog.Nop()
	results, err := Match(context.Background(), c, lex, m, opts)
	require.NoError(t, err)
	return results
}

func TestMatch_SingleCandidateAboveThreshold(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Code: "01", Name: "A", Issues: []string{"1. Peningkatan ekonomi lokal"}},
		{Code: "02", Name: "B", Issues: []string{"Penguatan ekonomi desa"}},
		{Code: "03", Name: "C", Issues: []string{"Penataan ruang kota"}},
	},
		pairScore{0, 1, 0.62},
		pairScore{0, 2, 0.30},
		pairScore{1, 2, 0.20},
	)

	got := runMatch(t, c, lex, m, MatchOptions{})
	want := []MatchResult{
		{
			OriginRegion: "A", OriginRegionCode: "01", ThemeID: "ekonomi", ThemeName: "Ekonomi",
			OriginIssueText: "1. Peningkatan ekonomi lokal",
			Candidates: []MatchCandidate{{
				ComparatorRegion: "B", ComparatorRegionCode: "02",
				ComparatorIssueText: "Penguatan ekonomi desa",
				Score:               0.62,
				Explanation:         "Fokus tema umum yang terdeteksi: Ekonomi.",
			}},
		},
		{
			OriginRegion: "B", OriginRegionCode: "02", ThemeID: "ekonomi", ThemeName: "Ekonomi",
			OriginIssueText: "Penguatan ekonomi desa",
			Candidates: []MatchCandidate{{
				ComparatorRegion: "A", ComparatorRegionCode: "01",
				ComparatorIssueText: "1. Peningkatan ekonomi lokal",
				Score:               0.62,
				Explanation:         "Fokus tema umum yang terdeteksi: Ekonomi.",
			}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch_BelowThresholdEmitsNothing(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"Peningkatan ekonomi lokal"}},
		{Name: "B", Issues: []string{"Penguatan ekonomi desa"}},
	}, pairScore{0, 1, 0.40})

	assert.Empty(t, runMatch(t, c, lex, m, MatchOptions{}))
}

func TestMatch_ThresholdIsInclusive(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi"}},
		{Name: "B", Issues: []string{"ruang"}},
	}, pairScore{0, 1, 0.5})

	got := runMatch(t, c, lex, m, MatchOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, float32(0.5), got[0].Candidates[0].Score)
	assert.Equal(t, "Kecocokan berdasarkan makna kalimat secara umum.", got[0].Candidates[0].Explanation)
}

func TestMatch_NaNScoreIsNeverACandidate(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi lokal"}},
		{Name: "B", Issues: []string{"ekonomi desa"}},
		{Name: "C", Issues: []string{"ekonomi kota"}},
	},
		pairScore{0, 1, float32(math.NaN())},
		pairScore{0, 2, 0.6},
	)

	got := runMatch(t, c, lex, m, MatchOptions{})
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].OriginRegion)
	assert.Equal(t, "C", got[1].OriginRegion)
	for _, res := range got {
		require.Len(t, res.Candidates, 1)
		assert.NotEqual(t, "B", res.Candidates[0].ComparatorRegion)
		assert.Equal(t, float32(0.6), res.Candidates[0].Score)
	}
}

func TestMatch_OrdersCandidatesByScore(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"Peningkatan ekonomi"}},
		{Name: "B", Issues: []string{"Ekonomi kreatif"}},
		{Name: "D", Issues: []string{"Ekonomi digital"}},
	},
		pairScore{0, 1, 0.55},
		pairScore{0, 2, 0.70},
	)

	got := runMatch(t, c, lex, m, MatchOptions{Scope: Scope{Region: "A"}})
	require.Len(t, got, 1)
	require.Len(t, got[0].Candidates, 2)
	assert.Equal(t, "D", got[0].Candidates[0].ComparatorRegion)
	assert.Equal(t, "B", got[0].Candidates[1].ComparatorRegion)
}

func TestMatch_EqualScoresBreakTiesByRegionName(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi"}},
		{Name: "Zeta", Issues: []string{"x"}},
		{Name: "Beta", Issues: []string{"y"}},
	},
		pairScore{0, 1, 0.8},
		pairScore{0, 2, 0.8},
	)

	got := runMatch(t, c, lex, m, MatchOptions{Scope: Scope{Region: "A"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Beta", got[0].Candidates[0].ComparatorRegion)
	assert.Equal(t, "Zeta", got[0].Candidates[1].ComparatorRegion)
}

func TestMatch_BestPerRegionKeepsFirstOnTie(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi", "ekonomi lain"}},
		{Name: "B", Issues: []string{"pertama", "kedua", "ketiga"}},
	},
		pairScore{0, 2, 0.6},
		pairScore{0, 3, 0.6},
		pairScore{1, 2, 0.6},
		pairScore{1, 4, 0.9},
	)

	got := runMatch(t, c, lex, m, MatchOptions{Scope: Scope{Region: "A"}})
	require.Len(t, got, 2)
	assert.Equal(t, []MatchCandidate{{ComparatorRegion: "B", ComparatorIssueText: "pertama", Score: 0.6,
		Explanation: explainFallback}}, got[0].Candidates)
	assert.Equal(t, []MatchCandidate{{ComparatorRegion: "B", ComparatorIssueText: "ketiga", Score: 0.9,
		Explanation: explainFallback}}, got[1].Candidates)
}

func TestMatch_IgnoresSameRegionIssues(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi", "ekonomi juga"}},
		{Name: "B", Issues: []string{"lain"}},
	}, pairScore{0, 1, 0.99})

	assert.Empty(t, runMatch(t, c, lex, m, MatchOptions{}))
}

func TestMatch_ThemesInLexiconOrder(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"gizi anak sekolah dan umkm"}},
		{Name: "B", Issues: []string{"x"}},
	}, pairScore{0, 1, 0.7})

	got := runMatch(t, c, lex, m, MatchOptions{})
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ThemeID)
	}
	assert.Equal(t, []string{"ekonomi", "pendidikan", "kesehatan"}, ids)
}

func TestMatch_Scope(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi sekolah"}},
		{Name: "B", Issues: []string{"ekonomi sekolah"}},
	}, pairScore{0, 1, 0.9})

	got := runMatch(t, c, lex, m, MatchOptions{Scope: Scope{Region: "B", Theme: "Pendidikan"}})
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].OriginRegion)
	assert.Equal(t, "pendidikan", got[0].ThemeID)

	_, err := Match(context.Background(), c, lex, m, MatchOptions{Scope: Scope{Region: "Nowhere"}})
	assert.ErrorIs(t, err, ErrScopeNotFound)
	_, err = Match(context.Background(), c, lex, m, MatchOptions{Scope: Scope{Theme: "pariwisata"}})
	assert.ErrorIs(t, err, ErrScopeNotFound)
}

func TestMatch_MatrixSizeMismatch(t *testing.T) {
	c, lex, _ := fixture(t, []RegionRecord{{Name: "A", Issues: []string{"ekonomi"}}})
	_, err := Match(context.Background(), c, lex, newSimilarityMatrix(3), MatchOptions{})
	require.Error(t, err)
}

func TestMatch_CancelledContext(t *testing.T) {
	c, lex, m := fixture(t, []RegionRecord{
		{Name: "A", Issues: []string{"ekonomi"}},
		{Name: "B", Issues: []string{"ekonomi"}},
	}, pairScore{0, 1, 0.9})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Match(ctx, c, lex, m, MatchOptions{Threshold: DefaultThreshold, Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, context.Canceled)
}

func randomFixture(t *testing.T, seed int64) (*Corpus, *Lexicon, *SimilarityMatrix) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	words := []string{"ekonomi", "umkm", "sekolah", "gizi", "ruang", "jalan", "pendidikan", "air"}
	regions := []string{"Kota E", "Kab. A", "Kota C", "Kab. D", "Kota B"}
	var records []RegionRecord
	for r, name := range regions {
		rec := RegionRecord{Code: string(rune('0' + r)), Name: name}
		for k := 0; k < 4; k++ {
			rec.Issues = append(rec.Issues, words[rng.Intn(len(words))]+" "+words[rng.Intn(len(words))])
		}
		records = append(records, rec)
	}
	lex := testLexicon(t)
	c := NewCorpus(records, false)
	c.Tag(lex)
	vecs := make([][]float32, len(c.Issues))
	for i := range vecs {
		vecs[i] = []float32{rng.Float32(), rng.Float32(), rng.Float32() - 0.3}
	}
	return c, lex, BuildSimilarityMatrix(vecs)
}

func TestMatch_WorkerCountDoesNotChangeOutput(t *testing.T) {
	c, lex, m := randomFixture(t, 7)
	sequential := runMatch(t, c, lex, m, MatchOptions{Workers: 1})
	parallel := runMatch(t, c, lex, m, MatchOptions{Workers: 4})
	require.NotEmpty(t, sequential)
	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel output differs (-sequential +parallel):\n%s", diff)
	}
}

func TestMatch_ResultInvariants(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		c, lex, m := randomFixture(t, seed)
		results := runMatch(t, c, lex, m, MatchOptions{Workers: 2})

		regionOrder := make([]string, 0, len(results))
		for _, res := range results {
			require.NotEmpty(t, res.Candidates)
			seen := map[string]bool{}
			for _, cand := range res.Candidates {
				assert.False(t, seen[cand.ComparatorRegion], "duplicate comparator region %s", cand.ComparatorRegion)
				seen[cand.ComparatorRegion] = true
				assert.NotEqual(t, res.OriginRegion, cand.ComparatorRegion)
				assert.GreaterOrEqual(t, cand.Score, DefaultThreshold)
			}
			assert.True(t, sort.SliceIsSorted(res.Candidates, func(i, j int) bool {
				return res.Candidates[i].Score > res.Candidates[j].Score
			}))
			if n := len(regionOrder); n == 0 || regionOrder[n-1] != res.OriginRegion {
				regionOrder = append(regionOrder, res.OriginRegion)
			}
		}
		assert.True(t, sort.StringsAreSorted(regionOrder), "regions out of order: %v", regionOrder)
	}
}

func TestMatch_ReportsProgressPerRegion(t *testing.T) {
	c, lex, m := randomFixture(t, 3)
	var calls []int
	runMatch(t, c, lex, m, MatchOptions{Workers: 3, Progress: func(done, total int) {
		assert.Equal(t, 5, total)
		calls = append(calls, done)
	}})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}
