package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dominantLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex, err := NewLexicon([]Theme{
		{Name: "Ekonomi", Keywords: []string{"ekonomi", "umkm", "pasar"}},
		{Name: "Pendidikan", Keywords: []string{"sekolah", "guru"}},
	})
	require.NoError(t, err)
	return lex
}

func TestDominantThemes(t *testing.T) {
	c := NewCorpus([]RegionRecord{
		{Code: "01", Name: "A", Issues: []string{
			"1. Penguatan ekonomi dan UMKM",
			"2. Peningkatan kualitas guru sekolah",
			"3. Penataan ruang",
			"a) pasar rakyat dan ekonomi",
		}},
		{Code: "02", Name: "B", Issues: []string{""}},
		{Code: "03", Name: "C", Issues: []string{"Penataan ruang"}},
	}, false)

	got := DominantThemes(c, dominantLexicon(t), DefaultDominantThreshold, 2)
	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "A", a.Region)
	assert.Equal(t, "01", a.RegionCode)
	assert.Equal(t, []ThemeCount{{Theme: "Ekonomi", Count: 2}, {Theme: "Pendidikan", Count: 1}}, a.TopThemes)
	assert.Equal(t, []string{"1. Penguatan ekonomi dan UMKM", "a) pasar rakyat dan ekonomi"}, a.Matched["Ekonomi"])
	assert.Equal(t, []string{"2. Peningkatan kualitas guru sekolah"}, a.Matched["Pendidikan"])
	assert.Equal(t, []string{"3. Penataan ruang"}, a.Unmatched)

	require.Len(t, a.Scores["Ekonomi"], 2)
	assert.InDelta(t, 41.12, a.Scores["Ekonomi"][0], 1e-9)
	assert.InDelta(t, 57.97, a.Scores["Pendidikan"][0], 1e-9)
}

func TestDominantThemes_TopLimit(t *testing.T) {
	c := NewCorpus([]RegionRecord{{Name: "A", Issues: []string{"sekolah guru", "umkm pasar", "ekonomi umkm"}}}, false)
	got := DominantThemes(c, dominantLexicon(t), DefaultDominantThreshold, 1)
	require.Len(t, got, 1)
	assert.Equal(t, []ThemeCount{{Theme: "Ekonomi", Count: 2}}, got[0].TopThemes)
}

func TestTFIDFCosine(t *testing.T) {
	assert.InDelta(t, 1.0, tfidfCosine("ekonomi umkm", "umkm ekonomi"), 1e-9)
	assert.Equal(t, 0.0, tfidfCosine("ekonomi", "sekolah"))
	assert.Equal(t, 0.0, tfidfCosine("a b", "ekonomi"))
}

func TestCleanForTFIDF(t *testing.T) {
	tests := map[string]string{
		"1. Penguatan ekonomi": "penguatan ekonomi",
		"b) Pasar rakyat":      "pasar rakyat",
		"- Ekonomi":            "ekonomi",
		"Ekonomi desa":         "ekonomi desa",
		"12)":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanForTFIDF(in), "input %q", in)
	}
}
