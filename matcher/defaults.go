package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultThemes returns the built-in lexicon of common regional development
// themes.
func DefaultThemes() []Theme {
	return []Theme{
		{ID: "ekonomi", Name: "Ekonomi", Keywords: []string{
			"ekonomi", "umkm", "investasi", "industri", "perdagangan", "pendapatan", "koperasi", "pasar", "daya saing",
		}},
		{ID: "pendidikan", Name: "Pendidikan", Keywords: []string{
			"pendidikan", "sekolah", "guru", "literasi", "pelajar", "siswa", "kualitas sdm",
		}},
		{ID: "kesehatan", Name: "Kesehatan", Keywords: []string{
			"kesehatan", "stunting", "gizi", "puskesmas", "rumah sakit", "penyakit", "sanitasi",
		}},
		{ID: "infrastruktur", Name: "Infrastruktur", Keywords: []string{
			"infrastruktur", "jalan", "jembatan", "irigasi", "air bersih", "konektivitas", "transportasi",
		}},
		{ID: "kemiskinan", Name: "Kemiskinan", Keywords: []string{
			"kemiskinan", "miskin", "pengangguran", "kesejahteraan", "perlindungan sosial", "ketimpangan",
		}},
		{ID: "lingkungan", Name: "Lingkungan Hidup", Keywords: []string{
			"lingkungan", "sampah", "bencana", "banjir", "iklim", "pencemaran", "hutan",
		}},
		{ID: "pariwisata", Name: "Pariwisata", Keywords: []string{
			"pariwisata", "wisata", "geopark", "destinasi", "ekonomi kreatif",
		}},
		{ID: "tata-kelola", Name: "Tata Kelola Pemerintahan", Keywords: []string{
			"tata kelola", "birokrasi", "pelayanan publik", "reformasi", "akuntabilitas", "digitalisasi", "spbe",
		}},
		{ID: "pertanian", Name: "Pertanian dan Pangan", Keywords: []string{
			"pertanian", "pangan", "petani", "perikanan", "peternakan", "perkebunan", "nelayan",
		}},
		{ID: "sosial-budaya", Name: "Sosial Budaya", Keywords: []string{
			"budaya", "kebudayaan", "pemuda", "olahraga", "gender", "perempuan", "keagamaan",
		}},
	}
}

// WriteDefaultLexicon writes DefaultThemes to path unless a file already
// exists there. It reports whether a file was written.
func WriteDefaultLexicon(path string) (bool, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return false, errors.New("lexicon path is empty")
	}
	clean = filepath.Clean(clean)
	if _, err := os.Stat(clean); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("check lexicon file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return false, fmt.Errorf("create lexicon dir: %w", err)
	}
	data, err := json.MarshalIndent(DefaultThemes(), "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode lexicon: %w", err)
	}
	if err := writeFileAtomic(clean, append(data, '\n')); err != nil {
		return false, fmt.Errorf("write lexicon: %w", err)
	}
	return true, nil
}
