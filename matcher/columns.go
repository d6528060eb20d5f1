package matcher

// FieldCandidates lists the JSON keys accepted for each input field. The first
// key present in an object wins, so the original "kodepemda"/"namapemda" files
// and snake_case exports load without conversion.
type FieldCandidates struct {
	Records    []string `json:"records" yaml:"records"`
	RegionCode []string `json:"regionCode" yaml:"regionCode"`
	RegionName []string `json:"regionName" yaml:"regionName"`
	Issues     []string `json:"issues" yaml:"issues"`

	ThemeGroup    []string `json:"themeGroup" yaml:"themeGroup"`
	ThemeID       []string `json:"themeId" yaml:"themeId"`
	ThemeName     []string `json:"themeName" yaml:"themeName"`
	ThemeKeywords []string `json:"themeKeywords" yaml:"themeKeywords"`
}

func defaultFieldCandidates() FieldCandidates {
	return FieldCandidates{
		Records:       []string{"data", "records", "regions"},
		RegionCode:    []string{"kodepemda", "region_code", "code"},
		RegionName:    []string{"namapemda", "region_name", "name"},
		Issues:        []string{"data", "issues", "isu"},
		ThemeGroup:    []string{"klasifikasi_topik", "themes", "tema"},
		ThemeID:       []string{"id", "kode", "theme_id"},
		ThemeName:     []string{"name", "nama", "theme_name"},
		ThemeKeywords: []string{"keywords", "kata_kunci"},
	}
}

// DefaultFieldCandidates returns the built-in key candidates.
func DefaultFieldCandidates() FieldCandidates {
	return defaultFieldCandidates().clone()
}

// withDefaults fills nil lists from the built-in defaults, allowing callers to
// override only the parts they need.
func (c FieldCandidates) withDefaults() FieldCandidates {
	defaults := defaultFieldCandidates()
	return FieldCandidates{
		Records:       pickStrings(c.Records, defaults.Records),
		RegionCode:    pickStrings(c.RegionCode, defaults.RegionCode),
		RegionName:    pickStrings(c.RegionName, defaults.RegionName),
		Issues:        pickStrings(c.Issues, defaults.Issues),
		ThemeGroup:    pickStrings(c.ThemeGroup, defaults.ThemeGroup),
		ThemeID:       pickStrings(c.ThemeID, defaults.ThemeID),
		ThemeName:     pickStrings(c.ThemeName, defaults.ThemeName),
		ThemeKeywords: pickStrings(c.ThemeKeywords, defaults.ThemeKeywords),
	}
}

func (c FieldCandidates) clone() FieldCandidates {
	return FieldCandidates{
		Records:       cloneStrings(c.Records),
		RegionCode:    cloneStrings(c.RegionCode),
		RegionName:    cloneStrings(c.RegionName),
		Issues:        cloneStrings(c.Issues),
		ThemeGroup:    cloneStrings(c.ThemeGroup),
		ThemeID:       cloneStrings(c.ThemeID),
		ThemeName:     cloneStrings(c.ThemeName),
		ThemeKeywords: cloneStrings(c.ThemeKeywords),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
