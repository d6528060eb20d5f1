package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/issuematch/matcher"
)

var dominantFlags struct {
	minScore   float64
	top        int
	outputPath string
}

var dominantCmd = &cobra.Command{
	Use:   "dominant",
	Short: "Find the dominant themes of every region by TF-IDF keyword similarity",
	RunE:  runDominant,
}

func init() {
	f := dominantCmd.Flags()
	f.Float64Var(&dominantFlags.minScore, "min-score", matcher.DefaultDominantThreshold, "Minimum TF-IDF similarity for an issue to count")
	f.IntVar(&dominantFlags.top, "top", 2, "Number of top themes reported per region")
	f.StringVarP(&dominantFlags.outputPath, "output", "o", "", "Result JSON path (default: Output/hasil_topikutama.json)")
}

func runDominant(cmd *cobra.Command, _ []string) error {
	lex, corpus, err := loadInputs(appConfig)
	if err != nil {
		return err
	}
	summaries := matcher.DominantThemes(corpus, lex, dominantFlags.minScore, dominantFlags.top)
	path := dominantFlags.outputPath
	if path == "" {
		path = filepath.Join(filepath.Dir(appConfig.OutputPath), "hasil_topikutama.json")
	}
	if err := matcher.WriteJSON(path, summaries); err != nil {
		return fmt.Errorf("%w: %v", matcher.ErrResultPersist, err)
	}

	out := cmd.OutOrStdout()
	for _, s := range summaries {
		parts := make([]string, len(s.TopThemes))
		for i, tc := range s.TopThemes {
			parts[i] = fmt.Sprintf("%s (%d)", tc.Theme, tc.Count)
		}
		fmt.Fprintf(out, "%s: %s; %d unmatched\n", s.Region, strings.Join(parts, ", "), len(s.Unmatched))
	}
	fmt.Fprintf(out, "%d regions saved to %s\n", len(summaries), path)
	return nil
}
