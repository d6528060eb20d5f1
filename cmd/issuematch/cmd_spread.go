package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/issuematch/matcher"
)

var spreadFlags struct {
	theme      string
	outputPath string
}

var spreadCmd = &cobra.Command{
	Use:   "spread",
	Short: "Count, per region, the issues mentioning a theme",
	RunE:  runSpread,
}

func init() {
	f := spreadCmd.Flags()
	f.StringVar(&spreadFlags.theme, "theme", "", "Theme id or name (required)")
	f.StringVarP(&spreadFlags.outputPath, "output", "o", "", "Result JSON path (default: Output/hasil_tema_<theme>.json)")

	_ = spreadCmd.MarkFlagRequired("theme")
}

func runSpread(cmd *cobra.Command, _ []string) error {
	lex, corpus, err := loadInputs(appConfig)
	if err != nil {
		return err
	}
	theme, entries, err := matcher.Spread(corpus, lex, spreadFlags.theme)
	if err != nil {
		return err
	}
	path := spreadFlags.outputPath
	if path == "" {
		path = filepath.Join(filepath.Dir(appConfig.OutputPath), "hasil_tema_"+strings.ReplaceAll(theme.Name, " ", "_")+".json")
	}
	if err := matcher.WriteJSON(path, entries); err != nil {
		return fmt.Errorf("%w: %v", matcher.ErrResultPersist, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Theme %s across %d regions (saved to %s)\n", theme.Name, len(entries), path)
	for _, e := range entries {
		fmt.Fprintf(out, "  %-40s %d\n", e.Region, e.Count)
	}
	return nil
}

func loadInputs(cfg matcher.Config) (*matcher.Lexicon, *matcher.Corpus, error) {
	lex, err := matcher.LoadLexicon(cfg.LexiconPath, cfg.Corpus.Fields)
	if err != nil {
		return nil, nil, err
	}
	corpus, err := matcher.LoadCorpus(cfg.CorpusPath, cfg.Corpus)
	if err != nil {
		return nil, nil, err
	}
	corpus.Tag(lex)
	return lex, corpus, nil
}
