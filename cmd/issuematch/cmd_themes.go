package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"yashubustudio/issuematch/matcher"
)

var themesFlags struct {
	theme      string
	outputPath string
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the themes of the lexicon, or export the issues of one theme",
	RunE:  runThemes,
}

func init() {
	f := themesCmd.Flags()
	f.StringVar(&themesFlags.theme, "theme", "", "Export the keywords and issues of this theme id or name")
	f.StringVarP(&themesFlags.outputPath, "output", "o", "", "Export path (default: Output/hasil_tema_<theme>_isu.json)")
}

func runThemes(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(themesFlags.theme) != "" {
		return exportTheme(cmd)
	}
	lex, err := matcher.LoadLexicon(appConfig.LexiconPath, appConfig.Corpus.Fields)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, t := range lex.Themes() {
		fmt.Fprintf(out, "%d. %s [%s] %d keywords\n", i+1, t.Name, t.ID, len(t.Keywords))
	}
	return nil
}

func exportTheme(cmd *cobra.Command) error {
	lex, corpus, err := loadInputs(appConfig)
	if err != nil {
		return err
	}
	listing, err := matcher.ListTheme(corpus, lex, strings.TrimSpace(themesFlags.theme))
	if err != nil {
		return err
	}
	path := themesFlags.outputPath
	if path == "" {
		path = filepath.Join(filepath.Dir(appConfig.OutputPath), "hasil_tema_"+strings.ReplaceAll(listing.Theme, " ", "_")+"_isu.json")
	}
	if err := matcher.WriteJSON(path, listing); err != nil {
		return fmt.Errorf("%w: %v", matcher.ErrResultPersist, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Theme %s: %d keywords, %d issues (saved to %s)\n",
		listing.Theme, len(listing.Keywords), listing.IssueCount, path)
	return nil
}
