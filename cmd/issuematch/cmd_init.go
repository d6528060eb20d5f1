package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/issuematch/matcher"
)

var initFlags struct {
	lexiconPath string
	configPath  string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in lexicon and a config file when they are missing",
	RunE:  runInit,
}

func init() {
	f := initCmd.Flags()
	f.StringVar(&initFlags.lexiconPath, "lexicon", "", "Lexicon path to create (default from config)")
	f.StringVar(&initFlags.configPath, "write-config", "", "Also write the effective config to this path if absent")
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := initFlags.lexiconPath
	if path == "" {
		path = appConfig.LexiconPath
	}
	written, err := matcher.WriteDefaultLexicon(path)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(out, "Default lexicon written to %s\n", path)
	} else {
		fmt.Fprintf(out, "Lexicon %s already exists, left unchanged\n", path)
	}

	if initFlags.configPath == "" {
		return nil
	}
	if _, err := os.Stat(initFlags.configPath); err == nil {
		fmt.Fprintf(out, "Config %s already exists, left unchanged\n", initFlags.configPath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg := appConfig.Clone()
	cfg.LexiconPath = path
	if err := matcher.SaveConfig(initFlags.configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Config written to %s\n", initFlags.configPath)
	return nil
}
