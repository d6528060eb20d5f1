package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"yashubustudio/issuematch/internal/logging"
	"yashubustudio/issuematch/matcher"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// Loaded by the root pre-run hook for every subcommand.
var (
	appConfig matcher.Config
	appLogger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "issuematch",
	Short: "Cross-region thematic matching of regional strategic issues",
	Long: "issuematch tags regional strategic issues with themes from a keyword lexicon,\n" +
		"embeds them once and, for every region, theme and issue, finds the most similar\n" +
		"issue reported by each other region.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: loadRuntime,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to config.json or config.yaml (default: ./config.json)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(spreadCmd)
	rootCmd.AddCommand(dominantCmd)
	rootCmd.AddCommand(themesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.Version = version
}

func loadRuntime(cmd *cobra.Command, _ []string) error {
	cfg, err := matcher.LoadConfig(rootFlags.configPath)
	if err != nil {
		return err
	}
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		cfg.Log.Format = rootFlags.logFormat
	}
	appConfig = cfg
	appLogger = logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cmd.ErrOrStderr(),
		Service: "issuematch",
	})
	return nil
}
