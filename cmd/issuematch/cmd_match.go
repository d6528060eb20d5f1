package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"yashubustudio/issuematch/internal/logging"
	"yashubustudio/issuematch/matcher"
)

var matchFlags struct {
	lexiconPath string
	corpusPath  string
	outputPath  string
	csvPath     string
	region      string
	theme       string
	threshold   float32
	workers     int
	stdout      bool
	noProgress  bool
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match every region's themed issues against all other regions",
	RunE:  runMatch,
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchFlags.lexiconPath, "lexicon", "", "Theme lexicon JSON (default from config)")
	f.StringVar(&matchFlags.corpusPath, "corpus", "", "Regional issue JSON (default from config)")
	f.StringVarP(&matchFlags.outputPath, "output", "o", "", "Result JSON path (default from config)")
	f.StringVar(&matchFlags.csvPath, "csv", "", "Also write the results as CSV, one row per candidate")
	f.StringVar(&matchFlags.region, "region", "", "Only match issues of this region name")
	f.StringVar(&matchFlags.theme, "theme", "", "Only match this theme id or name")
	f.Float32Var(&matchFlags.threshold, "threshold", matcher.DefaultThreshold, "Minimum cosine similarity of a candidate")
	f.IntVar(&matchFlags.workers, "workers", 0, "Regions matched concurrently (default from config)")
	f.BoolVar(&matchFlags.stdout, "stdout", false, "Print a preview of the results to STDOUT")
	f.BoolVar(&matchFlags.noProgress, "no-progress", false, "Disable the progress bar")
}

func runMatch(cmd *cobra.Command, _ []string) error {
	cfg := appConfig.Clone()
	applyMatchFlags(cmd, &cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	service, err := matcher.NewLazyService(func() (matcher.Embedder, error) {
		embedder, err := openEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	}, cfg, appLogger)
	if err != nil {
		return err
	}
	defer service.Close()

	var bar *progressbar.ProgressBar
	opts := matcher.RunOptions{
		Scope:   matcher.Scope{Region: matchFlags.region, Theme: matchFlags.theme},
		CSVPath: strings.TrimSpace(matchFlags.csvPath),
	}
	if !matchFlags.noProgress {
		opts.Progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(cmd.ErrOrStderr(), total, "matching regions")
			}
			_ = bar.Set(done)
		}
	}

	report, err := service.Run(ctx, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d results for %d issues in %d regions saved to %s\n",
		len(report.Results), report.Issues, report.Regions, report.OutputPath)
	if report.CSVPath != "" {
		fmt.Fprintf(out, "CSV export saved to %s\n", report.CSVPath)
	}
	if matchFlags.stdout {
		printSummary(out, report.Results)
	}
	return nil
}

func applyMatchFlags(cmd *cobra.Command, cfg *matcher.Config) {
	if v := strings.TrimSpace(matchFlags.lexiconPath); v != "" {
		cfg.LexiconPath = v
	}
	if v := strings.TrimSpace(matchFlags.corpusPath); v != "" {
		cfg.CorpusPath = v
	}
	if v := strings.TrimSpace(matchFlags.outputPath); v != "" {
		cfg.OutputPath = v
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = matcher.Float32(matchFlags.threshold)
	}
	if matchFlags.workers > 0 {
		cfg.Workers = matchFlags.workers
	}
}

// openEmbedder builds the configured cache and backend. An unreachable cache
// is logged and skipped. The service calls it only once there are issues to
// embed.
func openEmbedder(ctx context.Context, cfg matcher.Config) (*matcher.CachedEmbedder, error) {
	logger := logging.Component(appLogger, "embedder")
	cache, err := matcher.NewVectorCache(ctx, cfg.Cache)
	if err != nil {
		logger.Warn().Err(err).Str("driver", string(cfg.Cache.Driver)).Msg("embedding cache disabled")
		cache = nil
	}
	embedder, err := matcher.NewEmbedder(cfg.Embedder, cache)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, err
	}
	logger.Info().
		Str("provider", string(cfg.Embedder.Provider)).
		Str("model", embedder.ModelID()).
		Msg("embedder ready")
	return embedder, nil
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("regions"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}
