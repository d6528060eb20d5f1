package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service orchestrates loading, tagging, embedding, matching and persisting.
type Service struct {
	embMu    sync.Mutex
	embedder Embedder
	open     func() (Embedder, error)

	cfgMu sync.RWMutex
	cfg   Config

	logger zerolog.Logger
}

// RunOptions narrows a run and reports its progress.
type RunOptions struct {
	Scope Scope
	// CSVPath, when set, receives a CSV export written together with the JSON.
	CSVPath string
	// Progress is called after each region of the matching phase.
	Progress func(done, total int)
}

// Report summarizes a finished run.
type Report struct {
	Issues     int
	Regions    int
	Themes     int
	Results    []MatchResult
	OutputPath string
	CSVPath    string
	Elapsed    time.Duration
}

// NewService constructs a service with the given embedder and configuration.
func NewService(embedder Embedder, cfg Config, logger zerolog.Logger) (*Service, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	svc := newService(cfg, logger)
	svc.embedder = embedder
	return svc, nil
}

// NewLazyService defers building the embedder until a run has loaded its
// inputs, resolved its scope and found issues to embed.
func NewLazyService(open func() (Embedder, error), cfg Config, logger zerolog.Logger) (*Service, error) {
	if open == nil {
		return nil, errors.New("embedder constructor is required")
	}
	svc := newService(cfg, logger)
	svc.open = open
	return svc, nil
}

func newService(cfg Config, logger zerolog.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "matcher").Logger(),
	}
}

// Close releases embedder resources.
func (s *Service) Close() error {
	s.embMu.Lock()
	defer s.embMu.Unlock()
	if s.embedder != nil {
		return s.embedder.Close()
	}
	return nil
}

func (s *Service) loadEmbedder() (Embedder, error) {
	s.embMu.Lock()
	defer s.embMu.Unlock()
	if s.embedder != nil {
		return s.embedder, nil
	}
	e, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("%w: init embedder: %v", ErrEmbedding, err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: init embedder: no embedder", ErrEmbedding)
	}
	s.embedder = e
	return e, nil
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration.
func (s *Service) UpdateConfig(cfg Config) {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// Load reads the lexicon and the corpus named in the configuration and tags
// every issue.
func (s *Service) Load() (*Lexicon, *Corpus, error) {
	cfg := s.Config()
	lex, err := LoadLexicon(cfg.LexiconPath, cfg.Corpus.Fields)
	if err != nil {
		return nil, nil, err
	}
	corpus, err := LoadCorpus(cfg.CorpusPath, cfg.Corpus)
	if err != nil {
		return nil, nil, err
	}
	corpus.Tag(lex)
	s.logger.Info().
		Int("themes", lex.Len()).
		Int("regions", len(corpus.Regions())).
		Int("issues", len(corpus.Issues)).
		Msg("inputs loaded")
	return lex, corpus, nil
}

// Run executes the whole pipeline and writes the results to the configured
// output path. Nothing is written unless every stage succeeds.
func (s *Service) Run(ctx context.Context, opts RunOptions) (Report, error) {
	start := time.Now()
	lex, corpus, err := s.Load()
	if err != nil {
		return Report{}, err
	}
	results, err := s.Analyze(ctx, lex, corpus, opts)
	if err != nil {
		return Report{}, err
	}
	cfg := s.Config()
	if err := WriteResultFiles(cfg.OutputPath, opts.CSVPath, results); err != nil {
		return Report{}, err
	}
	rep := Report{
		Issues:     len(corpus.Issues),
		Regions:    len(corpus.Regions()),
		Themes:     lex.Len(),
		Results:    results,
		OutputPath: cfg.OutputPath,
		CSVPath:    opts.CSVPath,
		Elapsed:    time.Since(start),
	}
	s.logger.Info().
		Int("results", len(results)).
		Str("output", cfg.OutputPath).
		Dur("elapsed", rep.Elapsed).
		Msg("results saved")
	return rep, nil
}

// Analyze embeds the tagged corpus in one batch, builds the similarity matrix
// and runs the cross-region matcher.
func (s *Service) Analyze(ctx context.Context, lex *Lexicon, corpus *Corpus, opts RunOptions) ([]MatchResult, error) {
	cfg := s.Config()
	if _, _, err := resolveScope(corpus, lex, opts.Scope); err != nil {
		return nil, err
	}
	if len(corpus.Issues) == 0 {
		s.logger.Warn().Msg("corpus has no issues")
		return []MatchResult{}, nil
	}

	vecs, err := s.embedAll(ctx, corpus.Texts(), cfg.Embedder.Timeout.Std())
	if err != nil {
		return nil, err
	}
	for i := range corpus.Issues {
		corpus.Issues[i].Embedding = vecs[i]
	}

	started := time.Now()
	sim := BuildSimilarityMatrix(vecs)
	s.logger.Info().
		Int("size", sim.Size()).
		Dur("elapsed", time.Since(started)).
		Msg("similarity matrix built")

	return Match(ctx, corpus, lex, sim, MatchOptions{
		Threshold: cfg.MatchThreshold(),
		Scope:     opts.Scope,
		Workers:   cfg.Workers,
		Progress:  opts.Progress,
		Logger:    s.logger,
	})
}

func (s *Service) embedAll(ctx context.Context, texts []string, timeout time.Duration) ([][]float32, error) {
	embedder, err := s.loadEmbedder()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	s.logger.Info().
		Int("texts", len(texts)).
		Str("model", embedder.ModelID()).
		Msg("embedding issues")
	vecs, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed texts: %v", ErrEmbedding, err)
	}
	if err := validateEmbeddings(vecs, len(texts)); err != nil {
		return nil, err
	}
	return vecs, nil
}
