package matcher

import "errors"

// Fatal error classes of a run. Callers test for them with errors.Is.
var (
	// ErrConfigLoad reports a missing or malformed config, lexicon or corpus file.
	ErrConfigLoad = errors.New("config load failed")
	// ErrScopeNotFound reports a region or theme filter absent from the loaded data.
	ErrScopeNotFound = errors.New("scope not found")
	// ErrEmbedding reports that no complete, order-aligned vector set could be produced.
	ErrEmbedding = errors.New("embedding failed")
	// ErrResultPersist reports that the output could not be written.
	ErrResultPersist = errors.New("result persist failed")
)
