package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/errmatch/internal/dataset"
)

// UnmatchedLog records queries that produced no candidates. Implementations
// must not block the caller on slow or failing storage.
type UnmatchedLog interface {
	Record(ctx context.Context, sessionID, query string)
}

// Options tunes matching. Zero fields fall back to the defaults.
type Options struct {
	Threshold       float64
	ExactThreshold  float64
	AmbiguityWindow float64
	TopK            int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		Threshold:       DefaultThreshold,
		ExactThreshold:  DefaultExactThreshold,
		AmbiguityWindow: DefaultAmbiguityWindow,
		TopK:            DefaultTopK,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.ExactThreshold <= 0 {
		o.ExactThreshold = d.ExactThreshold
	}
	if o.AmbiguityWindow <= 0 {
		o.AmbiguityWindow = d.AmbiguityWindow
	}
	if o.TopK <= 0 {
		o.TopK = d.TopK
	}
	return o
}

// Engine answers free-text error queries against per-session datasets.
type Engine struct {
	datasets  dataset.Store
	unmatched UnmatchedLog
	opts      Options
	logger    zerolog.Logger
}

// NewEngine creates an Engine. unmatched may be nil.
func NewEngine(datasets dataset.Store, unmatched UnmatchedLog, opts Options, logger zerolog.Logger) *Engine {
	return &Engine{
		datasets:  datasets,
		unmatched: unmatched,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Options returns the effective tuning.
func (e *Engine) Options() Options { return e.opts }

// Match answers query for the session's dataset. The returned error is
// always an *Error.
func (e *Engine) Match(ctx context.Context, sessionID, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if sessionID == "" {
		return nil, ErrNoDataset
	}

	ds, err := e.datasets.Get(sessionID)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, ErrNoDataset
	}
	if err != nil {
		return nil, AsError(err, "Error reading dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidDataset, Message: ErrInvalidDataset.Message, Err: err}
	}

	resp := e.Evaluate(ctx, sessionID, query, ds)
	e.logger.Debug().
		Str("session_id", sessionID).
		Str("kind", string(resp.Kind)).
		Int("matches", len(resp.Matches)).
		Bool("follow_up", resp.FollowUp != nil).
		Msg("query matched")
	return resp, nil
}

// Evaluate runs matching and disambiguation for query over ds. An empty
// result is recorded in the unmatched log under sessionID.
func (e *Engine) Evaluate(ctx context.Context, sessionID, query string, ds dataset.Dataset) *Response {
	matches := FindMatches(query, ds, e.opts.Threshold, e.opts.TopK)

	if len(matches) == 0 {
		if e.unmatched != nil {
			e.unmatched.Record(ctx, sessionID, query)
		}
		return NoMatch(query)
	}

	if matches[0].Similarity >= e.opts.ExactThreshold {
		return &Response{
			Kind:       KindExactMatch,
			Message:    "Found exact match! Here are the recommended solutions:",
			ExactMatch: true,
			Matches:    matches[:1],
		}
	}

	resp := &Response{
		Kind:    KindMatches,
		Message: fmt.Sprintf("Found %d similar error(s). Here are the closest matches:", len(matches)),
		Matches: matches,
	}
	if IsAmbiguous(matches, query, e.opts.AmbiguityWindow) {
		resp.FollowUp = BuildFollowUp(matches)
	}
	return resp
}

// NoMatch builds the response for a query with no candidates.
func NoMatch(query string) *Response {
	return &Response{
		Kind:        KindNoMatch,
		Message:     "No matching errors found in the uploaded data.",
		Unmatched:   true,
		Suggestions: Suggestions(query),
		Template:    NewEntryTemplate(query),
	}
}

// Load validates ds and makes it the session's dataset, replacing any
// previous one.
func (e *Engine) Load(sessionID string, ds dataset.Dataset) error {
	if err := ds.Validate(); err != nil {
		return &Error{Kind: KindInvalidDataset, Message: ErrInvalidDataset.Message, Err: err}
	}
	e.datasets.Put(sessionID, ds)
	e.logger.Info().
		Str("session_id", sessionID).
		Str("source", ds.Source).
		Int("rows", ds.Len()).
		Int("columns", len(ds.Columns)).
		Msg("dataset loaded")
	return nil
}

// Dataset returns the session's dataset.
func (e *Engine) Dataset(sessionID string) (dataset.Dataset, error) {
	ds, err := e.datasets.Get(sessionID)
	if errors.Is(err, dataset.ErrNotFound) {
		return dataset.Dataset{}, ErrNoDataset
	}
	return ds, err
}

// Clear drops the session's dataset.
func (e *Engine) Clear(sessionID string) {
	e.datasets.Delete(sessionID)
	e.logger.Info().Str("session_id", sessionID).Msg("session cleared")
}
