package loader

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/cache"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/config"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/monitoring"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/resilience"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

// Result is the outcome of one asynchronous load.
type Result struct {
	Records  []types.PersonRecord
	Err      error
	Source   string
	LoadedAt time.Time
	Duration time.Duration
}

// LoadRecorder counts load outcomes.
type LoadRecorder interface {
	RecordLoad(success bool)
}

// LoadAsync starts loading src and delivers exactly one Result on the
// returned channel, which is then closed. Failures arrive as load errors.
func LoadAsync(ctx context.Context, src Source) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		start := time.Now()
		records, err := src.Load(ctx)
		if err != nil {
			if errors.ToAppError(err).Category != errors.CategoryLoad {
				err = errors.NewLoadError(src.Name(), err)
			}
			records = nil
		}

		out <- Result{
			Records:  records,
			Err:      err,
			Source:   src.Name(),
			LoadedAt: time.Now(),
			Duration: time.Since(start),
		}
	}()

	return out
}

// LoadStore loads src and builds a store from it. Any failure degrades to
// an empty store named after the source; it never returns nil. logger and
// recorder may be nil.
func LoadStore(ctx context.Context, src Source, logger *monitoring.Logger, recorder LoadRecorder) *analysis.Store {
	res := <-LoadAsync(ctx, src)

	if recorder != nil {
		recorder.RecordLoad(res.Err == nil)
	}

	if res.Err != nil {
		if logger != nil {
			logger.LoadLogger(res.Source, 0, 0, res.Duration, res.Err)
		}
		return analysis.EmptyStore(res.Source)
	}

	store := analysis.NewStore(res.Records, res.Source)
	if logger != nil {
		logger.LoadLogger(res.Source, store.Len(), len(store.Issues()), res.Duration, nil)
		for _, issue := range store.Issues() {
			logger.Debug("Evaluation rejected", "source", res.Source, "issue", issue.String())
		}
	}
	return store
}

// NewSource builds the source described by cfg. The cache and metrics are
// only used by the HTTP source and may be nil.
func NewSource(cfg *config.Config, c *cache.Cache, metrics *monitoring.Metrics) (Source, error) {
	switch cfg.DataSource {
	case config.SourceHTTP:
		breakerConfig := resilience.CircuitBreakerConfig{}
		if metrics != nil {
			breakerConfig.OnStateChange = func(_, to resilience.CircuitBreakerState) {
				switch to {
				case resilience.StateOpen:
					metrics.IncrementCircuitBreakerOpen()
				case resilience.StateClosed:
					metrics.IncrementCircuitBreakerClose()
				}
			}
		}
		return NewHTTPSource(cfg.DataURL, HTTPOptions{
			Timeout: cfg.FetchTimeout,
			Breaker: resilience.NewCircuitBreaker(breakerConfig),
			Cache:   c,
		}), nil

	case config.SourceSQLite:
		return NewSQLiteSource(cfg.DBPath), nil

	case config.SourceFile:
		if len(cfg.DataPaths) == 1 {
			return NewFileSource(cfg.DataPaths[0]), nil
		}
		sources := make([]Source, len(cfg.DataPaths))
		for i, p := range cfg.DataPaths {
			sources[i] = NewFileSource(p)
		}
		return NewMultiSource(sources...), nil
	}

	return nil, errors.NewConfigurationError("unknown data source "+cfg.DataSource, nil)
}
