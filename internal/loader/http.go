package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/cache"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/resilience"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

const defaultMaxBytes = 32 << 20

// HTTPOptions tune an HTTPSource. Zero values get defaults.
type HTTPOptions struct {
	Client   *http.Client
	Timeout  time.Duration
	Retry    resilience.RetryConfig
	Breaker  *resilience.CircuitBreaker
	Cache    *cache.Cache
	MaxBytes int64
}

// HTTPSource fetches a dataset document over HTTP with retries behind a
// circuit breaker. Successful bodies are cached by URL.
type HTTPSource struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
	cache    *cache.Cache
	maxBytes int64
}

func NewHTTPSource(url string, opts HTTPOptions) *HTTPSource {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = resilience.DefaultRetryConfig()
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}

	return &HTTPSource{
		url:      url,
		client:   opts.Client,
		timeout:  opts.Timeout,
		retry:    opts.Retry,
		breaker:  opts.Breaker,
		cache:    opts.Cache,
		maxBytes: opts.MaxBytes,
	}
}

func (s *HTTPSource) Name() string { return s.url }

func (s *HTTPSource) Load(ctx context.Context) ([]types.PersonRecord, error) {
	key := cache.Key(s.url)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return Decode(data, FormatFor(s.url))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var data []byte
	err := s.breaker.Call(func() error {
		var err error
		data, err = s.fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records, err := Decode(data, FormatFor(s.url))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, data)
	}
	return records, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	resp, err := resilience.RetryHTTP(ctx, s.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json, application/yaml")
		req.Header.Set("User-Agent", "impact-effort-matrix/1.0")
		return s.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewHTTPError(resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset body: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("dataset larger than %d bytes", s.maxBytes)
	}
	return data, nil
}
