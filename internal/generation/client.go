package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edugen/examgen-api/internal/credential"
)

// Defaults for the call engine. The race width matches the original
// system's cap of three concurrent keys per raced call.
const (
	defaultMaxRetries  = 3
	defaultMaxParallel = 5
	raceWidth          = 3
	fallbackWidth      = 3
)

// ClientConfig tunes the credential-rotating call engine.
type ClientConfig struct {
	// CallTimeout bounds a first attempt and the overall race window.
	CallTimeout time.Duration

	// RetryTimeout bounds every attempt after the first; it is shorter so
	// a slow provider cannot stall the remaining attempts.
	RetryTimeout time.Duration

	// MaxRetries is the number of sequential attempts per call.
	MaxRetries int

	// MaxParallel caps how many batch items are dispatched concurrently.
	MaxParallel int

	// EnableFastFailover races up to three credentials per call and keeps
	// the first success. Only effective with two or more credentials.
	EnableFastFailover bool
}

// Client implements Generator over a vendor Backend and a credential
// pool. It owns timeout selection, error classification, pool feedback,
// fast-failover racing, and batched dispatch; the backend only knows how
// to make one call with one key.
type Client struct {
	backend Backend
	pool    *credential.Pool
	cfg     ClientConfig
	logger  *slog.Logger
}

// NewClient creates a call engine over the given backend and pool.
func NewClient(backend Backend, pool *credential.Pool, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend cannot be nil", ErrInvalidConfig)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: credential pool cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	if cfg.CallTimeout <= 0 || cfg.RetryTimeout <= 0 {
		return nil, fmt.Errorf("%w: call and retry timeouts must be positive", ErrInvalidConfig)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = defaultMaxParallel
	}

	return &Client{
		backend: backend,
		pool:    pool,
		cfg:     cfg,
		logger:  logger.With("component", "generation_client", "provider", backend.Name()),
	}, nil
}

// Generate implements Generator.Generate.
func (c *Client) Generate(ctx context.Context, p Params) (*Result, error) {
	if c.cfg.EnableFastFailover && c.pool.Size() > 1 {
		return c.generateRacing(ctx, p)
	}
	return c.generateSequential(ctx, p)
}

// generateSequential loops up to MaxRetries attempts. Each attempt
// acquires one credential, calls under the attempt's timeout, and on
// failure classifies the error and reports it to the pool before moving
// on.
func (c *Client) generateSequential(ctx context.Context, p Params) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		key, ok := c.pool.AcquireOne()
		if !ok {
			return nil, ErrNoCredentials
		}

		timeout := c.cfg.CallTimeout
		if attempt > 0 {
			timeout = c.cfg.RetryTimeout
		}

		res, err := c.invokeOnce(ctx, key, p, timeout)
		if err == nil {
			c.pool.ReportSuccess(key)
			return res, nil
		}

		kind := Classify(err)
		c.pool.ReportFailure(key, kind)
		lastErr = err

		c.logger.WarnContext(ctx, "generation attempt failed",
			"attempt", attempt+1,
			"max_attempts", c.cfg.MaxRetries,
			"failure_kind", string(kind),
			"error", err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrAllAttemptsFailed, lastErr)
}

// raceOutcome carries one raced attempt's result back to the selector.
type raceOutcome struct {
	key string
	res *Result
	err error
}

// generateRacing issues the same call concurrently against up to three
// credentials and keeps the first success, cancelling the rest. Losers
// are not penalized unless they errored before cancellation. If the race
// window closes with no winner, it falls back to sequential attempts over
// untried credentials.
func (c *Client) generateRacing(ctx context.Context, p Params) (*Result, error) {
	raced := c.pool.AcquireMany(raceWidth)
	if len(raced) == 0 {
		return nil, ErrNoCredentials
	}

	raceCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	results := make(chan raceOutcome, len(raced))
	for _, key := range raced {
		go func(k string) {
			res, err := c.invokeOnce(raceCtx, k, p, c.cfg.CallTimeout)
			results <- raceOutcome{key: k, res: res, err: err}
		}(key)
	}

	var lastErr error
	pending := len(raced)

	for pending > 0 {
		select {
		case out := <-results:
			pending--
			if out.err == nil {
				c.pool.ReportSuccess(out.key)
				cancel()
				return out.res, nil
			}
			// Attempts cut short by the winner's cancellation or the race
			// window are not credential failures.
			if errors.Is(out.err, context.Canceled) || raceCtx.Err() != nil {
				continue
			}
			kind := Classify(out.err)
			c.pool.ReportFailure(out.key, kind)
			lastErr = out.err
			c.logger.WarnContext(ctx, "raced attempt failed",
				"failure_kind", string(kind), "error", out.err)
		case <-raceCtx.Done():
			// Race window exhausted; leave in-flight attempts to drain into
			// the buffered channel and move on to the fallback.
			pending = 0
		}
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllAttemptsFailed, ctx.Err())
	}

	res, err := c.fallbackSequential(ctx, p, raced)
	if err == nil {
		return res, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrAllAttemptsFailed, lastErr)
}

// fallbackSequential tries up to three available credentials that did not
// take part in the race, each under the retry timeout.
func (c *Client) fallbackSequential(ctx context.Context, p Params, raced []string) (*Result, error) {
	tried := make(map[string]bool, len(raced))
	for _, k := range raced {
		tried[k] = true
	}

	var remaining []string
	for _, k := range c.pool.AcquireMany(c.pool.Size()) {
		if !tried[k] {
			remaining = append(remaining, k)
		}
	}
	if len(remaining) > fallbackWidth {
		remaining = remaining[:fallbackWidth]
	}

	var lastErr error = ErrNoCredentials
	for _, key := range remaining {
		res, err := c.invokeOnce(ctx, key, p, c.cfg.RetryTimeout)
		if err == nil {
			c.pool.ReportSuccess(key)
			return res, nil
		}
		c.pool.ReportFailure(key, Classify(err))
		lastErr = err
	}

	return nil, lastErr
}

// GenerateBatch implements Generator.GenerateBatch. Input items are
// partitioned into groups no larger than min(MaxParallel, credential
// count); within a group every item gets its own credential, wrapping
// round-robin when the group outnumbers the available keys. A failed item
// yields an error outcome without affecting its group, and outcomes keep
// input order.
func (c *Client) GenerateBatch(ctx context.Context, params []Params) []Outcome {
	outcomes := make([]Outcome, len(params))
	if len(params) == 0 {
		return outcomes
	}

	groupSize := c.cfg.MaxParallel
	if size := c.pool.Size(); size < groupSize {
		groupSize = size
	}
	if groupSize < 1 {
		groupSize = 1
	}

	for start := 0; start < len(params); start += groupSize {
		end := start + groupSize
		if end > len(params) {
			end = len(params)
		}

		keys := c.pool.AcquireMany(end - start)
		if len(keys) == 0 {
			for i := start; i < end; i++ {
				outcomes[i] = Outcome{Err: ErrNoCredentials}
			}
			continue
		}

		var wg sync.WaitGroup
		for j := start; j < end; j++ {
			wg.Add(1)
			go func(idx int, key string) {
				defer wg.Done()

				res, err := c.invokeOnce(ctx, key, params[idx], c.cfg.CallTimeout)
				if err != nil {
					c.pool.ReportFailure(key, Classify(err))
					outcomes[idx] = Outcome{Err: err}
					c.logger.WarnContext(ctx, "batch item failed",
						"item", idx, "error", err)
					return
				}

				c.pool.ReportSuccess(key)
				outcomes[idx] = Outcome{Result: res}
			}(j, keys[(j-start)%len(keys)])
		}
		wg.Wait()
	}

	return outcomes
}

// invokeOnce performs a single backend call under its own deadline and
// decodes the response. A local deadline hit is normalized to ErrTimeout
// so classification treats it like a provider-reported timeout. Decode
// failures are absorbed: an empty question list contributes to shortfall
// instead of failing the call.
func (c *Client) invokeOnce(ctx context.Context, key string, p Params, timeout time.Duration) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	call, err := c.backend.Invoke(callCtx, key, p)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, err)
		}
		return nil, err
	}

	questions := Decode(c.logger, []byte(call.RawText), p.Count)

	return &Result{
		Questions: questions,
		Usage:     call.Usage,
		Duration:  duration,
	}, nil
}
