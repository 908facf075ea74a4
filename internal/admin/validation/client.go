package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultWaitThreshold = 1 * time.Second
	defaultTimeout       = 15 * time.Second
)

// Phase describes the client's visible activity, for "checking..." hints.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
)

// Outcome is delivered to OnResult for every completed validation: either a
// server verdict or a structured error, never both.
type Outcome struct {
	Fingerprint string
	Response    *Response
	Err         error
	// FromCache marks verdicts answered without a network request.
	FromCache bool
}

// Config wires a Client to its form.
type Config struct {
	// ReadForm captures the current form field values. Required.
	ReadForm func() Snapshot
	// OnResult receives every validation outcome. Required.
	OnResult func(Outcome)
	// OnStatus is notified when a request outlives WaitThreshold
	// (PhaseChecking) and again on completion (PhaseIdle). Invoked with the
	// client lock held, so it must not call back into the Client. Optional.
	OnStatus func(Phase)
	// DisableCache turns off the fingerprint response cache.
	DisableCache bool
	// WaitThreshold is how long a request may run before PhaseChecking is
	// raised. Defaults to 1s.
	WaitThreshold time.Duration
	// Timeout bounds each validation request. Defaults to 15s. Expiry is
	// delivered through OnResult as an error outcome.
	Timeout time.Duration
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Client debounces remote validation for one form instance. At most one
// request is in flight; calls made while a request runs either coalesce (same
// form state) or mark the flight stale so the latest state is re-checked when
// it completes. Do not share a Client between forms.
type Client struct {
	svc    Service
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	cache    map[string]*Response
	inFlight bool
	current  string
	stale    bool
}

// NewClient constructs a validator over the given backend service.
func NewClient(svc Service, cfg Config) (*Client, error) {
	if svc == nil {
		return nil, ErrNotConfigured
	}
	if cfg.ReadForm == nil {
		return nil, errors.New("validation: ReadForm callback is required")
	}
	if cfg.OnResult == nil {
		return nil, errors.New("validation: OnResult callback is required")
	}
	if cfg.WaitThreshold <= 0 {
		cfg.WaitThreshold = defaultWaitThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		cache:  make(map[string]*Response),
	}, nil
}

// Validate reads the form and ensures a verdict for its current state will
// be delivered to OnResult. Cache hits answer synchronously without a
// request; otherwise a request is started unless an equivalent one is
// already in flight.
func (c *Client) Validate(ctx context.Context, token string) {
	snap := c.cfg.ReadForm().Clone()
	fp := snap.Fingerprint()

	c.mu.Lock()
	if !c.cfg.DisableCache {
		if resp, ok := c.cache[fp]; ok {
			c.mu.Unlock()
			c.cfg.OnResult(Outcome{Fingerprint: fp, Response: resp, FromCache: true})
			return
		}
	}
	if c.inFlight {
		if fp != c.current {
			// The form moved on; the running request is now stale and
			// its verdict must not be shown.
			c.stale = true
		}
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.current = fp
	c.stale = false
	c.mu.Unlock()

	go c.run(ctx, token, snap, fp)
}

// Reset clears the response cache, e.g. after the server-side policy
// changed.
func (c *Client) Reset() {
	c.mu.Lock()
	c.cache = make(map[string]*Response)
	c.mu.Unlock()
}

func (c *Client) run(ctx context.Context, token string, snap Snapshot, fp string) {
	// Phase transitions happen under the client mutex so the threshold timer
	// can never raise PhaseChecking after the result path has settled: once
	// finished is set the timer callback is a no-op, and a raised phase is
	// always cleared by a PhaseIdle under the same lock.
	var timer *time.Timer
	checking, finished := false, false
	if c.cfg.OnStatus != nil {
		timer = time.AfterFunc(c.cfg.WaitThreshold, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if finished {
				return
			}
			checking = true
			c.cfg.OnStatus(PhaseChecking)
		})
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	resp, err := c.svc.CheckForm(rctx, token, snap)
	cancel()

	if timer != nil {
		timer.Stop()
		c.mu.Lock()
		finished = true
		if checking {
			c.cfg.OnStatus(PhaseIdle)
		}
		c.mu.Unlock()
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("validation: request timed out after %s: %w", c.cfg.Timeout, err)
		}
		c.logger.Debug("form validation request failed", zap.Error(err))
	}

	c.mu.Lock()
	if err == nil && !c.cfg.DisableCache {
		c.cache[fp] = resp
	}
	stale := c.stale
	c.stale = false
	if !stale {
		c.inFlight = false
		c.current = ""
		c.mu.Unlock()
		c.cfg.OnResult(Outcome{Fingerprint: fp, Response: resp, Err: err})
		return
	}
	c.mu.Unlock()

	// Superseded while in flight: drop this verdict and re-check against a
	// fresh read of the form. The latest state always wins.
	next := c.cfg.ReadForm().Clone()
	nfp := next.Fingerprint()

	c.mu.Lock()
	if !c.cfg.DisableCache {
		if cached, ok := c.cache[nfp]; ok {
			c.inFlight = false
			c.current = ""
			c.mu.Unlock()
			c.cfg.OnResult(Outcome{Fingerprint: nfp, Response: cached, FromCache: true})
			return
		}
	}
	c.current = nfp
	c.mu.Unlock()

	c.run(ctx, token, next, nfp)
}
