package ui

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

const verdictWait = 5 * time.Second

// sessionValidator adapts the callback-driven validation client to the
// request/response shape of the fragment handlers. One instance serves one
// session's password form.
type sessionValidator struct {
	client  *validation.Client
	results chan validation.Outcome

	mu   sync.Mutex
	snap validation.Snapshot
}

func newSessionValidator(svc validation.Service, logger *zap.Logger) (*sessionValidator, error) {
	v := &sessionValidator{
		results: make(chan validation.Outcome, 8),
	}
	client, err := validation.NewClient(svc, validation.Config{
		ReadForm: v.readForm,
		OnResult: v.deliver,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	v.client = client
	return v, nil
}

func (v *sessionValidator) readForm() validation.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap.Clone()
}

func (v *sessionValidator) deliver(out validation.Outcome) {
	select {
	case v.results <- out:
	default:
	}
}

// Reset clears the verdict cache, for use after a successful change.
func (v *sessionValidator) Reset() {
	v.client.Reset()
}

// Check validates the snapshot and waits for its verdict. Verdicts for
// superseded form states are discarded.
func (v *sessionValidator) Check(ctx context.Context, token string, snap validation.Snapshot) (validation.Outcome, error) {
	v.mu.Lock()
	v.snap = snap.Clone()
	v.mu.Unlock()

	fp := snap.Fingerprint()

drainStale:
	for {
		select {
		case <-v.results:
		default:
			break drainStale
		}
	}

	v.client.Validate(ctx, token)

	timer := time.NewTimer(verdictWait)
	defer timer.Stop()
	for {
		select {
		case out := <-v.results:
			if out.Fingerprint != fp {
				continue
			}
			return out, nil
		case <-ctx.Done():
			return validation.Outcome{}, ctx.Err()
		case <-timer.C:
			return validation.Outcome{}, context.DeadlineExceeded
		}
	}
}
