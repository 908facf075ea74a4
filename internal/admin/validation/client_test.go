package validation_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

type scriptedService struct {
	calls atomic.Int32
	fn    func(ctx context.Context, form validation.Snapshot) (*validation.Response, error)
}

func (s *scriptedService) CheckForm(ctx context.Context, _ string, form validation.Snapshot) (*validation.Response, error) {
	s.calls.Add(1)
	return s.fn(ctx, form)
}

type formState struct {
	mu   sync.Mutex
	snap validation.Snapshot
}

func (f *formState) set(snap validation.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func (f *formState) read() validation.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Clone()
}

func awaitOutcome(t *testing.T, ch <-chan validation.Outcome) validation.Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for validation outcome")
		return validation.Outcome{}
	}
}

func TestCacheHitSkipsRequest(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		fn: func(_ context.Context, _ validation.Snapshot) (*validation.Response, error) {
			return &validation.Response{Passed: true, Strength: 80, Match: validation.MatchOK}, nil
		},
	}
	form := &formState{snap: validation.Snapshot{"password1": "correct horse", "password2": "correct horse"}}
	results := make(chan validation.Outcome, 4)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm: form.read,
		OnResult: func(o validation.Outcome) { results <- o },
	})
	require.NoError(t, err)

	client.Validate(context.Background(), "tok")
	first := awaitOutcome(t, results)
	require.NoError(t, first.Err)
	require.False(t, first.FromCache)

	// Identical form state: answered from cache, no second request.
	client.Validate(context.Background(), "tok")
	second := awaitOutcome(t, results)
	require.True(t, second.FromCache)
	require.Equal(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, first.Response, second.Response)
	require.Equal(t, int32(1), svc.calls.Load())
}

func TestStaleResponseDiscardedAndRevalidated(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := &scriptedService{}
	svc.fn = func(_ context.Context, form validation.Snapshot) (*validation.Response, error) {
		if form["password1"] == "first" {
			<-release
			return &validation.Response{Passed: false, Message: "stale verdict", Strength: 10}, nil
		}
		return &validation.Response{Passed: true, Message: "fresh verdict", Strength: 90, Match: validation.MatchOK}, nil
	}

	form := &formState{snap: validation.Snapshot{"password1": "first", "password2": "first"}}
	results := make(chan validation.Outcome, 4)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm: form.read,
		OnResult: func(o validation.Outcome) { results <- o },
	})
	require.NoError(t, err)

	client.Validate(context.Background(), "tok")
	time.Sleep(20 * time.Millisecond)

	// The form moves on while the first request is still in flight.
	form.set(validation.Snapshot{"password1": "second", "password2": "second"})
	client.Validate(context.Background(), "tok")

	close(release)

	outcome := awaitOutcome(t, results)
	require.NoError(t, outcome.Err)
	require.Equal(t, "fresh verdict", outcome.Response.Message, "superseded verdict must never surface")

	select {
	case extra := <-results:
		require.Equal(t, "fresh verdict", extra.Response.Message)
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, int32(2), svc.calls.Load())
}

func TestDuplicateInFlightCallIgnored(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := &scriptedService{
		fn: func(_ context.Context, _ validation.Snapshot) (*validation.Response, error) {
			<-release
			return &validation.Response{Passed: true, Strength: 70}, nil
		},
	}
	form := &formState{snap: validation.Snapshot{"password1": "abcdefgh", "password2": "abcdefgh"}}
	results := make(chan validation.Outcome, 4)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm: form.read,
		OnResult: func(o validation.Outcome) { results <- o },
	})
	require.NoError(t, err)

	client.Validate(context.Background(), "tok")
	time.Sleep(20 * time.Millisecond)
	client.Validate(context.Background(), "tok")
	close(release)

	awaitOutcome(t, results)
	select {
	case <-results:
		t.Fatal("coalesced call must not deliver a second outcome")
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, int32(1), svc.calls.Load())
}

func TestCheckingStatusRaisedForSlowRequests(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		fn: func(_ context.Context, _ validation.Snapshot) (*validation.Response, error) {
			time.Sleep(150 * time.Millisecond)
			return &validation.Response{Passed: true, Strength: 60}, nil
		},
	}
	form := &formState{snap: validation.Snapshot{"password1": "abcdefgh"}}
	results := make(chan validation.Outcome, 1)
	phases := make(chan validation.Phase, 4)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm:      form.read,
		OnResult:      func(o validation.Outcome) { results <- o },
		OnStatus:      func(p validation.Phase) { phases <- p },
		WaitThreshold: 30 * time.Millisecond,
	})
	require.NoError(t, err)

	client.Validate(context.Background(), "tok")

	select {
	case p := <-phases:
		require.Equal(t, validation.PhaseChecking, p)
	case <-time.After(time.Second):
		t.Fatal("expected checking status for slow request")
	}

	awaitOutcome(t, results)
	select {
	case p := <-phases:
		require.Equal(t, validation.PhaseIdle, p)
	case <-time.After(time.Second):
		t.Fatal("expected idle status after completion")
	}
}

func TestCheckingStatusNeverOutlivesResult(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		fn: func(_ context.Context, _ validation.Snapshot) (*validation.Response, error) {
			time.Sleep(time.Millisecond)
			return &validation.Response{Passed: true, Strength: 55}, nil
		},
	}
	form := &formState{}
	results := make(chan validation.Outcome, 1)
	phases := make(chan validation.Phase, 8)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm:      form.read,
		OnResult:      func(o validation.Outcome) { results <- o },
		OnStatus:      func(p validation.Phase) { phases <- p },
		DisableCache:  true,
		WaitThreshold: time.Millisecond,
	})
	require.NoError(t, err)

	// The threshold timer and the request finish in a photo finish each
	// round. Whatever the interleaving, a raised checking hint must be
	// cleared before the verdict lands, never raised after it.
	for i := 0; i < 200; i++ {
		form.set(validation.Snapshot{"password1": fmt.Sprintf("candidate-%d", i)})
		client.Validate(context.Background(), "tok")
		awaitOutcome(t, results)

		var seen []validation.Phase
	drained:
		for {
			select {
			case p := <-phases:
				seen = append(seen, p)
			default:
				break drained
			}
		}
		switch len(seen) {
		case 0:
		case 2:
			require.Equal(t, validation.PhaseChecking, seen[0])
			require.Equal(t, validation.PhaseIdle, seen[1])
		default:
			t.Fatalf("unbalanced status sequence: %v", seen)
		}
	}
}

func TestTimeoutDeliveredAsErrorOutcome(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		fn: func(ctx context.Context, _ validation.Snapshot) (*validation.Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	form := &formState{snap: validation.Snapshot{"password1": "abcdefgh"}}
	results := make(chan validation.Outcome, 1)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm: form.read,
		OnResult: func(o validation.Outcome) { results <- o },
		Timeout:  50 * time.Millisecond,
	})
	require.NoError(t, err)

	client.Validate(context.Background(), "tok")
	outcome := awaitOutcome(t, results)
	require.Error(t, outcome.Err)
	require.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	require.Nil(t, outcome.Response)
}

func TestResetClearsCache(t *testing.T) {
	t.Parallel()

	svc := &scriptedService{
		fn: func(_ context.Context, _ validation.Snapshot) (*validation.Response, error) {
			return &validation.Response{Passed: true, Strength: 50}, nil
		},
	}
	form := &formState{snap: validation.Snapshot{"password1": "abcdefgh"}}
	results := make(chan validation.Outcome, 2)

	client, err := validation.NewClient(svc, validation.Config{
		ReadForm: form.read,
		OnResult: func(o validation.Outcome) { results <- o },
	})
	require.NoError(t, err)

	client.Validate(context.Background(), "tok")
	awaitOutcome(t, results)

	client.Reset()

	client.Validate(context.Background(), "tok")
	outcome := awaitOutcome(t, results)
	require.False(t, outcome.FromCache)
	require.Equal(t, int32(2), svc.calls.Load())
}

func TestSnapshotFingerprintOrderIndependent(t *testing.T) {
	t.Parallel()

	a := validation.Snapshot{"password1": "x", "password2": "y"}
	b := validation.Snapshot{"password2": "y", "password1": "x"}
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.NotEqual(t, a.Fingerprint(), validation.Snapshot{"password1": "x", "password2": "z"}.Fingerprint())
	require.Empty(t, validation.Snapshot{}.Fingerprint())
}
