package settings_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pwm-project/pwm-admin/internal/admin/settings"
)

type stubService struct {
	mu     sync.Mutex
	reads  atomic.Int32
	writes atomic.Int32
	resets atomic.Int32

	readFn  func(key string) (*settings.Record, error)
	writeFn func(key string, value settings.Value) (*settings.Record, error)
	resetFn func(key string) error

	written []settings.Value
}

func (s *stubService) ReadSetting(_ context.Context, _ string, key string) (*settings.Record, error) {
	s.reads.Add(1)
	if s.readFn == nil {
		return nil, errors.New("unexpected read")
	}
	return s.readFn(key)
}

func (s *stubService) WriteSetting(_ context.Context, _ string, key string, value settings.Value) (*settings.Record, error) {
	s.writes.Add(1)
	s.mu.Lock()
	s.written = append(s.written, value)
	s.mu.Unlock()
	if s.writeFn == nil {
		return nil, errors.New("unexpected write")
	}
	return s.writeFn(key, value)
}

func (s *stubService) ResetSetting(_ context.Context, _ string, key string) error {
	s.resets.Add(1)
	if s.resetFn == nil {
		return errors.New("unexpected reset")
	}
	return s.resetFn(key)
}

func (s *stubService) ListModified(context.Context, string) ([]string, error) {
	return nil, nil
}

func echoWrite(key string, value settings.Value) (*settings.Record, error) {
	rec := &settings.Record{Key: key, Modified: true}
	if value != nil {
		rec.Syntax = value.Syntax()
		rec.Value = value.Clone()
	}
	return rec, nil
}

func awaitResult(t *testing.T, ch <-chan settings.WriteResult) settings.WriteResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for write result")
		return settings.WriteResult{}
	}
}

func TestReadCoalescesConcurrentFetches(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			<-release
			return &settings.Record{
				Key:    key,
				Syntax: settings.SyntaxNumeric,
				Value:  settings.NumericValue(8),
			}, nil
		},
	}
	store := settings.NewStore(svc)

	const workers = 6
	var wg sync.WaitGroup
	results := make([]*settings.Record, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Read(context.Background(), "tok", "password.policy.minimumLength")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, settings.NumericValue(8), results[i].Value)
	}
	require.Equal(t, int32(1), svc.reads.Load(), "concurrent reads must share one fetch")
}

func TestReadReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			return &settings.Record{
				Key:    key,
				Syntax: settings.SyntaxStringArray,
				Value:  settings.StringListValue{"a", "b"},
			}, nil
		},
	}
	store := settings.NewStore(svc)

	first, err := store.Read(context.Background(), "tok", "ldap.serverUrls")
	require.NoError(t, err)
	first.Value.(settings.StringListValue)[0] = "mutated"

	second, err := store.Read(context.Background(), "tok", "ldap.serverUrls")
	require.NoError(t, err)
	require.Equal(t, settings.StringListValue{"a", "b"}, second.Value)
	require.Equal(t, int32(1), svc.reads.Load())
}

func TestWriteStagesValueBeforeAck(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := &stubService{
		writeFn: func(key string, value settings.Value) (*settings.Record, error) {
			<-release
			return echoWrite(key, value)
		},
	}
	store := settings.NewStore(svc)

	done := make(chan settings.WriteResult, 1)
	store.Write(context.Background(), "tok", "password.policy.minimumLength", settings.NumericValue(12), func(r settings.WriteResult) {
		done <- r
	})

	// The value must be visible before the server acknowledges.
	cached, ok := store.Cached("password.policy.minimumLength")
	require.True(t, ok)
	require.Equal(t, settings.NumericValue(12), cached.Value)
	require.True(t, cached.Modified)

	state, stateErr := store.State("password.policy.minimumLength")
	require.Equal(t, settings.StatePending, state)
	require.NoError(t, stateErr)
	require.Equal(t, int32(0), svc.reads.Load(), "optimistic read must not touch the network")

	close(release)
	res := awaitResult(t, done)
	require.NoError(t, res.Err)
	require.False(t, res.Conflict)

	state, _ = store.State("password.policy.minimumLength")
	require.Equal(t, settings.StateSynced, state)
}

func TestWritesToOneKeyAreSerialized(t *testing.T) {
	t.Parallel()

	firstEntered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc := &stubService{
		writeFn: func(key string, value settings.Value) (*settings.Record, error) {
			once.Do(func() {
				close(firstEntered)
				<-release
			})
			return echoWrite(key, value)
		},
	}
	store := settings.NewStore(svc)

	first := make(chan settings.WriteResult, 1)
	second := make(chan settings.WriteResult, 1)
	store.Write(context.Background(), "tok", "ldap.naming.attribute", settings.StringValue("cn"), func(r settings.WriteResult) {
		first <- r
	})
	<-firstEntered
	store.Write(context.Background(), "tok", "ldap.naming.attribute", settings.StringValue("uid"), func(r settings.WriteResult) {
		second <- r
	})
	close(release)

	require.NoError(t, awaitResult(t, first).Err)
	require.NoError(t, awaitResult(t, second).Err)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	require.Equal(t, []settings.Value{settings.StringValue("cn"), settings.StringValue("uid")}, svc.written)

	cached, ok := store.Cached("ldap.naming.attribute")
	require.True(t, ok)
	require.Equal(t, settings.StringValue("uid"), cached.Value)
}

func TestWriteFailureKeepsOptimisticValue(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		writeFn: func(string, settings.Value) (*settings.Record, error) {
			return nil, &settings.ServerError{StatusCode: 422, Code: "value_negative", Message: "must be positive"}
		},
	}
	store := settings.NewStore(svc)

	done := make(chan settings.WriteResult, 1)
	store.Write(context.Background(), "tok", "password.policy.minimumLength", settings.NumericValue(3), func(r settings.WriteResult) {
		done <- r
	})

	res := awaitResult(t, done)
	require.Error(t, res.Err)
	require.True(t, settings.IsValidationError(res.Err))

	cached, ok := store.Cached("password.policy.minimumLength")
	require.True(t, ok)
	require.Equal(t, settings.NumericValue(3), cached.Value, "rejected value stays cached as unsaved")

	state, stateErr := store.State("password.policy.minimumLength")
	require.Equal(t, settings.StateFailed, state)
	require.Error(t, stateErr)
}

func TestAckConflictAdoptsServerValue(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		writeFn: func(key string, _ settings.Value) (*settings.Record, error) {
			// The server normalised the submitted value.
			return &settings.Record{
				Key:      key,
				Syntax:   settings.SyntaxString,
				Value:    settings.StringValue("ldaps://ldap.example.com:636"),
				Modified: true,
			}, nil
		},
	}
	store := settings.NewStore(svc)

	done := make(chan settings.WriteResult, 1)
	store.Write(context.Background(), "tok", "ldap.proxy.url", settings.StringValue("LDAPS://LDAP.EXAMPLE.COM"), func(r settings.WriteResult) {
		done <- r
	})

	res := awaitResult(t, done)
	require.NoError(t, res.Err)
	require.True(t, res.Conflict)

	cached, ok := store.Cached("ldap.proxy.url")
	require.True(t, ok)
	require.Equal(t, settings.StringValue("ldaps://ldap.example.com:636"), cached.Value)

	state, _ := store.State("ldap.proxy.url")
	require.Equal(t, settings.StateSynced, state)
}

func TestLocaleWriteVisibleWithoutRefetch(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			return &settings.Record{
				Key:    key,
				Syntax: settings.SyntaxEmailLocaleMap,
				Value: settings.EmailLocaleMap{
					settings.DefaultLocale: {Subject: "Password changed"},
				},
			}, nil
		},
		writeFn: func(key string, value settings.Value) (*settings.Record, error) {
			<-release
			return echoWrite(key, value)
		},
	}
	store := settings.NewStore(svc)

	done := make(chan settings.WriteResult, 1)
	err := store.PutEmailLocale(context.Background(), "tok", "email.changePassword", "de", settings.EmailTemplate{Subject: "Passwort geändert"}, func(r settings.WriteResult) {
		done <- r
	})
	require.NoError(t, err)

	rec, err := store.Read(context.Background(), "tok", "email.changePassword")
	require.NoError(t, err)
	m, ok := rec.Value.(settings.EmailLocaleMap)
	require.True(t, ok)
	require.Contains(t, m, "de")
	require.Contains(t, m, settings.DefaultLocale)
	require.Equal(t, int32(1), svc.reads.Load(), "read after write must come from cache")

	close(release)
	require.NoError(t, awaitResult(t, done).Err)
}

func TestDuplicateLocaleRejectedWithoutWrite(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			return &settings.Record{
				Key:    key,
				Syntax: settings.SyntaxEmailLocaleMap,
				Value: settings.EmailLocaleMap{
					settings.DefaultLocale: {Subject: "Password changed"},
					"de":                   {Subject: "Passwort geändert"},
				},
			}, nil
		},
	}
	store := settings.NewStore(svc)

	err := store.PutEmailLocale(context.Background(), "tok", "email.changePassword", "de", settings.EmailTemplate{Subject: "other"}, nil)
	require.ErrorIs(t, err, settings.ErrLocaleExists)
	require.Equal(t, int32(0), svc.writes.Load(), "rejected locale add must not reach the server")

	rec, err := store.Read(context.Background(), "tok", "email.changePassword")
	require.NoError(t, err)
	require.Equal(t, settings.EmailTemplate{Subject: "Passwort geändert"}, rec.Value.(settings.EmailLocaleMap)["de"])
}

func TestRowOperations(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			return &settings.Record{
				Key:    key,
				Syntax: settings.SyntaxStringArray,
				Value:  settings.StringListValue{"one", "two", "three"},
			}, nil
		},
		writeFn: echoWrite,
	}
	store := settings.NewStore(svc)
	ctx := context.Background()

	done := make(chan settings.WriteResult, 1)
	require.NoError(t, store.MoveRow(ctx, "tok", "ldap.serverUrls", 2, -1, func(r settings.WriteResult) { done <- r }))
	require.NoError(t, awaitResult(t, done).Err)

	cached, ok := store.Cached("ldap.serverUrls")
	require.True(t, ok)
	require.Equal(t, settings.StringListValue{"one", "three", "two"}, cached.Value)

	require.NoError(t, store.DeleteRow(ctx, "tok", "ldap.serverUrls", 0, func(r settings.WriteResult) { done <- r }))
	require.NoError(t, awaitResult(t, done).Err)

	require.NoError(t, store.AddRow(ctx, "tok", "ldap.serverUrls", "four", func(r settings.WriteResult) { done <- r }))
	require.NoError(t, awaitResult(t, done).Err)

	cached, ok = store.Cached("ldap.serverUrls")
	require.True(t, ok)
	require.Equal(t, settings.StringListValue{"three", "two", "four"}, cached.Value)

	err := store.DeleteRow(ctx, "tok", "ldap.serverUrls", 9, nil)
	require.ErrorIs(t, err, settings.ErrRowIndex)
	err = store.MoveRow(ctx, "tok", "ldap.serverUrls", 0, -1, nil)
	require.ErrorIs(t, err, settings.ErrRowIndex)
}

func TestResetQueuedBehindInFlightWrite(t *testing.T) {
	t.Parallel()

	writeEntered := make(chan struct{})
	release := make(chan struct{})
	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			return &settings.Record{Key: key, Syntax: settings.SyntaxNumeric, Value: settings.NumericValue(8)}, nil
		},
		writeFn: func(key string, value settings.Value) (*settings.Record, error) {
			close(writeEntered)
			<-release
			return echoWrite(key, value)
		},
		resetFn: func(string) error { return nil },
	}
	store := settings.NewStore(svc)
	ctx := context.Background()

	written := make(chan settings.WriteResult, 1)
	store.Write(ctx, "tok", "password.policy.minimumLength", settings.NumericValue(12), func(r settings.WriteResult) {
		written <- r
	})
	<-writeEntered

	// Reset while the write is still on the wire. It must wait its turn in
	// the key's queue, and the late write ack must not repopulate the entry.
	resetDone := make(chan error, 1)
	store.Reset(ctx, "tok", "password.policy.minimumLength", func(err error) { resetDone <- err })
	close(release)

	require.NoError(t, awaitResult(t, written).Err)
	select {
	case err := <-resetDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reset")
	}

	_, ok := store.Cached("password.policy.minimumLength")
	require.False(t, ok, "write ack must not outlive the reset")

	state, stateErr := store.State("password.policy.minimumLength")
	require.Equal(t, settings.StateSynced, state)
	require.NoError(t, stateErr)

	rec, err := store.Read(ctx, "tok", "password.policy.minimumLength")
	require.NoError(t, err)
	require.Equal(t, settings.NumericValue(8), rec.Value)
	require.Equal(t, int32(1), svc.reads.Load(), "read after reset must refetch")
}

func TestInvalidateDuringWriteSkipsAckAdoption(t *testing.T) {
	t.Parallel()

	writeEntered := make(chan struct{})
	release := make(chan struct{})
	svc := &stubService{
		writeFn: func(key string, value settings.Value) (*settings.Record, error) {
			close(writeEntered)
			<-release
			return echoWrite(key, value)
		},
	}
	store := settings.NewStore(svc)

	done := make(chan settings.WriteResult, 1)
	store.Write(context.Background(), "tok", "challenge.minRandomRequired", settings.NumericValue(3), func(r settings.WriteResult) {
		done <- r
	})
	<-writeEntered

	store.Invalidate("challenge.minRandomRequired")
	close(release)

	res := awaitResult(t, done)
	require.NoError(t, res.Err)

	_, ok := store.Cached("challenge.minRandomRequired")
	require.False(t, ok, "ack must not repopulate an invalidated entry")
}

func TestResetInvalidatesCache(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		readFn: func(key string) (*settings.Record, error) {
			return &settings.Record{Key: key, Syntax: settings.SyntaxBoolean, Value: settings.BooleanValue(true)}, nil
		},
		resetFn: func(string) error { return nil },
	}
	store := settings.NewStore(svc)
	ctx := context.Background()

	_, err := store.Read(ctx, "tok", "challenge.enable")
	require.NoError(t, err)

	done := make(chan error, 1)
	store.Reset(ctx, "tok", "challenge.enable", func(err error) { done <- err })
	require.NoError(t, <-done)

	_, ok := store.Cached("challenge.enable")
	require.False(t, ok, "reset must drop the cached value")

	_, err = store.Read(ctx, "tok", "challenge.enable")
	require.NoError(t, err)
	require.Equal(t, int32(2), svc.reads.Load(), "read after reset must refetch")
}
