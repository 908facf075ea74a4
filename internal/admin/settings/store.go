package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SyncState describes how a cached entry relates to the server.
type SyncState int

const (
	// StateSynced means the cached value matches the last server ack.
	StateSynced SyncState = iota
	// StatePending means a write is staged or in flight.
	StatePending
	// StateFailed means the last write was rejected; the optimistic value
	// is still cached and unsaved.
	StateFailed
)

func (s SyncState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFailed:
		return "failed"
	default:
		return "synced"
	}
}

// ErrRowIndex indicates a list operation addressed a row that does not exist.
var ErrRowIndex = errors.New("settings: row index out of range")

// ErrNotList indicates a row operation on a setting that is not list-valued.
var ErrNotList = errors.New("settings: setting is not list-valued")

// ErrNotLocaleMap indicates a locale operation on a setting that is not
// locale-keyed.
var ErrNotLocaleMap = errors.New("settings: setting is not locale-keyed")

// WriteResult reports the outcome of one asynchronous write.
type WriteResult struct {
	Key string
	// Record is the server acknowledgment, when one was received.
	Record *Record
	// Conflict is set when the ack differed from the staged value and the
	// store adopted the server's version.
	Conflict bool
	// Err is a *ServerError for structured rejections, or a transport error.
	Err error
}

// pendingWrite is one queued operation for a key: a staged write, or a reset
// when reset is set. Resets share the queue so they cannot pass an in-flight
// write on the wire.
type pendingWrite struct {
	ctx       context.Context
	token     string
	value     Value
	done      func(WriteResult)
	reset     bool
	resetDone func(error)
}

type entry struct {
	record   *Record
	state    SyncState
	lastErr  error
	queue    []pendingWrite
	draining bool
}

// Store is a per-session configuration cache and sync engine. Reads of one
// key coalesce into a single fetch; writes stage their value immediately and
// drain to the server strictly in order per key. A Store must not be shared
// across editor sessions.
type Store struct {
	svc    Service
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	reads   singleflight.Group
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for write failures and conflicts.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore constructs a Store over the given backend service.
func NewStore(svc Service, opts ...StoreOption) *Store {
	s := &Store{
		svc:     svc,
		logger:  zap.NewNop(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns a deep copy of the record for the key, fetching it on a cache
// miss. Concurrent misses for the same key share one backend request.
func (s *Store) Read(ctx context.Context, token, key string) (*Record, error) {
	if s.svc == nil {
		return nil, ErrNotConfigured
	}

	s.mu.Lock()
	if e, ok := s.entries[key]; ok && e.record != nil {
		rec := e.record.Clone()
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()

	v, err, _ := s.reads.Do(key, func() (any, error) {
		rec, err := s.svc.ReadSetting(ctx, token, key)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		e, ok := s.entries[key]
		if !ok {
			e = &entry{}
			s.entries[key] = e
		}
		// A write may have staged a value while the fetch was in flight;
		// the staged value wins.
		if e.record == nil {
			e.record = rec.Clone()
		}
		stored := e.record.Clone()
		s.mu.Unlock()
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record).Clone(), nil
}

// Cached returns the cached record without touching the network.
func (s *Store) Cached(key string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.record == nil {
		return nil, false
	}
	return e.record.Clone(), true
}

// State reports the sync status of the key and, for failed entries, the
// error from the last attempt.
func (s *Store) State(key string) (SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return StateSynced, nil
	}
	return e.state, e.lastErr
}

// Write stages the value in the cache immediately and persists it
// asynchronously. Writes to one key are applied to the server strictly in
// call order. done (optional) fires once with the outcome, off the caller's
// goroutine unless the write short-circuits.
func (s *Store) Write(ctx context.Context, token, key string, value Value, done func(WriteResult)) {
	if s.svc == nil {
		if done != nil {
			done(WriteResult{Key: key, Err: ErrNotConfigured})
		}
		return
	}

	var staged Value
	if value != nil {
		staged = value.Clone()
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	rec := &Record{Key: key, Modified: true}
	if staged != nil {
		rec.Syntax = staged.Syntax()
		rec.Value = staged.Clone()
	} else if e.record != nil {
		rec.Syntax = e.record.Syntax
	}
	e.record = rec
	e.state = StatePending
	e.lastErr = nil
	e.queue = append(e.queue, pendingWrite{ctx: ctx, token: token, value: staged, done: done})
	if !e.draining {
		e.draining = true
		go s.drain(key)
	}
	s.mu.Unlock()
}

func (s *Store) drain(key string) {
	for {
		s.mu.Lock()
		e, ok := s.entries[key]
		if !ok || len(e.queue) == 0 {
			if ok {
				e.draining = false
			}
			s.mu.Unlock()
			return
		}
		pw := e.queue[0]
		e.queue = e.queue[1:]
		s.mu.Unlock()

		if pw.reset {
			s.applyReset(key, pw)
			continue
		}

		ack, err := s.svc.WriteSetting(pw.ctx, pw.token, key, pw.value)

		s.mu.Lock()
		e = s.entries[key]
		hasNewer := e != nil && len(e.queue) > 0

		var result WriteResult
		switch {
		case err != nil:
			result = WriteResult{Key: key, Err: err}
			if e != nil && !hasNewer {
				e.state = StateFailed
				e.lastErr = err
			}
			s.logger.Warn("setting write failed",
				zap.String("key", key),
				zap.Error(err))
		case hasNewer:
			// A newer value is already staged; this ack is superseded and
			// must not touch the cache.
			result = WriteResult{Key: key, Record: ack.Clone()}
		default:
			conflict := false
			if e != nil {
				// An entry invalidated since staging stays empty so the
				// next read refetches.
				if e.record != nil {
					conflict = !valueEqual(e.record.Value, ack.Value)
					e.record = ack.Clone()
				}
				e.state = StateSynced
				e.lastErr = nil
			}
			result = WriteResult{Key: key, Record: ack.Clone(), Conflict: conflict}
			if conflict {
				s.logger.Warn("setting write acknowledged with a different value",
					zap.String("key", key))
			}
		}
		s.mu.Unlock()

		if pw.done != nil {
			pw.done(result)
		}
	}
}

func (s *Store) applyReset(key string, pw pendingWrite) {
	err := s.svc.ResetSetting(pw.ctx, pw.token, key)

	s.mu.Lock()
	if e := s.entries[key]; e != nil && err == nil && len(e.queue) == 0 {
		// Drop the cached snapshot so the next read refetches. A write
		// staged after the reset keeps its optimistic value.
		e.record = nil
		e.state = StateSynced
		e.lastErr = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("setting reset failed",
			zap.String("key", key),
			zap.Error(err))
	}
	if pw.resetDone != nil {
		pw.resetDone(err)
	}
}

// Reset restores the key to its server default and invalidates the cache
// entry so the next read refetches. The reset goes through the per-key queue
// behind any staged writes, so it cannot race an in-flight write on the wire.
// done (optional) fires with the outcome, off the caller's goroutine.
func (s *Store) Reset(ctx context.Context, token, key string, done func(error)) {
	if s.svc == nil {
		if done != nil {
			done(ErrNotConfigured)
		}
		return
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.queue = append(e.queue, pendingWrite{ctx: ctx, token: token, reset: true, resetDone: done})
	if !e.draining {
		e.draining = true
		go s.drain(key)
	}
	s.mu.Unlock()
}

// Invalidate drops the cached value for the key. Pending writes keep their
// queue; only the cached snapshot is cleared.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	if !e.draining && len(e.queue) == 0 {
		delete(s.entries, key)
		return
	}
	e.record = nil
}

// Update applies a read-modify-write: it reads the record (cache or fetch),
// hands a private copy to mutate, and writes the returned value. Errors from
// mutate abort before anything is staged.
func (s *Store) Update(ctx context.Context, token, key string, mutate func(*Record) (Value, error), done func(WriteResult)) error {
	rec, err := s.Read(ctx, token, key)
	if err != nil {
		return err
	}
	next, err := mutate(rec)
	if err != nil {
		return err
	}
	s.Write(ctx, token, key, next, done)
	return nil
}

// AddRow appends a row to a list-valued setting and persists the full value.
func (s *Store) AddRow(ctx context.Context, token, key, row string, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		rows, _ := listRows(rec.Value)
		return makeList(rec.Syntax, append(rows, row))
	}, done)
}

// DeleteRow removes the row at index from a list-valued setting.
func (s *Store) DeleteRow(ctx context.Context, token, key string, index int, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		rows, ok := listRows(rec.Value)
		if !ok && rec.Value != nil {
			return nil, ErrNotList
		}
		if index < 0 || index >= len(rows) {
			return nil, fmt.Errorf("%w: %d of %d", ErrRowIndex, index, len(rows))
		}
		rows = append(rows[:index], rows[index+1:]...)
		return makeList(rec.Syntax, rows)
	}, done)
}

// MoveRow swaps the row at index with its neighbour in direction dir
// (-1 up, +1 down).
func (s *Store) MoveRow(ctx context.Context, token, key string, index, dir int, done func(WriteResult)) error {
	if dir != -1 && dir != 1 {
		return fmt.Errorf("settings: move direction must be -1 or 1, got %d", dir)
	}
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		rows, ok := listRows(rec.Value)
		if !ok && rec.Value != nil {
			return nil, ErrNotList
		}
		target := index + dir
		if index < 0 || index >= len(rows) || target < 0 || target >= len(rows) {
			return nil, fmt.Errorf("%w: %d -> %d of %d", ErrRowIndex, index, target, len(rows))
		}
		rows[index], rows[target] = rows[target], rows[index]
		return makeList(rec.Syntax, rows)
	}, done)
}

// PutEmailLocale adds a new locale template to an email setting. A duplicate
// locale aborts before anything is staged.
func (s *Store) PutEmailLocale(ctx context.Context, token, key, locale string, tmpl EmailTemplate, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		m, err := emailMap(rec)
		if err != nil {
			return nil, err
		}
		if err := m.Put(locale, tmpl); err != nil {
			return nil, err
		}
		return m, nil
	}, done)
}

// SetEmailLocale replaces (or creates) a locale template on an email setting.
func (s *Store) SetEmailLocale(ctx context.Context, token, key, locale string, tmpl EmailTemplate, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		m, err := emailMap(rec)
		if err != nil {
			return nil, err
		}
		if err := m.Set(locale, tmpl); err != nil {
			return nil, err
		}
		return m, nil
	}, done)
}

// PutChallengeLocale adds a new locale challenge list to a challenge setting.
func (s *Store) PutChallengeLocale(ctx context.Context, token, key, locale string, challenges []Challenge, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		m, err := challengeMap(rec)
		if err != nil {
			return nil, err
		}
		if err := m.Put(locale, challenges); err != nil {
			return nil, err
		}
		return m, nil
	}, done)
}

// SetChallengeLocale replaces (or creates) a locale challenge list.
func (s *Store) SetChallengeLocale(ctx context.Context, token, key, locale string, challenges []Challenge, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		m, err := challengeMap(rec)
		if err != nil {
			return nil, err
		}
		if err := m.Set(locale, challenges); err != nil {
			return nil, err
		}
		return m, nil
	}, done)
}

// RemoveLocale deletes a locale entry from a locale-keyed setting.
func (s *Store) RemoveLocale(ctx context.Context, token, key, locale string, done func(WriteResult)) error {
	return s.Update(ctx, token, key, func(rec *Record) (Value, error) {
		switch m := rec.Value.(type) {
		case EmailLocaleMap:
			if err := m.Remove(locale); err != nil {
				return nil, err
			}
			return m, nil
		case ChallengeLocaleMap:
			if err := m.Remove(locale); err != nil {
				return nil, err
			}
			return m, nil
		default:
			return nil, ErrNotLocaleMap
		}
	}, done)
}

func emailMap(rec *Record) (EmailLocaleMap, error) {
	switch m := rec.Value.(type) {
	case EmailLocaleMap:
		return m, nil
	case nil:
		if rec.Syntax == SyntaxEmailLocaleMap || rec.Syntax == "" {
			return EmailLocaleMap{}, nil
		}
	}
	return nil, ErrNotLocaleMap
}

func challengeMap(rec *Record) (ChallengeLocaleMap, error) {
	switch m := rec.Value.(type) {
	case ChallengeLocaleMap:
		return m, nil
	case nil:
		if rec.Syntax == SyntaxChallengeLocaleMap || rec.Syntax == "" {
			return ChallengeLocaleMap{}, nil
		}
	}
	return nil, ErrNotLocaleMap
}

func listRows(v Value) ([]string, bool) {
	switch t := v.(type) {
	case StringListValue:
		return t, true
	case ProfileListValue:
		return t, true
	case DomainListValue:
		return t, true
	}
	return nil, false
}

func makeList(syntax Syntax, rows []string) (Value, error) {
	switch syntax {
	case SyntaxStringArray, "":
		return StringListValue(rows), nil
	case SyntaxProfile:
		return ProfileListValue(rows), nil
	case SyntaxDomainList:
		return DomainListValue(rows), nil
	}
	return nil, ErrNotList
}

func valueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
