package ui

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pwm-project/pwm-admin/internal/admin/settings"
	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

const sessionIdleLimit = 30 * time.Minute

// sessionState holds the per-session caches: the settings store with its
// optimistic write queue, and the debounced password validator.
type sessionState struct {
	store     *settings.Store
	validator *sessionValidator
	lastSeen  time.Time
}

// sessionRegistry hands out one sessionState per session ID. Entries idle for
// longer than sessionIdleLimit are dropped on the next acquire.
type sessionRegistry struct {
	settingsSvc   settings.Service
	validationSvc validation.Service
	logger        *zap.Logger

	mu      sync.Mutex
	entries map[string]*sessionState
}

func newSessionRegistry(settingsSvc settings.Service, validationSvc validation.Service, logger *zap.Logger) *sessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionRegistry{
		settingsSvc:   settingsSvc,
		validationSvc: validationSvc,
		logger:        logger,
		entries:       make(map[string]*sessionState),
	}
}

func (r *sessionRegistry) acquire(sessionID string) *sessionState {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, state := range r.entries {
		if id != sessionID && now.Sub(state.lastSeen) > sessionIdleLimit {
			delete(r.entries, id)
		}
	}

	state, ok := r.entries[sessionID]
	if !ok {
		state = &sessionState{
			store: settings.NewStore(r.settingsSvc, settings.WithLogger(r.logger)),
		}
		if validator, err := newSessionValidator(r.validationSvc, r.logger); err == nil {
			state.validator = validator
		} else {
			r.logger.Warn("session validator unavailable", zap.Error(err))
		}
		r.entries[sessionID] = state
	}
	state.lastSeen = now
	return state
}
