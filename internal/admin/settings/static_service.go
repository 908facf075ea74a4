package settings

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// StaticService is an in-memory Service used for local development and
// handler tests. It applies real mutation semantics: writes are validated,
// acknowledged with the stored record, and reset restores seeded defaults.
type StaticService struct {
	mu       sync.Mutex
	defaults map[string]Value
	current  map[string]*Record
}

// NewStaticService seeds a service with a representative slice of a PWM
// configuration.
func NewStaticService() *StaticService {
	defaults := map[string]Value{
		"ldap.serverUrls":                StringListValue{"ldaps://ldap1.example.com:636", "ldaps://ldap2.example.com:636"},
		"ldap.proxy.username":            StringValue("cn=pwmproxy,ou=services,dc=example,dc=com"),
		"ldap.naming.attribute":          StringValue("cn"),
		"ldap.profile.list":              ProfileListValue{"default"},
		"password.policy.minimumLength":  NumericValue(8),
		"password.policy.maximumLength":  NumericValue(64),
		"password.policy.caseSensitive":  BooleanValue(true),
		"email.domains.permitted":        DomainListValue{"example.com", "example.org"},
		"challenge.enable":               BooleanValue(true),
		"challenge.minRandomRequired":    NumericValue(2),
		"password.changePassword.enable": BooleanValue(true),
		"email.changePassword": EmailLocaleMap{
			DefaultLocale: {
				From:     "noreply@example.com",
				Subject:  "Your password was changed",
				BodyText: "The password for your account was changed.",
			},
		},
		"challenge.challenges": ChallengeLocaleMap{
			DefaultLocale: {
				{Text: "What was the make of your first car?", AdminDefined: true, MinLength: 4, MaxLength: 200},
				{Text: "What is the name of your favourite teacher?", AdminDefined: true, MinLength: 4, MaxLength: 200},
			},
		},
		"security.helpdesk.actors": PermissionListValue{
			{Type: PermissionLDAPGroup, LDAPProfile: "default", GroupDN: "cn=helpdesk,ou=groups,dc=example,dc=com"},
		},
	}
	svc := &StaticService{
		defaults: defaults,
		current:  make(map[string]*Record, len(defaults)),
	}
	for key, value := range defaults {
		svc.current[key] = &Record{Key: key, Syntax: value.Syntax(), Value: value.Clone()}
	}
	return svc
}

// ReadSetting returns a copy of the stored record. Profile-qualified keys
// without a stored override read as the default-profile value.
func (s *StaticService) ReadSetting(_ context.Context, _ string, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.current[key]
	if !ok {
		if profile, base := SplitProfileKey(key); profile != "" {
			if baseRec, found := s.current[base]; found {
				fallback := baseRec.Clone()
				fallback.Key = key
				fallback.Modified = false
				return fallback, nil
			}
		}
		return nil, &ServerError{StatusCode: 404, Code: "setting_unknown", Message: fmt.Sprintf("no setting %q", key)}
	}
	return rec.Clone(), nil
}

// WriteSetting validates and stores the value, acknowledging with the stored
// record flagged as modified.
func (s *StaticService) WriteSetting(_ context.Context, _ string, key string, value Value) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.current[key]
	if !ok {
		// The first write of a profile override validates against the
		// default-profile record.
		if profile, base := SplitProfileKey(key); profile != "" {
			existing, ok = s.current[base]
		}
		if !ok {
			return nil, &ServerError{StatusCode: 404, Code: "setting_unknown", Message: fmt.Sprintf("no setting %q", key)}
		}
	}
	if value != nil && value.Syntax() != existing.Syntax {
		return nil, &ServerError{
			StatusCode: 422,
			Code:       "syntax_mismatch",
			Message:    fmt.Sprintf("setting %q expects %s", key, existing.Syntax),
		}
	}
	if err := validateStaticWrite(existing.Syntax, value); err != nil {
		return nil, err
	}

	rec := &Record{Key: key, Syntax: existing.Syntax, Modified: true}
	if value != nil {
		rec.Value = value.Clone()
	}
	s.current[key] = rec
	return rec.Clone(), nil
}

// ResetSetting restores the seeded default for the key. Resetting a profile
// override drops it, so reads fall back to the default profile again.
func (s *StaticService) ResetSetting(_ context.Context, _ string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.defaults[key]
	if !ok {
		if profile, base := SplitProfileKey(key); profile != "" {
			if _, found := s.defaults[base]; found {
				delete(s.current, key)
				return nil
			}
		}
		return &ServerError{StatusCode: 404, Code: "setting_unknown", Message: fmt.Sprintf("no setting %q", key)}
	}
	s.current[key] = &Record{Key: key, Syntax: def.Syntax(), Value: def.Clone()}
	return nil
}

// ListModified returns the keys that have been written since seeding, in
// lexical order.
func (s *StaticService) ListModified(_ context.Context, _ string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.current))
	for key, rec := range s.current {
		if rec.Modified {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func validateStaticWrite(syntax Syntax, value Value) error {
	switch v := value.(type) {
	case NumericValue:
		if v < 0 {
			return &ServerError{StatusCode: 422, Code: "value_negative", Message: "numeric settings must be zero or positive"}
		}
	case EmailLocaleMap:
		if _, ok := v[DefaultLocale]; !ok {
			return &ServerError{StatusCode: 422, Code: "default_locale_required", Message: "email settings require a default locale template"}
		}
		for locale := range v {
			if err := ValidateLocale(locale); err != nil {
				return &ServerError{StatusCode: 422, Code: "locale_invalid", Message: err.Error()}
			}
		}
	case ChallengeLocaleMap:
		for locale := range v {
			if err := ValidateLocale(locale); err != nil {
				return &ServerError{StatusCode: 422, Code: "locale_invalid", Message: err.Error()}
			}
		}
	case nil:
		if syntax == SyntaxEmailLocaleMap {
			return &ServerError{StatusCode: 422, Code: "value_required", Message: "email settings cannot be unset"}
		}
	}
	return nil
}
