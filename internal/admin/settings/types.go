// Package settings models PWM server configuration values and keeps a
// per-session cache of them in sync with the backend API.
package settings

import (
	"encoding/json"
	"fmt"
)

// Syntax identifies the shape of a setting value. The set is closed; every
// value type in this package maps to exactly one syntax.
type Syntax string

const (
	SyntaxString             Syntax = "STRING"
	SyntaxStringArray        Syntax = "STRING_ARRAY"
	SyntaxNumeric            Syntax = "NUMERIC"
	SyntaxBoolean            Syntax = "BOOLEAN"
	SyntaxProfile            Syntax = "PROFILE"
	SyntaxDomainList         Syntax = "DOMAIN_LIST"
	SyntaxEmailLocaleMap     Syntax = "EMAIL_LOCALE_MAP"
	SyntaxChallengeLocaleMap Syntax = "CHALLENGE_LOCALE_MAP"
	SyntaxUserPermissionList Syntax = "USER_PERMISSION_LIST"
)

// Value is the closed union of setting payload types. Clone must return a
// deep copy; callers never receive or hand in shared mutable state.
type Value interface {
	Syntax() Syntax
	Clone() Value
}

// StringValue holds a STRING setting.
type StringValue string

func (StringValue) Syntax() Syntax { return SyntaxString }
func (v StringValue) Clone() Value { return v }

// NumericValue holds a NUMERIC setting.
type NumericValue int64

func (NumericValue) Syntax() Syntax { return SyntaxNumeric }
func (v NumericValue) Clone() Value { return v }

// BooleanValue holds a BOOLEAN setting.
type BooleanValue bool

func (BooleanValue) Syntax() Syntax { return SyntaxBoolean }
func (v BooleanValue) Clone() Value { return v }

// StringListValue holds a STRING_ARRAY setting. Order is significant.
type StringListValue []string

func (StringListValue) Syntax() Syntax { return SyntaxStringArray }
func (v StringListValue) Clone() Value { return StringListValue(cloneStrings(v)) }

// ProfileListValue holds a PROFILE setting: an ordered list of profile IDs.
type ProfileListValue []string

func (ProfileListValue) Syntax() Syntax { return SyntaxProfile }
func (v ProfileListValue) Clone() Value { return ProfileListValue(cloneStrings(v)) }

// DomainListValue holds a DOMAIN_LIST setting.
type DomainListValue []string

func (DomainListValue) Syntax() Syntax { return SyntaxDomainList }
func (v DomainListValue) Clone() Value { return DomainListValue(cloneStrings(v)) }

// EmailTemplate is one localised variant of an email-valued setting.
type EmailTemplate struct {
	From     string `json:"from,omitempty"`
	Subject  string `json:"subject"`
	BodyText string `json:"bodyText,omitempty"`
	BodyHTML string `json:"bodyHtml,omitempty"`
}

// EmailLocaleMap holds an EMAIL_LOCALE_MAP setting. The empty-string key is
// the default locale; all other keys are BCP-47 tags.
type EmailLocaleMap map[string]EmailTemplate

func (EmailLocaleMap) Syntax() Syntax { return SyntaxEmailLocaleMap }

func (v EmailLocaleMap) Clone() Value {
	out := make(EmailLocaleMap, len(v))
	for locale, tmpl := range v {
		out[locale] = tmpl
	}
	return out
}

// Challenge is one entry of a localised challenge set.
type Challenge struct {
	Text            string `json:"text"`
	AdminDefined    bool   `json:"adminDefined"`
	MinLength       int    `json:"minLength"`
	MaxLength       int    `json:"maxLength"`
	EnforceWordlist bool   `json:"enforceWordlist,omitempty"`
}

// ChallengeLocaleMap holds a CHALLENGE_LOCALE_MAP setting: per-locale ordered
// challenge lists, empty-string key as the default locale.
type ChallengeLocaleMap map[string][]Challenge

func (ChallengeLocaleMap) Syntax() Syntax { return SyntaxChallengeLocaleMap }

func (v ChallengeLocaleMap) Clone() Value {
	out := make(ChallengeLocaleMap, len(v))
	for locale, list := range v {
		out[locale] = append([]Challenge(nil), list...)
	}
	return out
}

// PermissionType selects how a user permission entry matches directory users.
type PermissionType string

const (
	PermissionLDAPQuery PermissionType = "ldapQuery"
	PermissionLDAPGroup PermissionType = "ldapGroup"
)

// Permission is one entry of a USER_PERMISSION_LIST setting.
type Permission struct {
	Type        PermissionType `json:"type"`
	LDAPProfile string         `json:"ldapProfile,omitempty"`
	LDAPQuery   string         `json:"ldapQuery,omitempty"`
	LDAPBase    string         `json:"ldapBase,omitempty"`
	GroupDN     string         `json:"groupDN,omitempty"`
}

// PermissionListValue holds a USER_PERMISSION_LIST setting. Entries are OR-ed
// together by the server; order is preserved for display.
type PermissionListValue []Permission

func (PermissionListValue) Syntax() Syntax { return SyntaxUserPermissionList }

func (v PermissionListValue) Clone() Value {
	return PermissionListValue(append([]Permission(nil), v...))
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// Record is a single setting as held in the cache and on the wire. A nil
// Value means the setting is unset and the server default applies.
type Record struct {
	Key      string
	Syntax   Syntax
	Value    Value
	Modified bool
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Value != nil {
		out.Value = r.Value.Clone()
	}
	return &out
}

type recordEnvelope struct {
	Key      string          `json:"key"`
	Syntax   Syntax          `json:"syntax"`
	Value    json.RawMessage `json:"value,omitempty"`
	Modified bool            `json:"modified"`
}

// MarshalJSON encodes the record as a {key, syntax, value, modified}
// envelope. The value payload shape is dictated by the syntax tag.
func (r Record) MarshalJSON() ([]byte, error) {
	env := recordEnvelope{
		Key:      r.Key,
		Syntax:   r.Syntax,
		Modified: r.Modified,
	}
	if r.Value != nil {
		env.Syntax = r.Value.Syntax()
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return nil, fmt.Errorf("settings: encode %s value: %w", r.Key, err)
		}
		env.Value = raw
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the envelope, dispatching the value payload on the
// syntax tag.
func (r *Record) UnmarshalJSON(data []byte) error {
	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("settings: decode record: %w", err)
	}
	value, err := DecodeValue(env.Syntax, env.Value)
	if err != nil {
		return fmt.Errorf("settings: decode %s: %w", env.Key, err)
	}
	r.Key = env.Key
	r.Syntax = env.Syntax
	r.Value = value
	r.Modified = env.Modified
	return nil
}

// DecodeValue parses a raw value payload according to the syntax tag. A nil
// or literal-null payload decodes to a nil Value (unset).
func DecodeValue(syntax Syntax, raw json.RawMessage) (Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch syntax {
	case SyntaxString:
		var v StringValue
		return decodeInto(raw, &v)
	case SyntaxNumeric:
		var v NumericValue
		return decodeInto(raw, &v)
	case SyntaxBoolean:
		var v BooleanValue
		return decodeInto(raw, &v)
	case SyntaxStringArray:
		var v StringListValue
		return decodeInto(raw, &v)
	case SyntaxProfile:
		var v ProfileListValue
		return decodeInto(raw, &v)
	case SyntaxDomainList:
		var v DomainListValue
		return decodeInto(raw, &v)
	case SyntaxEmailLocaleMap:
		var v EmailLocaleMap
		return decodeInto(raw, &v)
	case SyntaxChallengeLocaleMap:
		var v ChallengeLocaleMap
		return decodeInto(raw, &v)
	case SyntaxUserPermissionList:
		var v PermissionListValue
		return decodeInto(raw, &v)
	default:
		return nil, fmt.Errorf("unknown syntax %q", syntax)
	}
}

func decodeInto[T Value](raw json.RawMessage, v *T) (Value, error) {
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return *v, nil
}
