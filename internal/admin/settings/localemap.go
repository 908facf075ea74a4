package settings

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/language"
)

// DefaultLocale is the map key for the fallback entry of locale-keyed
// syntaxes. Every lookup that misses a specific locale falls back to it.
const DefaultLocale = ""

// ErrLocaleExists is returned when adding a locale key that is already
// present. The map is left unchanged.
var ErrLocaleExists = errors.New("settings: locale already present")

// ErrLocaleUnknown is returned when a locale key is neither empty nor a
// parseable BCP-47 tag.
var ErrLocaleUnknown = errors.New("settings: invalid locale tag")

// ErrLastLocale is returned when removing the fallback entry would leave the
// map in a state the syntax does not allow.
var ErrLastLocale = errors.New("settings: cannot remove required locale")

// ValidateLocale checks a locale map key: the empty string (default locale)
// or a well-formed BCP-47 tag.
func ValidateLocale(locale string) error {
	if locale == DefaultLocale {
		return nil
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("%w: %q", ErrLocaleUnknown, locale)
	}
	return nil
}

// sortedLocales returns keys with the default locale first and the rest in
// lexical order, for stable tab rendering.
func sortedLocales(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == DefaultLocale || keys[j] == DefaultLocale {
			return keys[i] == DefaultLocale
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Locales lists the map's locale keys, default locale first.
func (v EmailLocaleMap) Locales() []string {
	keys := make([]string, 0, len(v))
	for locale := range v {
		keys = append(keys, locale)
	}
	return sortedLocales(keys)
}

// Put adds a new locale entry. Duplicate or malformed keys are rejected and
// the map is unchanged.
func (v EmailLocaleMap) Put(locale string, tmpl EmailTemplate) error {
	if err := ValidateLocale(locale); err != nil {
		return err
	}
	if _, ok := v[locale]; ok {
		return fmt.Errorf("%w: %q", ErrLocaleExists, locale)
	}
	v[locale] = tmpl
	return nil
}

// Set replaces a locale entry. The default entry backs every translation, so
// writing a translation into a map without one seeds the default from the
// same template.
func (v EmailLocaleMap) Set(locale string, tmpl EmailTemplate) error {
	if err := ValidateLocale(locale); err != nil {
		return err
	}
	if locale != DefaultLocale {
		if _, ok := v[DefaultLocale]; !ok {
			v[DefaultLocale] = tmpl
		}
	}
	v[locale] = tmpl
	return nil
}

// Remove deletes a locale entry. An email setting always keeps at least its
// default entry, and the default entry cannot be removed while translations
// remain.
func (v EmailLocaleMap) Remove(locale string) error {
	if _, ok := v[locale]; !ok {
		return fmt.Errorf("settings: locale %q not present", locale)
	}
	if locale == DefaultLocale && len(v) > 1 {
		return fmt.Errorf("%w: default locale backs remaining translations", ErrLastLocale)
	}
	if len(v) == 1 {
		return fmt.Errorf("%w: email settings require a default template", ErrLastLocale)
	}
	delete(v, locale)
	return nil
}

// Resolve returns the template for the locale, falling back to the default
// entry.
func (v EmailLocaleMap) Resolve(locale string) (EmailTemplate, bool) {
	if tmpl, ok := v[locale]; ok {
		return tmpl, true
	}
	tmpl, ok := v[DefaultLocale]
	return tmpl, ok
}

// Locales lists the map's locale keys, default locale first.
func (v ChallengeLocaleMap) Locales() []string {
	keys := make([]string, 0, len(v))
	for locale := range v {
		keys = append(keys, locale)
	}
	return sortedLocales(keys)
}

// Put adds a new locale entry. Duplicate or malformed keys are rejected and
// the map is unchanged.
func (v ChallengeLocaleMap) Put(locale string, challenges []Challenge) error {
	if err := ValidateLocale(locale); err != nil {
		return err
	}
	if _, ok := v[locale]; ok {
		return fmt.Errorf("%w: %q", ErrLocaleExists, locale)
	}
	v[locale] = append([]Challenge(nil), challenges...)
	return nil
}

// Set replaces an existing locale entry.
func (v ChallengeLocaleMap) Set(locale string, challenges []Challenge) error {
	if err := ValidateLocale(locale); err != nil {
		return err
	}
	v[locale] = append([]Challenge(nil), challenges...)
	return nil
}

// Remove deletes a locale entry. Challenge settings may end up empty; the
// default entry is only protected while translations depend on it.
func (v ChallengeLocaleMap) Remove(locale string) error {
	if _, ok := v[locale]; !ok {
		return fmt.Errorf("settings: locale %q not present", locale)
	}
	if locale == DefaultLocale && len(v) > 1 {
		return fmt.Errorf("%w: default locale backs remaining translations", ErrLastLocale)
	}
	delete(v, locale)
	return nil
}

// Resolve returns the challenge list for the locale, falling back to the
// default entry.
func (v ChallengeLocaleMap) Resolve(locale string) ([]Challenge, bool) {
	if list, ok := v[locale]; ok {
		return list, true
	}
	list, ok := v[DefaultLocale]
	return list, ok
}
