// Package catalog holds descriptors for the configuration keys the console
// can edit: display labels, categories and rendered help text.
package catalog

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/pwm-project/pwm-admin/internal/admin/settings"
)

// Descriptor describes one editable configuration key.
type Descriptor struct {
	Key      string
	Syntax   settings.Syntax
	Label    string
	Category string
	// Help is markdown source; render it with Catalog.RenderHelp.
	Help string
	// ProfileScoped keys can carry per-profile overrides.
	ProfileScoped bool
}

// Catalog is an immutable descriptor registry with search and help
// rendering.
type Catalog struct {
	entries   []Descriptor
	byKey     map[string]int
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// New builds a catalog from the given descriptors, keeping their order for
// display.
func New(entries []Descriptor) (*Catalog, error) {
	byKey := make(map[string]int, len(entries))
	for i, d := range entries {
		if d.Key == "" {
			return nil, fmt.Errorf("catalog: descriptor %d has no key", i)
		}
		if _, ok := byKey[d.Key]; ok {
			return nil, fmt.Errorf("catalog: duplicate key %q", d.Key)
		}
		byKey[d.Key] = i
	}
	return &Catalog{
		entries:   append([]Descriptor(nil), entries...),
		byKey:     byKey,
		markdown:  goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

// Lookup returns the descriptor for the key.
func (c *Catalog) Lookup(key string) (Descriptor, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Descriptor{}, false
	}
	return c.entries[i], true
}

// All returns every descriptor in catalog order.
func (c *Catalog) All() []Descriptor {
	return append([]Descriptor(nil), c.entries...)
}

// Len reports the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Categories lists the distinct categories in lexical order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, d := range c.entries {
		if _, ok := seen[d.Category]; ok {
			continue
		}
		seen[d.Category] = struct{}{}
		out = append(out, d.Category)
	}
	sort.Strings(out)
	return out
}

// Search filters descriptors by category (exact, empty matches all) and a
// case-insensitive term matched against key, label and help text.
func (c *Catalog) Search(term, category string) []Descriptor {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Descriptor, 0, len(c.entries))
	for _, d := range c.entries {
		if category != "" && d.Category != category {
			continue
		}
		if term != "" && !matchesTerm(d, term) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesTerm(d Descriptor, term string) bool {
	return strings.Contains(strings.ToLower(d.Key), term) ||
		strings.Contains(strings.ToLower(d.Label), term) ||
		strings.Contains(strings.ToLower(d.Help), term)
}

// RenderHelp converts the descriptor's markdown help into sanitized HTML.
func (c *Catalog) RenderHelp(d Descriptor) (string, error) {
	if strings.TrimSpace(d.Help) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := c.markdown.Convert([]byte(d.Help), &buf); err != nil {
		return "", fmt.Errorf("catalog: render help for %s: %w", d.Key, err)
	}
	return string(c.sanitizer.SanitizeBytes(buf.Bytes())), nil
}
