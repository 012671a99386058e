// Package catalog holds the read-only mode and language catalogs the bot
// validates user input against. Both are built once at startup and injected
// where needed; nothing mutates them afterwards.
package catalog

import "strings"

// Sentinel values accepted from users and expanded before any remote call.
const (
	RandomMode  = "RANDOM"
	AnyLanguage = "Any"
)

// MaxCompletions caps autocomplete candidate lists (Discord's choice limit).
const MaxCompletions = 25

// Catalog is an ordered, immutable list of identifiers. Resolution is
// case-insensitive substring containment, first match in catalog order —
// the same rule for modes and languages.
type Catalog struct {
	entries []string
}

// New copies entries into a Catalog, preserving order.
func New(entries []string) *Catalog {
	c := &Catalog{entries: make([]string, len(entries))}
	copy(c.entries, entries)
	return c
}

// NewLanguages builds the language catalog from the remote id list with the
// "Any" sentinel appended.
func NewLanguages(ids []string) *Catalog {
	return New(append(append([]string{}, ids...), AnyLanguage))
}

// Entries returns the catalog in order. Callers must not modify it.
func (c *Catalog) Entries() []string {
	return c.entries
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Resolve maps free-text input to the first catalog entry containing it,
// case-insensitively. Ambiguity is resolved by catalog order.
func (c *Catalog) Resolve(input string) (string, bool) {
	needle := strings.ToLower(input)
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e), needle) {
			return e, true
		}
	}
	return "", false
}

// Complete returns up to MaxCompletions entries matching partial, in catalog
// order. A zero-match result is an empty slice, not an error.
func (c *Catalog) Complete(partial string) []string {
	needle := strings.ToLower(partial)
	out := []string{}
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e), needle) {
			out = append(out, e)
			if len(out) == MaxCompletions {
				break
			}
		}
	}
	return out
}

// ExpandModes turns a resolved mode into the array sent to the remote
// service: the RANDOM sentinel becomes every non-sentinel mode, anything
// else a singleton.
func ExpandModes(mode string, all *Catalog) []string {
	if mode != RandomMode {
		return []string{mode}
	}
	out := make([]string, 0, all.Len())
	for _, m := range all.Entries() {
		if m != RandomMode {
			out = append(out, m)
		}
	}
	return out
}

// ExpandLanguage turns a resolved language into the filter array sent to the
// remote service: the Any sentinel becomes an empty filter.
func ExpandLanguage(language string) []string {
	if language == AnyLanguage {
		return []string{}
	}
	return []string{language}
}
