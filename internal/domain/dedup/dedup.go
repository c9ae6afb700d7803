// Package dedup detects near-duplicate question and scenario texts.
//
// Texts are compared after normalization (lower-cased, punctuation
// removed, trimmed). Two texts are duplicates when their normalized forms
// are equal, or when one contains the other and the longer of the two
// exceeds a minimum length. Matching is a linear scan over the
// existing corpus.
package dedup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMinLength is the normalized length a text must exceed before
// substring containment counts as duplication.
const DefaultMinLength = 20

// Scope selects which existing records a candidate is compared with.
type Scope string

const (
	// ScopeGlobal compares against every record of the same content type.
	ScopeGlobal Scope = "global"
	// ScopeCategory compares only against records in the candidate's category.
	ScopeCategory Scope = "category"
)

var lower = cases.Lower(language.Und)

// Normalize lower-cases s, drops every rune that is neither a letter,
// a digit nor whitespace, and trims surrounding whitespace.
func Normalize(s string) string {
	s = lower.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Entry is an existing record's comparable text.
type Entry struct {
	ID       uuid.UUID
	Text     string
	Category domain.Category
}

// Match identifies the existing record a candidate collided with.
type Match struct {
	Entry
	// Exact is true when the raw or normalized texts were identical.
	Exact bool
}

// Filter holds the matching parameters.
type Filter struct {
	MinLength int
	Scope     Scope
}

// NewFilter returns a filter with the default threshold and global scope.
func NewFilter() *Filter {
	return &Filter{MinLength: DefaultMinLength, Scope: ScopeGlobal}
}

// IsDuplicate compares two raw texts.
func (f *Filter) IsDuplicate(a, b string) bool {
	return f.similar(Normalize(a), Normalize(b))
}

func (f *Filter) similar(na, nb string) bool {
	if na == nb {
		return true
	}
	longer := utf8.RuneCountInString(na)
	if n := utf8.RuneCountInString(nb); n > longer {
		longer = n
	}
	if longer <= f.MinLength || na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// IsDuplicate compares two raw texts with the default filter.
func IsDuplicate(a, b string) bool {
	return NewFilter().IsDuplicate(a, b)
}

type normalizedEntry struct {
	Entry
	norm string
}

// Corpus is a set of existing entries prepared for repeated lookups.
// Entries accepted during a batch can be added so later candidates in
// the same batch are checked against them too.
type Corpus struct {
	filter  *Filter
	entries []normalizedEntry
}

// NewCorpus normalizes entries once for repeated lookups.
func (f *Filter) NewCorpus(entries []Entry) *Corpus {
	c := &Corpus{filter: f, entries: make([]normalizedEntry, 0, len(entries))}
	for _, e := range entries {
		c.Add(e)
	}
	return c
}

// Add appends an entry to the corpus.
func (c *Corpus) Add(e Entry) {
	c.entries = append(c.entries, normalizedEntry{Entry: e, norm: Normalize(e.Text)})
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Find returns the first entry the candidate duplicates.
func (c *Corpus) Find(candidate Entry) (Match, bool) {
	for _, e := range c.entries {
		if c.inScope(candidate, e.Entry) && e.Text == candidate.Text {
			return Match{Entry: e.Entry, Exact: true}, true
		}
	}

	norm := Normalize(candidate.Text)
	for _, e := range c.entries {
		if !c.inScope(candidate, e.Entry) {
			continue
		}
		if c.filter.similar(norm, e.norm) {
			return Match{Entry: e.Entry, Exact: norm == e.norm}, true
		}
	}
	return Match{}, false
}

func (c *Corpus) inScope(candidate, existing Entry) bool {
	if c.filter.Scope != ScopeCategory {
		return true
	}
	return candidate.Category == existing.Category
}
