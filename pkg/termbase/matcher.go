// Package termbase finds terminology entries whose source term occurs in a
// sentence and proposes the target-language terms.
package termbase

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/langtag"
)

// Term is one language version of a concept.
type Term struct {
	Lang  string   `json:"lang"`
	Term  string   `json:"term"`
	Notes []string `json:"notes,omitempty"`
}

// Entry groups the terms of one concept.
type Entry struct {
	ID    string `json:"id"`
	Terms []Term `json:"terms"`
}

// Base is a named term base.
type Base struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Match pairs the source term found in the sentence with a target term.
type Match struct {
	SearchEntry string   `json:"searchEntry"`
	FoundEntry  string   `json:"foundEntry"`
	Notes       []string `json:"notes"`
}

// FindMatches returns, for every source term in src contained in sentence
// (case-insensitively), one match per term of the same entry in tgt.
// Empty terms never match.
func FindMatches(entries []Entry, sentence, src, tgt string) []Match {
	fold := cases.Fold()
	haystack := fold.String(sentence)

	var matches []Match
	for _, e := range entries {
		for i, st := range e.Terms {
			needle := strings.TrimSpace(st.Term)
			if needle == "" || !langtag.Matches(src, st.Lang) {
				continue
			}
			if !strings.Contains(haystack, fold.String(needle)) {
				continue
			}
			for j, tt := range e.Terms {
				if j == i || tt.Term == "" || !langtag.Matches(tgt, tt.Lang) {
					continue
				}
				matches = append(matches, Match{
					SearchEntry: st.Term,
					FoundEntry:  tt.Term,
					Notes:       tt.Notes,
				})
			}
		}
	}
	return matches
}

// Lookup runs FindMatches over the base's entries.
func (b *Base) Lookup(sentence, src, tgt string) []Match {
	return FindMatches(b.Entries, sentence, src, tgt)
}

// Languages lists the distinct base languages present in the base.
func (b *Base) Languages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range b.Entries {
		for _, t := range e.Terms {
			l := langtag.Base(t.Lang)
			if l == "" || seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
