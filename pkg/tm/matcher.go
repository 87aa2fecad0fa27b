// Package tm implements translation-memory lookup: fuzzy matching of a
// source segment against stored source/target pairs.
package tm

import (
	"sort"
	"strconv"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/langtag"
)

// DefaultThreshold is the minimum similarity a suggestion needs.
const DefaultThreshold = 55.0

// Variant is one language version of a segment.
type Variant struct {
	Lang    string `json:"lang"`
	Segment string `json:"segment"`
}

// Entry pairs a source segment with its translations.
type Entry struct {
	Source  Variant   `json:"source"`
	Targets []Variant `json:"target"`
}

// Memory is a named collection of entries.
type Memory struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	SourceLang string  `json:"sourceLanguage"`
	Entries    []Entry `json:"entries"`
}

// Match is a single suggestion. Segment is the stored source segment that
// matched, Match the stored translation.
type Match struct {
	Segment    string  `json:"segment"`
	Match      string  `json:"match"`
	Percentage float64 `json:"percentage"`
}

// Percent renders the similarity with two decimals, e.g. "90.91%".
func (m Match) Percent() string {
	return strconv.FormatFloat(m.Percentage, 'f', 2, 64) + "%"
}

// Distance returns the Levenshtein edit distance between a and b counted in
// runes.
func Distance(a, b string) int {
	return fuzzy.LevenshteinDistance(a, b)
}

// Similarity returns (maxLen - distance) / maxLen * 100. Two empty strings
// are identical.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 100
	}
	return float64(maxLen-Distance(a, b)) / float64(maxLen) * 100
}

// FindMatches returns one suggestion per translation in tgt for every entry
// whose source, in src, is at least threshold percent similar to query.
// An empty src or tgt matches any language; untagged corpus segments only
// match such wildcard requests. Results are ordered by similarity,
// best first, ties keeping corpus order.
func FindMatches(entries []Entry, query string, threshold float64, src, tgt string) []Match {
	var matches []Match
	for _, e := range entries {
		if !langtag.Matches(src, e.Source.Lang) {
			continue
		}
		sim := Similarity(query, e.Source.Segment)
		if sim < threshold {
			continue
		}
		for _, t := range e.Targets {
			if !langtag.Matches(tgt, t.Lang) {
				continue
			}
			matches = append(matches, Match{
				Segment:    e.Source.Segment,
				Match:      t.Segment,
				Percentage: sim,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Percentage > matches[j].Percentage
	})
	return matches
}

// Add appends a source/target pair, merging into an existing entry with the
// same source segment.
func (m *Memory) Add(source, target Variant) {
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.Source.Segment != source.Segment || !langtag.Same(e.Source.Lang, source.Lang) {
			continue
		}
		for k := range e.Targets {
			if langtag.Same(e.Targets[k].Lang, target.Lang) && e.Targets[k].Segment == target.Segment {
				return
			}
		}
		e.Targets = append(e.Targets, target)
		return
	}
	m.Entries = append(m.Entries, Entry{Source: source, Targets: []Variant{target}})
}

// Lookup matches query against the memory's own source language.
func (m *Memory) Lookup(query string, threshold float64, tgt string) []Match {
	return FindMatches(m.Entries, query, threshold, m.SourceLang, tgt)
}
