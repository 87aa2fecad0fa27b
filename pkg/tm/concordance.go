package tm

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/langtag"
)

// Hit is a concordance result: an entry whose source contains the search
// term as a fuzzy subsequence. Lower Distance is closer.
type Hit struct {
	Entry    Entry `json:"entry"`
	Distance int   `json:"distance"`
}

// Concordance searches source segments in src for term, ignoring case and
// diacritics, closest first.
func Concordance(entries []Entry, term, src string) []Hit {
	if term == "" {
		return nil
	}

	sources := make([]string, 0, len(entries))
	index := make([]int, 0, len(entries))
	for i, e := range entries {
		if !langtag.Matches(src, e.Source.Lang) {
			continue
		}
		sources = append(sources, e.Source.Segment)
		index = append(index, i)
	}

	ranks := fuzzy.RankFindNormalizedFold(term, sources)
	sort.Stable(ranks)

	hits := make([]Hit, 0, len(ranks))
	for _, r := range ranks {
		hits = append(hits, Hit{Entry: entries[index[r.OriginalIndex]], Distance: r.Distance})
	}
	return hits
}
