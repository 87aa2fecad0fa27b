package tm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"abc", "abd", 1},
		{"héllo", "hello", 1},
		{"日本語", "日本", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
		assert.Equal(t, tt.want, Distance(tt.b, tt.a), "%q vs %q", tt.b, tt.a)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, Similarity("", ""))
	assert.Equal(t, 100.0, Similarity("abc", "abc"))
	assert.InDelta(t, 66.67, Similarity("abc", "abd"), 0.01)
	assert.Equal(t, 0.0, Similarity("abc", ""))
}

func TestFindMatchesScenario(t *testing.T) {
	entries := []Entry{{
		Source:  Variant{Lang: "en", Segment: "Hello world"},
		Targets: []Variant{{Lang: "es", Segment: "Hola mundo"}},
	}}

	matches := FindMatches(entries, "Hello word", DefaultThreshold, "en", "es")
	require.Len(t, matches, 1)
	assert.Equal(t, "Hello world", matches[0].Segment)
	assert.Equal(t, "Hola mundo", matches[0].Match)
	assert.InDelta(t, 90.909, matches[0].Percentage, 0.001)
	assert.Equal(t, "90.91%", matches[0].Percent())
}

func TestFindMatchesFiltersAndOrders(t *testing.T) {
	entries := []Entry{
		{
			Source: Variant{Lang: "en-US", Segment: "Save the file"},
			Targets: []Variant{
				{Lang: "de", Segment: "Datei speichern"},
				{Lang: "fr-FR", Segment: "Enregistrer le fichier"},
			},
		},
		{
			Source:  Variant{Lang: "en", Segment: "Save the files"},
			Targets: []Variant{{Lang: "fr", Segment: "Enregistrer les fichiers"}},
		},
		{
			Source:  Variant{Lang: "de", Segment: "Save the files"},
			Targets: []Variant{{Lang: "fr", Segment: "ignored"}},
		},
		{
			Source:  Variant{Lang: "en", Segment: "Something unrelated entirely"},
			Targets: []Variant{{Lang: "fr", Segment: "below threshold"}},
		},
	}

	matches := FindMatches(entries, "Save the files", DefaultThreshold, "en", "fr")
	require.Len(t, matches, 2)
	assert.Equal(t, "Enregistrer les fichiers", matches[0].Match)
	assert.Equal(t, 100.0, matches[0].Percentage)
	assert.Equal(t, "Enregistrer le fichier", matches[1].Match)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Percentage, DefaultThreshold)
	}

	all := FindMatches(entries, "Save the files", DefaultThreshold, "", "")
	assert.Len(t, all, 4)
}

func TestFindMatchesSkipsUntaggedEntries(t *testing.T) {
	entries := []Entry{
		{Source: Variant{Segment: "Hello world"}, Targets: []Variant{{Segment: "Hallo Welt"}}},
		{Source: Variant{Lang: "en", Segment: "Hello world"}, Targets: []Variant{{Segment: "Hola mundo"}}},
	}

	assert.Empty(t, FindMatches(entries, "Hello world", DefaultThreshold, "en", "es"))
	assert.Empty(t, Concordance(entries[:1], "world", "en"))

	all := FindMatches(entries, "Hello world", DefaultThreshold, "", "")
	assert.Len(t, all, 2)
}

func TestMemoryAddAndLookup(t *testing.T) {
	m := &Memory{Name: "demo", SourceLang: "en"}
	m.Add(Variant{Lang: "en", Segment: "Yes"}, Variant{Lang: "es", Segment: "Sí"})
	m.Add(Variant{Lang: "en", Segment: "Yes"}, Variant{Lang: "es", Segment: "Sí"})
	m.Add(Variant{Lang: "en", Segment: "Yes"}, Variant{Lang: "fr", Segment: "Oui"})
	m.Add(Variant{Lang: "en", Segment: "No"}, Variant{Lang: "es", Segment: "No"})

	require.Len(t, m.Entries, 2)
	assert.Len(t, m.Entries[0].Targets, 2)

	matches := m.Lookup("Yes", 100, "fr")
	require.Len(t, matches, 1)
	assert.Equal(t, "Oui", matches[0].Match)
}

func TestConcordance(t *testing.T) {
	entries := []Entry{
		{Source: Variant{Lang: "en", Segment: "The quick brown fox"}},
		{Source: Variant{Lang: "en", Segment: "Quick"}},
		{Source: Variant{Lang: "en", Segment: "Slow turtle"}},
		{Source: Variant{Lang: "de", Segment: "Quick in German"}},
	}

	hits := Concordance(entries, "quick", "en")
	require.Len(t, hits, 2)
	assert.Equal(t, "Quick", hits[0].Entry.Source.Segment)
	assert.Equal(t, 1, hits[0].Distance)
	assert.Equal(t, "The quick brown fox", hits[1].Entry.Source.Segment)

	assert.Empty(t, Concordance(entries, "", "en"))
}
