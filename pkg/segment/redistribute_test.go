package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRanges(t *testing.T) {
	ranges := BuildRanges([]int{4, 7, 9}, []string{"Hello ", "wörld", "."})
	assert.Equal(t, []NodeRange{
		{Node: 4, Start: 0, End: 6},
		{Node: 7, Start: 6, End: 11},
		{Node: 9, Start: 11, End: 12},
	}, ranges)
}

func TestBindCoversEveryNode(t *testing.T) {
	nodeTexts := []string{"  Hello ", "world. How", " are you?  "}
	ranges := BuildRanges([]int{0, 1, 2}, nodeTexts)
	segs := Split(strings.Join(nodeTexts, ""), DefaultTokens)

	bindings, dropped := Bind(segs, ranges)
	require.Empty(t, dropped)
	require.Len(t, bindings, 2)

	// every rune of every node is covered exactly once
	covered := make([]int, len(nodeTexts))
	for _, b := range bindings {
		for _, f := range b.Fragments {
			assert.Greater(t, f.Len(), 0)
			covered[f.Node] += f.Len()
		}
	}
	for i, text := range nodeTexts {
		assert.Equal(t, utf8.RuneCountInString(text), covered[i], "node %d", i)
	}

	assert.Equal(t, []Fragment{{Node: 0, Start: 0, End: 8}, {Node: 1, Start: 0, End: 7}}, bindings[0].Fragments)
	assert.Equal(t, []Fragment{{Node: 1, Start: 7, End: 10}, {Node: 2, Start: 0, End: 11}}, bindings[1].Fragments)
}

func TestBindSkipsEmptyNodesAndReportsDropped(t *testing.T) {
	ranges := BuildRanges([]int{0, 1}, []string{"", "Hi."})
	segs := []Segment{
		{Text: "Hi.", Start: 0, End: 3},
		{Text: "ghost", Start: 10, End: 15},
	}
	bindings, dropped := Bind(segs, ranges)
	require.Len(t, bindings, 1)
	assert.Equal(t, []Fragment{{Node: 1, Start: 0, End: 3}}, bindings[0].Fragments)
	require.Len(t, dropped, 1)
	assert.Equal(t, "ghost", dropped[0].Text)
}

func TestDistributeTwoRuns(t *testing.T) {
	b := Binding{
		Segment: Segment{Text: "Hello there.", Start: 0, End: 12},
		Fragments: []Fragment{
			{Node: 0, Start: 0, End: 6},
			{Node: 1, Start: 0, End: 6},
		},
	}
	pieces := Distribute(b, "Bonjour la.")
	require.Len(t, pieces, 2)
	// round(6/12 * 11) = 6, the last run takes the remaining 5
	assert.Equal(t, Piece{Node: 0, Text: "Bonjou"}, pieces[0])
	assert.Equal(t, Piece{Node: 1, Text: "r la."}, pieces[1])
}

func TestDistributeConservesText(t *testing.T) {
	b := Binding{
		Segment: Segment{Text: "abc def ghi.", Lead: " ", Separator: "  ", Start: 1, End: 15},
		Fragments: []Fragment{
			{Node: 0, Start: 0, End: 2},
			{Node: 1, Start: 0, End: 9},
			{Node: 2, Start: 3, End: 6},
		},
	}
	for _, tr := range []string{"", "x", "un texte bien plus long que l'original.", "短い。"} {
		pieces := Distribute(b, tr)
		var sb strings.Builder
		for _, p := range pieces {
			sb.WriteString(p.Text)
		}
		assert.Equal(t, " "+tr+"  ", sb.String())
	}
}

func TestReplacement(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		in   string
		want string
	}{
		{"separator appended", Segment{Separator: " "}, "Hola.", "Hola. "},
		{"separator not doubled", Segment{Separator: " "}, "Hola. ", "Hola. "},
		{"lead prepended", Segment{Lead: "\n  "}, "Hola.", "\n  Hola."},
		{"lead not doubled", Segment{Lead: "  "}, "  Hola.", "  Hola."},
		{"empty translation keeps lead and separator", Segment{Lead: " ", Separator: "  "}, "", "   "},
		{"translation ending in space keeps lead", Segment{Lead: " ", Separator: " "}, "Hola ", " Hola "},
		{"opaque verbatim", Segment{Separator: " ", Opaque: true}, "42", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Replacement(tt.seg, tt.in))
		})
	}
}

func TestRedistributeFallsBackToSource(t *testing.T) {
	nodeTexts := []string{"One. ", "Two."}
	ranges := BuildRanges([]int{0, 1}, nodeTexts)
	bindings, _ := Bind(Split("One. Two.", DefaultTokens), ranges)

	out := Redistribute(bindings, []string{"Uno."})
	assert.Equal(t, []NodeText{
		{Node: 0, Text: "Uno. "},
		{Node: 1, Text: "Two."},
	}, out)
}

func TestRedistributeIdentity(t *testing.T) {
	nodeTexts := []string{"Hello ", "world. ", "Bye."}
	ranges := BuildRanges([]int{0, 1, 2}, nodeTexts)
	segs := Split(strings.Join(nodeTexts, ""), DefaultTokens)
	bindings, _ := Bind(segs, ranges)

	out := Redistribute(bindings, texts(segs))
	got := make([]string, len(out))
	for i, nt := range out {
		got[i] = nt.Text
	}
	assert.Equal(t, nodeTexts, got)
}

func TestAccumulatorMergesPerNode(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Piece{Node: 3, Text: "a"}, Piece{Node: 1, Text: "b"})
	acc.Add(Piece{Node: 3, Text: "c"})
	assert.Equal(t, []NodeText{{Node: 3, Text: "ac"}, {Node: 1, Text: "b"}}, acc.Texts())
}
