package segment

import (
	"math"
	"strings"
)

// Piece is a slice of a replacement string destined for one node.
type Piece struct {
	Node int
	Text string
}

// NodeText is the final text content of a node after redistribution.
type NodeText struct {
	Node int
	Text string
}

// Replacement builds the full text written back for a segment: Lead,
// translation and Separator. Lead and Separator are not added twice when the
// translation already carries them, so re-applying output is stable.
func Replacement(seg Segment, translated string) string {
	if seg.Opaque {
		return translated
	}
	lead, sep := seg.Lead, seg.Separator
	// 两个判断都针对原译文，追加的分隔符不能冒充前导空白
	if strings.HasPrefix(translated, lead) {
		lead = ""
	}
	if strings.HasSuffix(translated, sep) {
		sep = ""
	}
	return lead + translated + sep
}

// Distribute slices the replacement for b across its fragments in
// proportion to each fragment's original length. The last fragment absorbs
// whatever rounding leaves over. Word boundaries are not respected.
func Distribute(b Binding, translated string) []Piece {
	n := len(b.Fragments)
	if n == 0 {
		return nil
	}
	repl := []rune(Replacement(b.Segment, translated))

	total := 0
	for _, f := range b.Fragments {
		total += span(f)
	}

	pieces := make([]Piece, 0, n)
	consumed := 0
	for i, f := range b.Fragments {
		take := len(repl) - consumed
		if i < n-1 {
			share := int(math.Round(float64(span(f)) / float64(total) * float64(len(repl))))
			take = min(share, take)
		}
		pieces = append(pieces, Piece{Node: f.Node, Text: string(repl[consumed : consumed+take])})
		consumed += take
	}
	return pieces
}

func span(f Fragment) int {
	if n := f.Len(); n > 0 {
		return n
	}
	return 1
}

// Accumulator gathers pieces per node so that every node is written once.
type Accumulator struct {
	order  []int
	pieces map[int]*strings.Builder
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{pieces: make(map[int]*strings.Builder)}
}

// Add appends pieces in the order given.
func (a *Accumulator) Add(pieces ...Piece) {
	for _, p := range pieces {
		sb, ok := a.pieces[p.Node]
		if !ok {
			sb = &strings.Builder{}
			a.pieces[p.Node] = sb
			a.order = append(a.order, p.Node)
		}
		sb.WriteString(p.Text)
	}
}

// Texts returns the concatenated text per node in first-seen order.
func (a *Accumulator) Texts() []NodeText {
	out := make([]NodeText, 0, len(a.order))
	for _, node := range a.order {
		out = append(out, NodeText{Node: node, Text: a.pieces[node].String()})
	}
	return out
}

// Redistribute computes the new text of every bound node. A missing
// translation falls back to the segment's source text.
func Redistribute(bindings []Binding, translated []string) []NodeText {
	acc := NewAccumulator()
	for i, b := range bindings {
		text := b.Segment.Text
		if i < len(translated) {
			text = translated[i]
		}
		acc.Add(Distribute(b, text)...)
	}
	return acc.Texts()
}
