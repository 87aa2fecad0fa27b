package segment

import "unicode/utf8"

// NodeRange locates one text-bearing node inside a unit's flat text.
// Node is an index into the owning document's node arena.
type NodeRange struct {
	Node  int
	Start int
	End   int
}

// Fragment is the part of a node that a segment overlaps, in offsets
// relative to the node's own text.
type Fragment struct {
	Node  int
	Start int
	End   int
}

// Len returns the fragment length in runes.
func (f Fragment) Len() int {
	return f.End - f.Start
}

// Binding ties a segment to the ordered fragments it was cut from.
type Binding struct {
	Segment   Segment
	Fragments []Fragment
}

// BuildRanges lays out node texts back to back and returns their ranges.
func BuildRanges(nodes []int, texts []string) []NodeRange {
	ranges := make([]NodeRange, 0, len(nodes))
	offset := 0
	for i, node := range nodes {
		n := utf8.RuneCountInString(texts[i])
		ranges = append(ranges, NodeRange{Node: node, Start: offset, End: offset + n})
		offset += n
	}
	return ranges
}

// Bind intersects every segment span with every node range. Segments that
// end up with no fragment are returned separately so the caller can report
// the inconsistency.
func Bind(segs []Segment, ranges []NodeRange) (bindings []Binding, dropped []Segment) {
	bindings = make([]Binding, 0, len(segs))
	for _, seg := range segs {
		spanStart := seg.SpanStart()
		var frags []Fragment
		for _, r := range ranges {
			start := max(spanStart, r.Start)
			end := min(seg.End, r.End)
			if start >= end {
				continue
			}
			frags = append(frags, Fragment{
				Node:  r.Node,
				Start: start - r.Start,
				End:   end - r.Start,
			})
		}
		if len(frags) == 0 {
			dropped = append(dropped, seg)
			continue
		}
		bindings = append(bindings, Binding{Segment: seg, Fragments: frags})
	}
	return bindings, dropped
}
