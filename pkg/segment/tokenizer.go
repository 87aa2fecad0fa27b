// Package segment splits flat text into translation segments, binds them to
// the document fragments they came from and redistributes translated text
// back over those fragments.
package segment

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultTokens 默认的句子边界标记
var DefaultTokens = []string{".", "?", "!", "。", "！", "？"}

// Segment is one translation unit sliced out of a flat text.
//
// Start is the rune offset of Text, End the offset just past Separator.
// Lead only appears on the first segment of a text and holds the whitespace
// that precedes it.
type Segment struct {
	Text      string
	Separator string
	Lead      string
	Start     int
	End       int
	// Opaque segments are replaced verbatim and never split or padded.
	Opaque bool
}

// SpanStart returns the offset where the segment's span begins, Lead included.
func (s Segment) SpanStart() int {
	return s.Start - utf8.RuneCountInString(s.Lead)
}

// Mode selects how boundaries are detected.
type Mode int

const (
	// ModeStrict splits after every token occurrence.
	ModeStrict Mode = iota
	// ModeSentenceCase only splits when the token is followed by optional
	// whitespace and an upper-case letter or the end of the text.
	ModeSentenceCase
	// ModeWhitespace splits on runs of whitespace.
	ModeWhitespace
	// ModeWhole never splits: each text is a single segment.
	ModeWhole
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeSentenceCase:
		return "sentence-case"
	case ModeWhitespace:
		return "whitespace"
	case ModeWhole:
		return "whole"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the textual form used in configuration files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ModeStrict, nil
	case "sentence-case", "sentence_case", "heuristic":
		return ModeSentenceCase, nil
	case "whitespace":
		return ModeWhitespace, nil
	case "whole", "none":
		return ModeWhole, nil
	default:
		return ModeStrict, fmt.Errorf("unknown segmentation mode: %q", s)
	}
}

// Options configures a Tokenizer.
type Options struct {
	Tokens []string
	Mode   Mode
}

// DefaultOptions returns strict splitting on DefaultTokens.
func DefaultOptions() Options {
	tokens := make([]string, len(DefaultTokens))
	copy(tokens, DefaultTokens)
	return Options{Tokens: tokens, Mode: ModeStrict}
}

// Tokenizer splits text into segments. It is safe for concurrent use.
type Tokenizer struct {
	mode    Mode
	tokens  []string
	runes   [][]rune
	pattern *regexp2.Regexp
}

// NewTokenizer compiles opts. Blank tokens are dropped; when nothing usable
// remains the tokenizer falls back to whitespace splitting. ModeWhole ignores
// tokens.
func NewTokenizer(opts Options) *Tokenizer {
	tokens := normalizeTokens(opts.Tokens)
	t := &Tokenizer{mode: opts.Mode, tokens: tokens}
	if t.mode == ModeWhole {
		t.tokens = nil
		return t
	}
	if len(tokens) == 0 {
		t.mode = ModeWhitespace
		return t
	}

	t.runes = make([][]rune, len(tokens))
	for i, tok := range tokens {
		t.runes[i] = []rune(tok)
	}

	if t.mode == ModeSentenceCase {
		escaped := make([]string, len(tokens))
		for i, tok := range tokens {
			escaped[i] = regexp2.Escape(tok)
		}
		pattern := `(` + strings.Join(escaped, "|") + `)\s*(?=\p{Lu}|\z)`
		t.pattern = regexp2.MustCompile(pattern, regexp2.None)
	}
	return t
}

// Mode reports the effective mode after fallback.
func (t *Tokenizer) Mode() Mode {
	return t.mode
}

// Tokens returns the normalized token set, longest first.
func (t *Tokenizer) Tokens() []string {
	out := make([]string, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// Split slices text into segments. Joining the result reproduces text
// whenever it contains at least one non-space character.
func (t *Tokenizer) Split(text string) []Segment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if t.mode == ModeWhitespace {
		return splitWhitespace(runes)
	}

	var boundaries []int
	switch {
	case t.mode == ModeWhole:
	case t.pattern != nil:
		boundaries = t.patternBoundaries(runes)
	default:
		boundaries = t.strictBoundaries(runes)
	}

	var segs []Segment
	cursor := 0
	for _, b := range boundaries {
		if b <= cursor {
			continue
		}
		end := skipSpace(runes, b)
		segs = appendSegment(segs, runes, cursor, b, end)
		cursor = end
	}
	if cursor < len(runes) {
		segs = appendSegment(segs, runes, cursor, len(runes), len(runes))
	}
	return segs
}

// Split is a shorthand for a strict tokenizer over tokens.
func Split(text string, tokens []string) []Segment {
	return NewTokenizer(Options{Tokens: tokens, Mode: ModeStrict}).Split(text)
}

// Join concatenates Lead, Text and Separator of every segment in order.
func Join(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Lead)
		sb.WriteString(s.Text)
		sb.WriteString(s.Separator)
	}
	return sb.String()
}

func (t *Tokenizer) strictBoundaries(runes []rune) []int {
	var out []int
	for i := 0; i < len(runes); {
		if n := t.matchToken(runes, i); n > 0 {
			i += n
			out = append(out, i)
			continue
		}
		i++
	}
	return out
}

// matchToken returns the rune length of the longest token at position i.
func (t *Tokenizer) matchToken(runes []rune, i int) int {
	for _, tok := range t.runes {
		if len(tok) > len(runes)-i {
			continue
		}
		matched := true
		for j, r := range tok {
			if runes[i+j] != r {
				matched = false
				break
			}
		}
		if matched {
			return len(tok)
		}
	}
	return 0
}

func (t *Tokenizer) patternBoundaries(runes []rune) []int {
	var out []int
	m, err := t.pattern.FindRunesMatch(runes)
	for err == nil && m != nil {
		g := m.GroupByNumber(1)
		out = append(out, g.Index+g.Length)
		m, err = t.pattern.FindNextMatch(m)
	}
	return out
}

func appendSegment(segs []Segment, runes []rune, rawStart, rawEnd, end int) []Segment {
	start := rawStart
	for start < rawEnd && unicode.IsSpace(runes[start]) {
		start++
	}
	trimmedEnd := rawEnd
	for trimmedEnd > start && unicode.IsSpace(runes[trimmedEnd-1]) {
		trimmedEnd--
	}

	if start == trimmedEnd {
		// nothing but whitespace: it belongs to the previous separator
		if n := len(segs); n > 0 {
			segs[n-1].Separator += string(runes[rawStart:end])
			segs[n-1].End = end
		}
		return segs
	}

	seg := Segment{
		Text:      string(runes[start:trimmedEnd]),
		Separator: string(runes[trimmedEnd:end]),
		Start:     start,
		End:       end,
	}
	if n := len(segs); n == 0 {
		seg.Lead = string(runes[rawStart:start])
	} else if start > rawStart {
		segs[n-1].Separator += string(runes[rawStart:start])
		segs[n-1].End = start
	}
	return append(segs, seg)
}

func splitWhitespace(runes []rune) []Segment {
	var segs []Segment
	i := skipSpace(runes, 0)
	lead := string(runes[:i])
	for i < len(runes) {
		start := i
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			i++
		}
		textEnd := i
		i = skipSpace(runes, i)
		seg := Segment{
			Text:      string(runes[start:textEnd]),
			Separator: string(runes[textEnd:i]),
			Start:     start,
			End:       i,
		}
		if len(segs) == 0 {
			seg.Lead = lead
		}
		segs = append(segs, seg)
	}
	return segs
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

func normalizeTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}
