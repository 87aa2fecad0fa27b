package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// inlineElements 行内元素不打断文本单元
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "acronym": true, "b": true, "bdi": true, "bdo": true,
	"big": true, "br": true, "cite": true, "code": true, "data": true, "del": true,
	"dfn": true, "em": true, "font": true, "i": true, "img": true, "input": true,
	"ins": true, "kbd": true, "label": true, "mark": true, "q": true, "s": true,
	"samp": true, "small": true, "span": true, "strike": true, "strong": true,
	"sub": true, "sup": true, "time": true, "tt": true, "u": true, "var": true,
	"wbr": true,
}

var fullDocumentPattern = regexp.MustCompile(`(?i)<html[\s>]|<!doctype`)

// htmlSlot 节点槽位：文本节点，或者元素上的某个属性
type htmlSlot struct {
	node *html.Node
	attr string
}

type htmlTree struct {
	doc      *goquery.Document
	full     bool
	slots    []htmlSlot
	units    []Unit
	ignored  map[string]bool
	attrs    []string
	logger   *zap.Logger
	open     int
	openText []string
	openIdx  []int
}

// OpenHTML 解析 HTML
// 块级元素之间的文本节点组成一个单元，白名单属性在元素结束后各自成为单元
func OpenHTML(src Source, opts Options) (Tree, error) {
	content, ok := src.Parts[ContentPart]
	if !ok {
		return nil, unsupported(FormatHTML, ContentPart, ErrMissingPart)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, unsupported(FormatHTML, ContentPart, err)
	}

	ignored := opts.IgnoredTags
	if len(ignored) == 0 {
		ignored = DefaultIgnoredTags
	}
	attrs := opts.Attributes
	if len(attrs) == 0 {
		attrs = DefaultAttributes
	}

	h := &htmlTree{
		doc:     doc,
		full:    fullDocumentPattern.MatchString(content),
		ignored: make(map[string]bool, len(ignored)),
		attrs:   attrs,
		logger:  opts.logger(),
		open:    -1,
	}
	for _, tag := range ignored {
		h.ignored[strings.ToLower(tag)] = true
	}

	for _, n := range doc.Nodes {
		h.walk(n)
	}
	h.flush()

	h.logger.Debug("html opened",
		zap.Bool("full_document", h.full),
		zap.Int("units", len(h.units)))
	return h, nil
}

func (h *htmlTree) walk(n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			h.walk(c)
		}
	case html.TextNode:
		if h.open < 0 {
			if isBlank(n.Data) {
				return
			}
			// 先占位，保证文本单元排在其中元素的属性单元之前
			h.open = len(h.units)
			h.units = append(h.units, Unit{})
		}
		h.openIdx = append(h.openIdx, h.slot(htmlSlot{node: n}))
		h.openText = append(h.openText, n.Data)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if h.ignored[tag] {
			return
		}
		block := !inlineElements[tag]
		if block {
			h.flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			h.walk(c)
		}
		if block {
			h.flush()
		}
		h.collectAttributes(n, tag)
	}
}

func (h *htmlTree) collectAttributes(n *html.Node, tag string) {
	for _, name := range h.attrs {
		for _, a := range n.Attr {
			if a.Namespace != "" || !strings.EqualFold(a.Key, name) || isBlank(a.Val) {
				continue
			}
			idx := h.slot(htmlSlot{node: n, attr: a.Key})
			unit := newUnit(UnitAttribute, fmt.Sprintf("%s@%s", tag, a.Key), []int{idx}, []string{a.Val})
			h.units = append(h.units, unit)
		}
	}
}

func (h *htmlTree) flush() {
	if h.open < 0 {
		return
	}
	h.units[h.open] = newUnit(UnitBlock, fmt.Sprintf("block %d", h.open+1), h.openIdx, h.openText)
	h.open = -1
	h.openIdx = nil
	h.openText = nil
}

func (h *htmlTree) slot(s htmlSlot) int {
	h.slots = append(h.slots, s)
	return len(h.slots) - 1
}

func (h *htmlTree) Format() Format {
	return FormatHTML
}

func (h *htmlTree) Units() []Unit {
	return h.units
}

func (h *htmlTree) NodeText(node int) string {
	s := h.slots[node]
	if s.attr == "" {
		return s.node.Data
	}
	for _, a := range s.node.Attr {
		if a.Key == s.attr {
			return a.Val
		}
	}
	return ""
}

func (h *htmlTree) SetNodeText(node int, text string) {
	s := h.slots[node]
	if s.attr == "" {
		s.node.Data = text
		return
	}
	for i := range s.node.Attr {
		if s.node.Attr[i].Key == s.attr {
			s.node.Attr[i].Val = text
			return
		}
	}
	s.node.Attr = append(s.node.Attr, html.Attribute{Key: s.attr, Val: text})
}

// Parts 片段输入只输出 body 内容
func (h *htmlTree) Parts() (map[string]string, error) {
	var (
		out string
		err error
	)
	if h.full {
		out, err = h.doc.Html()
	} else {
		out, err = h.doc.Find("body").Html()
	}
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return map[string]string{ContentPart: out}, nil
}
