package document

import (
	"fmt"
	"strings"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// FormatMarkdown Markdown 文档
const FormatMarkdown Format = "markdown"

// UnitHeading Markdown 标题
const UnitHeading UnitKind = "heading"

// mdNode 一个 ast.Text 在源文件中的字节区间
// 软换行和硬换行在节点文本末尾用一个空格表示，写回时去掉，原换行保留
type mdNode struct {
	start, stop int
	text        string
	lineBreak   bool
}

// markdownTree 文本节点直接在源文件上替换，标记和空白原样保留
type markdownTree struct {
	source string
	nodes  []mdNode
	units  []Unit
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			mathjax.MathJax,
			meta.Meta,
		),
	)
}

// OpenMarkdown 解析 Markdown
// 代码、HTML、公式和 front matter 不提取，段落、标题、紧凑列表项和表格单元格各是一个单元
func OpenMarkdown(src Source, opts Options) (Tree, error) {
	content, ok := src.Parts[ContentPart]
	if !ok {
		return nil, unsupported(FormatMarkdown, ContentPart, ErrMissingPart)
	}

	source := []byte(content)
	doc := newMarkdown().Parser().Parse(text.NewReader(source))

	t := &markdownTree{source: content}

	var (
		block  ast.Node
		nodes  []int
		texts  []string
		counts = map[UnitKind]int{}
	)
	flush := func() {
		if block == nil {
			return
		}
		kind := blockKind(block)
		counts[kind]++
		if !isBlank(strings.Join(texts, "")) {
			label := fmt.Sprintf("%s %d", kind, counts[kind])
			if h, ok := block.(*ast.Heading); ok {
				label = fmt.Sprintf("h%d %d", h.Level, counts[kind])
			}
			t.units = append(t.units, newUnit(kind, label, nodes, texts))
		}
		block, nodes, texts = nil, nil, nil
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.CodeSpan, *ast.HTMLBlock, *ast.RawHTML,
			*ast.AutoLink, *mathjax.InlineMath, *mathjax.MathBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			parent := markdownBlock(n)
			if parent == nil {
				return ast.WalkContinue, nil
			}
			if parent != block {
				flush()
				block = parent
			}
			node := mdNode{
				start:     n.Segment.Start,
				stop:      n.Segment.Stop,
				text:      string(n.Segment.Value(source)),
				lineBreak: n.SoftLineBreak() || n.HardLineBreak(),
			}
			if node.lineBreak {
				node.text += " "
			}
			nodes = append(nodes, len(t.nodes))
			texts = append(texts, node.text)
			t.nodes = append(t.nodes, node)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, unsupported(FormatMarkdown, ContentPart, err)
	}
	flush()

	opts.logger().Debug("markdown parsed")
	return t, nil
}

// markdownBlock 返回文本所属的可翻译块
func markdownBlock(n ast.Node) ast.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock, *east.TableCell:
			return p
		}
	}
	return nil
}

func blockKind(n ast.Node) UnitKind {
	switch n.(type) {
	case *ast.Heading:
		return UnitHeading
	case *east.TableCell:
		return UnitCell
	default:
		return UnitParagraph
	}
}

func (t *markdownTree) Format() Format {
	return FormatMarkdown
}

func (t *markdownTree) Units() []Unit {
	return t.units
}

func (t *markdownTree) NodeText(node int) string {
	return t.nodes[node].text
}

func (t *markdownTree) SetNodeText(node int, text string) {
	t.nodes[node].text = text
}

// Parts 把节点文本拼回源文件，节点按源文件顺序排列且互不重叠
func (t *markdownTree) Parts() (map[string]string, error) {
	var sb strings.Builder
	sb.Grow(len(t.source))
	last := 0
	for _, n := range t.nodes {
		if n.start < last {
			continue
		}
		sb.WriteString(t.source[last:n.start])
		txt := n.text
		if n.lineBreak {
			txt = strings.TrimRight(txt, " \t")
		}
		sb.WriteString(txt)
		last = n.stop
	}
	sb.WriteString(t.source[last:])
	return map[string]string{ContentPart: sb.String()}, nil
}
