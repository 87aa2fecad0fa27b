package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// XMLNodeKind 节点类型
type XMLNodeKind int

const (
	XMLElement XMLNodeKind = iota
	XMLText
	XMLComment
	XMLProcInst
	XMLDirective
)

// XMLAttr 属性，名称保留原始前缀（如 w:val）
type XMLAttr struct {
	Name  string
	Value string
}

// XMLNode 节点
type XMLNode struct {
	Kind     XMLNodeKind
	Name     string
	Attrs    []XMLAttr
	Data     string
	Parent   int
	Children []int
}

// XMLTree 以数组存放节点的 XML 树，命名空间前缀原样保留
type XMLTree struct {
	Nodes []XMLNode
	Roots []int
}

// ParseXML 解析 XML 文本
func ParseXML(data string) (*XMLTree, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	t := &XMLTree{}
	var stack []int
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}

		switch tk := tok.(type) {
		case xml.StartElement:
			n := XMLNode{Kind: XMLElement, Name: qualifiedName(tk.Name), Parent: parent}
			for _, a := range tk.Attr {
				n.Attrs = append(n.Attrs, XMLAttr{Name: qualifiedName(a.Name), Value: a.Value})
			}
			idx := t.add(n)
			stack = append(stack, idx)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unexpected end element %s", qualifiedName(tk.Name))
			}
			top := stack[len(stack)-1]
			if name := qualifiedName(tk.Name); t.Nodes[top].Name != name {
				return nil, fmt.Errorf("parse xml: element %s closed by %s", t.Nodes[top].Name, name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			t.add(XMLNode{Kind: XMLText, Data: string(tk), Parent: parent})
		case xml.Comment:
			t.add(XMLNode{Kind: XMLComment, Data: string(tk), Parent: parent})
		case xml.ProcInst:
			t.add(XMLNode{Kind: XMLProcInst, Name: tk.Target, Data: string(tk.Inst), Parent: parent})
		case xml.Directive:
			t.add(XMLNode{Kind: XMLDirective, Data: string(tk), Parent: parent})
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("parse xml: unclosed element %s", t.Nodes[stack[len(stack)-1]].Name)
	}
	return t, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func (t *XMLTree) add(n XMLNode) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	if n.Parent < 0 {
		t.Roots = append(t.Roots, idx)
	} else {
		t.Nodes[n.Parent].Children = append(t.Nodes[n.Parent].Children, idx)
	}
	return idx
}

// Root 返回第一个根元素，没有则返回 -1
func (t *XMLTree) Root() int {
	for _, r := range t.Roots {
		if t.Nodes[r].Kind == XMLElement {
			return r
		}
	}
	return -1
}

// LocalName 去掉前缀的元素名
func (t *XMLTree) LocalName(i int) string {
	name := t.Nodes[i].Name
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Attr 获取属性值
func (t *XMLTree) Attr(i int, name string) (string, bool) {
	for _, a := range t.Nodes[i].Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr 设置属性值，不存在则追加
func (t *XMLTree) SetAttr(i int, name, value string) {
	n := &t.Nodes[i]
	for k := range n.Attrs {
		if n.Attrs[k].Name == name {
			n.Attrs[k].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, XMLAttr{Name: name, Value: value})
}

// Text 返回所有后代文本节点的拼接
func (t *XMLTree) Text(i int) string {
	n := &t.Nodes[i]
	if n.Kind == XMLText {
		return n.Data
	}
	var sb strings.Builder
	t.collectText(i, &sb)
	return sb.String()
}

func (t *XMLTree) collectText(i int, sb *strings.Builder) {
	for _, c := range t.Nodes[i].Children {
		switch t.Nodes[c].Kind {
		case XMLText:
			sb.WriteString(t.Nodes[c].Data)
		case XMLElement:
			t.collectText(c, sb)
		}
	}
}

// SetText 用单个文本节点替换元素的全部子节点
func (t *XMLTree) SetText(i int, text string) {
	n := &t.Nodes[i]
	if n.Kind == XMLText {
		n.Data = text
		return
	}
	if len(n.Children) == 1 && t.Nodes[n.Children[0]].Kind == XMLText {
		t.Nodes[n.Children[0]].Data = text
		return
	}
	for _, c := range n.Children {
		t.Nodes[c].Parent = -1
	}
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, XMLNode{Kind: XMLText, Data: text, Parent: i})
	t.Nodes[i].Children = []int{idx}
}

// FindAll 先序遍历返回满足条件的后代元素
func (t *XMLTree) FindAll(i int, match func(t *XMLTree, i int) bool) []int {
	var out []int
	var walk func(int)
	walk = func(n int) {
		for _, c := range t.Nodes[n].Children {
			if t.Nodes[c].Kind != XMLElement {
				continue
			}
			if match(t, c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(i)
	return out
}

// First 返回第一个满足条件的后代元素，没有则返回 -1
func (t *XMLTree) First(i int, match func(t *XMLTree, i int) bool) int {
	if found := t.FindAll(i, match); len(found) > 0 {
		return found[0]
	}
	return -1
}

// Closest 返回最近的满足条件的祖先元素，没有则返回 -1
func (t *XMLTree) Closest(i int, match func(t *XMLTree, i int) bool) int {
	for p := t.Nodes[i].Parent; p >= 0; p = t.Nodes[p].Parent {
		if match(t, p) {
			return p
		}
	}
	return -1
}

// ChildrenNamed 返回满足条件的直接子元素
func (t *XMLTree) ChildrenNamed(i int, match func(t *XMLTree, i int) bool) []int {
	var out []int
	for _, c := range t.Nodes[i].Children {
		if t.Nodes[c].Kind == XMLElement && match(t, c) {
			out = append(out, c)
		}
	}
	return out
}

// ByName 按带前缀的全名匹配
func ByName(name string) func(*XMLTree, int) bool {
	return func(t *XMLTree, i int) bool {
		return t.Nodes[i].Name == name
	}
}

// ByLocal 按本地名匹配，忽略前缀
func ByLocal(local string) func(*XMLTree, int) bool {
	return func(t *XMLTree, i int) bool {
		return t.LocalName(i) == local
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// String 序列化整棵树
func (t *XMLTree) String() string {
	var buf bytes.Buffer
	for _, r := range t.Roots {
		t.write(&buf, r)
	}
	return buf.String()
}

func (t *XMLTree) write(buf *bytes.Buffer, i int) {
	n := &t.Nodes[i]
	switch n.Kind {
	case XMLText:
		buf.WriteString(textEscaper.Replace(n.Data))
	case XMLComment:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case XMLProcInst:
		buf.WriteString("<?")
		buf.WriteString(n.Name)
		if n.Data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Data)
		}
		buf.WriteString("?>")
	case XMLDirective:
		buf.WriteString("<!")
		buf.WriteString(n.Data)
		buf.WriteString(">")
	case XMLElement:
		buf.WriteByte('<')
		buf.WriteString(n.Name)
		for _, a := range n.Attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name)
			buf.WriteString(`="`)
			buf.WriteString(attrEscaper.Replace(a.Value))
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			t.write(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.Name)
		buf.WriteByte('>')
	}
}
