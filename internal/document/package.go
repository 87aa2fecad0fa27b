package document

import (
	"go.uber.org/zap"
)

type xmlRef struct {
	part int
	node int
}

// xmlPackage 由若干 XML 部件组成的文档（docx、xlsx）
// 节点索引是 refs 的下标，跨部件统一编号
type xmlPackage struct {
	format Format
	logger *zap.Logger
	names  []string
	trees  []*XMLTree
	refs   []xmlRef
	units  []Unit
	onSet  func(t *XMLTree, node int, text string)
}

func newXMLPackage(format Format, logger *zap.Logger) *xmlPackage {
	return &xmlPackage{format: format, logger: logger}
}

func (p *xmlPackage) addPart(name string, tree *XMLTree) int {
	p.names = append(p.names, name)
	p.trees = append(p.trees, tree)
	return len(p.trees) - 1
}

func (p *xmlPackage) ref(part, node int) int {
	p.refs = append(p.refs, xmlRef{part: part, node: node})
	return len(p.refs) - 1
}

// addUnit 收集文本节点生成单元，空白单元被跳过
func (p *xmlPackage) addUnit(kind UnitKind, label string, part int, nodes []int, opaque bool) {
	tree := p.trees[part]
	refs := make([]int, 0, len(nodes))
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		refs = append(refs, p.ref(part, n))
		texts = append(texts, tree.Text(n))
	}
	unit := newUnit(kind, label, refs, texts)
	unit.Opaque = opaque
	if isBlank(unit.Text) {
		p.logger.Debug("skip blank unit", zap.String("format", string(p.format)), zap.String("unit", label))
		return
	}
	p.units = append(p.units, unit)
}

func (p *xmlPackage) Format() Format {
	return p.format
}

func (p *xmlPackage) Units() []Unit {
	return p.units
}

func (p *xmlPackage) NodeText(node int) string {
	r := p.refs[node]
	return p.trees[r.part].Text(r.node)
}

func (p *xmlPackage) SetNodeText(node int, text string) {
	r := p.refs[node]
	tree := p.trees[r.part]
	tree.SetText(r.node, text)
	if p.onSet != nil {
		p.onSet(tree, r.node, text)
	}
}

func (p *xmlPackage) Parts() (map[string]string, error) {
	out := make(map[string]string, len(p.trees))
	for i, tree := range p.trees {
		out[p.names[i]] = tree.String()
	}
	return out, nil
}
