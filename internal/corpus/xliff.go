package corpus

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
)

const (
	xliff12Namespace = "urn:oasis:names:tc:xliff:document:1.2"
	xliff20Namespace = "urn:oasis:names:tc:xliff:document:2.0"
	mdaNamespace     = "urn:oasis:names:tc:xliff:metadata:2.0"
	wbNamespace      = "urn:go-translator-workbench:metadata"

	// metaCategory 项目元数据所在的 metaGroup
	metaCategory = "workbench_metadata"
)

// 元数据键
const (
	metaName    = "name"
	metaChecked = "checked"
	metaType    = "type"
	metaTypeRef = "type_ref"
)

type xliffMeta struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// projectMeta 把恢复项目所需的字段编码为元数据
func projectMeta(p *project.Project) ([]xliffMeta, error) {
	d := &p.TranslationData
	checked, err := json.Marshal(d.Checked)
	if err != nil {
		return nil, err
	}
	typeRef, err := json.Marshal(d.TypeRef)
	if err != nil {
		return nil, err
	}
	return []xliffMeta{
		{Type: metaName, Value: d.Name},
		{Type: metaChecked, Value: string(checked)},
		{Type: metaType, Value: d.Type},
		{Type: metaTypeRef, Value: string(typeRef)},
	}, nil
}

func segmentState(p *project.Project, i int) string {
	d := &p.TranslationData
	switch {
	case d.Checked[i]:
		return "final"
	case d.Seg2[i] != "":
		return "translated"
	default:
		return "initial"
	}
}

type xliff20Doc struct {
	XMLName  xml.Name    `xml:"xliff"`
	Xmlns    string      `xml:"xmlns,attr"`
	XmlnsMda string      `xml:"xmlns:mda,attr"`
	Version  string      `xml:"version,attr"`
	SrcLang  string      `xml:"srcLang,attr"`
	TrgLang  string      `xml:"trgLang,attr"`
	File     xliff20File `xml:"file"`
}

type xliff20File struct {
	ID       string        `xml:"id,attr"`
	Original string        `xml:"original,attr"`
	Metadata xliffMetadata `xml:"mda:metadata"`
	Units    []xliff20Unit `xml:"unit"`
}

type xliffMetadata struct {
	Group xliffMetaGroup `xml:"mda:metaGroup"`
}

type xliffMetaGroup struct {
	Category string      `xml:"category,attr"`
	Meta     []xliffMeta `xml:"mda:meta"`
}

type xliff20Unit struct {
	ID      string         `xml:"id,attr"`
	Segment xliff20Segment `xml:"segment"`
}

type xliff20Segment struct {
	State  string `xml:"state,attr,omitempty"`
	Source string `xml:"source"`
	Target string `xml:"target"`
}

// EncodeXLIFF20 导出 XLIFF 2.0，项目元数据放在 mda:metadata 中
func EncodeXLIFF20(p *project.Project) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	meta, err := projectMeta(p)
	if err != nil {
		return nil, err
	}

	d := &p.TranslationData
	doc := xliff20Doc{
		Xmlns:    xliff20Namespace,
		XmlnsMda: mdaNamespace,
		Version:  "2.0",
		SrcLang:  d.SourceLang,
		TrgLang:  d.TargetLang,
		File: xliff20File{
			ID:       fileID(p),
			Original: d.Name,
			Metadata: xliffMetadata{Group: xliffMetaGroup{Category: metaCategory, Meta: meta}},
		},
	}
	for i := range d.Seg1 {
		doc.File.Units = append(doc.File.Units, xliff20Unit{
			ID: strconv.Itoa(i + 1),
			Segment: xliff20Segment{
				State:  segmentState(p, i),
				Source: d.Seg1[i],
				Target: d.Seg2[i],
			},
		})
	}

	return marshal(doc)
}

type xliff12Doc struct {
	XMLName xml.Name    `xml:"xliff"`
	Xmlns   string      `xml:"xmlns,attr"`
	XmlnsWb string      `xml:"xmlns:wb,attr"`
	Version string      `xml:"version,attr"`
	File    xliff12File `xml:"file"`
}

type xliff12File struct {
	Original string        `xml:"original,attr"`
	SrcLang  string        `xml:"source-language,attr"`
	TrgLang  string        `xml:"target-language,attr"`
	DataType string        `xml:"datatype,attr"`
	ID       string        `xml:"header>wb:id"`
	Meta     []xliffMeta   `xml:"header>wb:meta"`
	Units    []xliff12Unit `xml:"body>trans-unit"`
}

type xliff12Unit struct {
	ID       string        `xml:"id,attr"`
	Approved string        `xml:"approved,attr,omitempty"`
	Source   string        `xml:"source"`
	Target   xliff12Target `xml:"target"`
}

type xliff12Target struct {
	State string `xml:"state,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// EncodeXLIFF12 导出 XLIFF 1.2，已确认的段标记为 approved
func EncodeXLIFF12(p *project.Project) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	meta, err := projectMeta(p)
	if err != nil {
		return nil, err
	}

	d := &p.TranslationData
	doc := xliff12Doc{
		Xmlns:   xliff12Namespace,
		XmlnsWb: wbNamespace,
		Version: "1.2",
		File: xliff12File{
			Original: d.Name,
			SrcLang:  d.SourceLang,
			TrgLang:  d.TargetLang,
			DataType: "plaintext",
			ID:       fileID(p),
			Meta:     meta,
		},
	}
	for i := range d.Seg1 {
		unit := xliff12Unit{
			ID:     strconv.Itoa(i + 1),
			Source: d.Seg1[i],
			Target: xliff12Target{State: segmentState(p, i), Text: d.Seg2[i]},
		}
		if d.Checked[i] {
			unit.Approved = "yes"
		}
		doc.File.Units = append(doc.File.Units, unit)
	}
	return marshal(doc)
}

func fileID(p *project.Project) string {
	if p.ID > 0 {
		return strconv.FormatInt(p.ID, 10)
	}
	return "1"
}

// ParseXLIFF 导入 XLIFF 1.2 或 2.x 项目
// 带有元数据时恢复名称、类型、确认状态和原始文档；否则生成可导出的纯文本项目
func ParseXLIFF(data []byte) (*project.Project, error) {
	tree, root, err := parse(data)
	if err != nil {
		return nil, err
	}
	if tree.LocalName(root) != "xliff" {
		return nil, invalid("root element is <%s>, want <xliff>", tree.Nodes[root].Name)
	}
	version, err := strconv.ParseFloat(attr(tree, root, "version"), 64)
	if err != nil {
		return nil, invalid("missing or invalid xliff version")
	}
	file := tree.First(root, document.ByLocal("file"))
	if file < 0 {
		return nil, invalid("missing <file>")
	}

	p := &project.Project{}
	d := &p.TranslationData
	var states []string

	if version >= 2 {
		d.SourceLang = attr(tree, root, "srcLang")
		d.TargetLang = attr(tree, root, "trgLang")
		for _, unit := range tree.FindAll(file, document.ByLocal("unit")) {
			seg := tree.First(unit, document.ByLocal("segment"))
			if seg < 0 {
				continue
			}
			d.Seg1 = append(d.Seg1, content(tree, tree.First(seg, document.ByLocal("source"))))
			d.Seg2 = append(d.Seg2, content(tree, tree.First(seg, document.ByLocal("target"))))
			states = append(states, attr(tree, seg, "state"))
		}
	} else {
		d.SourceLang = attr(tree, file, "source-language")
		d.TargetLang = attr(tree, file, "target-language")
		for _, unit := range tree.FindAll(file, document.ByLocal("trans-unit")) {
			target := tree.First(unit, document.ByLocal("target"))
			d.Seg1 = append(d.Seg1, content(tree, tree.First(unit, document.ByLocal("source"))))
			d.Seg2 = append(d.Seg2, content(tree, target))
			state := attr(tree, target, "state")
			if attr(tree, unit, "approved") == "yes" {
				state = "final"
			}
			states = append(states, state)
		}
	}
	if d.SourceLang == "" || d.TargetLang == "" {
		return nil, invalid("source and target languages are required")
	}
	if len(d.Seg1) == 0 {
		return nil, invalid("no translation units")
	}

	meta := make(map[string]string)
	for _, m := range tree.FindAll(file, document.ByLocal("meta")) {
		meta[attr(tree, m, "type")] = content(tree, m)
	}

	d.Name = meta[metaName]
	if d.Name == "" {
		d.Name = attr(tree, file, "original")
	}
	if d.Name == "" {
		d.Name = "Translation " + attr(tree, file, "id")
	}

	var checked []bool
	if raw := meta[metaChecked]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &checked); err != nil {
			return nil, invalid("checked metadata: %v", err)
		}
	}
	if len(checked) != len(d.Seg1) {
		checked = make([]bool, len(d.Seg1))
		for i, s := range states {
			checked[i] = s == "final"
		}
	}
	d.Checked = checked

	if raw := meta[metaTypeRef]; raw != "" && meta[metaType] != "" {
		if err := json.Unmarshal([]byte(raw), &d.TypeRef); err != nil {
			return nil, invalid("type_ref metadata: %v", err)
		}
		d.Type = meta[metaType]
	} else {
		// 没有原始文档：每个单元一行且整行是一段，导出时段数不变
		dropBlankUnits(d)
		lines := make([]string, len(d.Seg1))
		for i, s := range d.Seg1 {
			lines[i] = lineBreaks.Replace(s)
		}
		d.Type = string(document.FormatText)
		d.TypeRef = project.TypeRef{
			Parts: map[string]string{document.ContentPart: strings.Join(lines, "\n")},
			Mode:  segment.ModeWhole.String(),
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCorpus, err)
	}
	return p, nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// dropBlankUnits 去掉源文为空白的单元，纯文本适配器不会为空行生成段
func dropBlankUnits(d *project.TranslationData) {
	n := 0
	for i, s := range d.Seg1 {
		if strings.TrimSpace(s) == "" {
			continue
		}
		d.Seg1[n], d.Seg2[n], d.Checked[n] = s, d.Seg2[i], d.Checked[i]
		n++
	}
	if n == 0 {
		// 全部为空时保留一个占位段
		n = 1
	}
	d.Seg1, d.Seg2, d.Checked = d.Seg1[:n], d.Seg2[:n], d.Checked[:n]
}
