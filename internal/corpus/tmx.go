package corpus

import (
	"encoding/xml"
	"strconv"
	"time"

	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

// tmxHeaderAttributes TMX 1.4 header 的必需属性
var tmxHeaderAttributes = []string{
	"creationtool", "creationtoolversion", "segtype", "o-tmf", "adminlang", "srclang", "datatype",
}

// ValidateTMX 检查 TMX 1.4 结构
// 只有一个 tuv 的 tu 不算错误，解析时会被跳过
func ValidateTMX(data []byte) error {
	tree, root, err := parse(data)
	if err != nil {
		return err
	}
	if tree.LocalName(root) != "tmx" {
		return invalid("root element is <%s>, want <tmx>", tree.Nodes[root].Name)
	}

	header := tree.First(root, document.ByLocal("header"))
	if header < 0 {
		return invalid("missing <header>")
	}
	for _, a := range tmxHeaderAttributes {
		if attr(tree, header, a) == "" {
			return invalid("header attribute %q is missing", a)
		}
	}

	body := tree.First(root, document.ByLocal("body"))
	if body < 0 {
		return invalid("missing <body>")
	}
	tus := tree.FindAll(body, document.ByLocal("tu"))
	if len(tus) == 0 {
		return invalid("no translation units")
	}
	for _, tu := range tus {
		tuid := attr(tree, tu, "tuid")
		if _, err := strconv.Atoi(tuid); err != nil {
			return invalid("tu has non-numeric tuid %q", tuid)
		}
		tuvs := tree.FindAll(tu, document.ByLocal("tuv"))
		if len(tuvs) < 2 {
			continue
		}
		for _, tuv := range tuvs {
			if attr(tree, tuv, "xml:lang") == "" && attr(tree, tuv, "lang") == "" {
				return invalid("tuv in tu %s has no language", tuid)
			}
			if text(tree, tree.First(tuv, document.ByLocal("seg"))) == "" {
				return invalid("tuv in tu %s has an empty segment", tuid)
			}
		}
	}
	return nil
}

// ParseTMX 读取 TMX，每个 tu 的第一个 tuv 是源段，其余是译文
func ParseTMX(data []byte) (*tm.Memory, error) {
	if err := ValidateTMX(data); err != nil {
		return nil, err
	}
	tree, root, _ := parse(data)
	header := tree.First(root, document.ByLocal("header"))

	m := &tm.Memory{Name: "New TM", SourceLang: attr(tree, header, "srclang")}
	for _, prop := range tree.ChildrenNamed(header, document.ByLocal("prop")) {
		switch attr(tree, prop, "type") {
		case "id":
			m.ID, _ = strconv.ParseInt(text(tree, prop), 10, 64)
		case "name":
			if name := text(tree, prop); name != "" {
				m.Name = name
			}
		}
	}

	for _, tu := range tree.FindAll(root, document.ByLocal("tu")) {
		tuvs := tree.FindAll(tu, document.ByLocal("tuv"))
		if len(tuvs) < 2 {
			continue
		}
		var entry tm.Entry
		for k, tuv := range tuvs {
			lang := attr(tree, tuv, "xml:lang")
			if lang == "" {
				lang = attr(tree, tuv, "lang")
			}
			v := tm.Variant{Lang: lang, Segment: content(tree, tree.First(tuv, document.ByLocal("seg")))}
			if k == 0 {
				entry.Source = v
				continue
			}
			entry.Targets = append(entry.Targets, v)
		}
		m.Entries = append(m.Entries, entry)
	}
	return m, nil
}

type tmxDoc struct {
	XMLName xml.Name  `xml:"tmx"`
	Version string    `xml:"version,attr"`
	Header  tmxHeader `xml:"header"`
	TUs     []tmxTU   `xml:"body>tu"`
}

type tmxHeader struct {
	CreationTool        string    `xml:"creationtool,attr"`
	CreationToolVersion string    `xml:"creationtoolversion,attr"`
	DataType            string    `xml:"datatype,attr"`
	SegType             string    `xml:"segtype,attr"`
	AdminLang           string    `xml:"adminlang,attr"`
	SrcLang             string    `xml:"srclang,attr"`
	OTMF                string    `xml:"o-tmf,attr"`
	CreationDate        string    `xml:"creationdate,attr"`
	CreationID          string    `xml:"creationid,attr"`
	ChangeDate          string    `xml:"changedate,attr"`
	ChangeID            string    `xml:"changeid,attr"`
	Props               []tmxProp `xml:"prop"`
}

type tmxProp struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type tmxTU struct {
	TUID int      `xml:"tuid,attr"`
	TUVs []tmxTUV `xml:"tuv"`
}

type tmxTUV struct {
	Lang string `xml:"xml:lang,attr"`
	Seg  string `xml:"seg"`
}

// tmxTime TMX 日期格式 YYYYMMDDThhmmssZ
func tmxTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// EncodeTMX 生成 TMX 1.4
func EncodeTMX(m *tm.Memory, now time.Time) ([]byte, error) {
	stamp := tmxTime(now)
	srcLang := m.SourceLang
	if srcLang == "" && len(m.Entries) > 0 {
		srcLang = m.Entries[0].Source.Lang
	}

	doc := tmxDoc{
		Version: "1.4",
		Header: tmxHeader{
			CreationTool:        "go-translator-workbench",
			CreationToolVersion: "1.0",
			DataType:            "unknown",
			SegType:             "sentence",
			AdminLang:           "en-us",
			SrcLang:             srcLang,
			OTMF:                "WorkbenchTM",
			CreationDate:        stamp,
			CreationID:          "System",
			ChangeDate:          stamp,
			ChangeID:            "System",
			Props: []tmxProp{
				{Type: "id", Value: strconv.FormatInt(m.ID, 10)},
				{Type: "name", Value: m.Name},
			},
		},
	}
	for i, e := range m.Entries {
		lang := e.Source.Lang
		if lang == "" {
			lang = srcLang
		}
		tu := tmxTU{TUID: i + 1, TUVs: []tmxTUV{{Lang: lang, Seg: e.Source.Segment}}}
		for _, t := range e.Targets {
			tu.TUVs = append(tu.TUVs, tmxTUV{Lang: t.Lang, Seg: t.Segment})
		}
		doc.TUs = append(doc.TUs, tu)
	}
	return marshal(doc)
}
