package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatJSON 资源文件（i18n 字典）格式
const FormatJSON Format = "json"

// UnitString JSON 字符串值
const UnitString UnitKind = "string"

type jsonKind int

const (
	jsonObject jsonKind = iota
	jsonArray
	jsonString
	jsonScalar
)

// jsonValue 保持键顺序的 JSON 值
type jsonValue struct {
	kind   jsonKind
	keys   []string
	items  []*jsonValue
	str    string
	scalar string
	node   int
}

// jsonTree 字符串叶子是节点，键路径作为单元标签
type jsonTree struct {
	root    *jsonValue
	strings []*jsonValue
	units   []Unit
}

// OpenJSON 解析 JSON 资源文件，每个非空字符串值是一个单元
func OpenJSON(src Source, opts Options) (Tree, error) {
	content, ok := src.Parts[ContentPart]
	if !ok {
		return nil, unsupported(FormatJSON, ContentPart, ErrMissingPart)
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	t := &jsonTree{}
	root, err := t.parse(dec)
	if err != nil {
		return nil, unsupported(FormatJSON, ContentPart, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, unsupported(FormatJSON, ContentPart, errors.New("trailing data after JSON value"))
	}
	t.root = root
	t.collect(root, "$")

	opts.logger().Debug("json resource parsed")
	return t, nil
}

func (t *jsonTree) parse(dec *json.Decoder) (*jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := &jsonValue{kind: jsonObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				item, err := t.parse(dec)
				if err != nil {
					return nil, err
				}
				obj.keys = append(obj.keys, key)
				obj.items = append(obj.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &jsonValue{kind: jsonArray}
			for dec.More() {
				item, err := t.parse(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", v)
		}
	case string:
		s := &jsonValue{kind: jsonString, str: v, node: len(t.strings)}
		t.strings = append(t.strings, s)
		return s, nil
	case json.Number:
		return &jsonValue{kind: jsonScalar, scalar: v.String()}, nil
	case bool:
		return &jsonValue{kind: jsonScalar, scalar: strconv.FormatBool(v)}, nil
	case nil:
		return &jsonValue{kind: jsonScalar, scalar: "null"}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// collect 按文档顺序生成单元，标签形如 $.menu.items[0]
func (t *jsonTree) collect(v *jsonValue, path string) {
	switch v.kind {
	case jsonObject:
		for i, key := range v.keys {
			t.collect(v.items[i], path+"."+key)
		}
	case jsonArray:
		for i, item := range v.items {
			t.collect(item, fmt.Sprintf("%s[%d]", path, i))
		}
	case jsonString:
		if isBlank(v.str) {
			return
		}
		t.units = append(t.units, newUnit(UnitString, path, []int{v.node}, []string{v.str}))
	}
}

func (t *jsonTree) Format() Format {
	return FormatJSON
}

func (t *jsonTree) Units() []Unit {
	return t.units
}

func (t *jsonTree) NodeText(node int) string {
	return t.strings[node].str
}

func (t *jsonTree) SetNodeText(node int, text string) {
	t.strings[node].str = text
}

// Parts 以两个空格缩进重新输出，不转义 HTML 字符
func (t *jsonTree) Parts() (map[string]string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, t.root, ""); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return map[string]string{ContentPart: buf.String()}, nil
}

func writeJSON(buf *bytes.Buffer, v *jsonValue, indent string) error {
	switch v.kind {
	case jsonObject, jsonArray:
		lb, rb := byte('{'), byte('}')
		if v.kind == jsonArray {
			lb, rb = '[', ']'
		}
		if len(v.items) == 0 {
			buf.WriteByte(lb)
			buf.WriteByte(rb)
			return nil
		}
		inner := indent + "  "
		buf.WriteByte(lb)
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
			buf.WriteString(inner)
			if v.kind == jsonObject {
				if err := writeJSONString(buf, v.keys[i]); err != nil {
					return err
				}
				buf.WriteString(": ")
			}
			if err := writeJSON(buf, item, inner); err != nil {
				return err
			}
		}
		buf.WriteByte('\n')
		buf.WriteString(indent)
		buf.WriteByte(rb)
	case jsonString:
		return writeJSONString(buf, v.str)
	default:
		buf.WriteString(v.scalar)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
