// Package corpus 读写交换格式：TMX 翻译记忆、TBX 术语库和 XLIFF 项目文件
package corpus

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
)

// ErrUnsupportedCorpus 根元素或结构无法识别
var ErrUnsupportedCorpus = errors.New("unsupported corpus file")

// Kind 交换格式类型
type Kind string

const (
	KindTMX   Kind = "tmx"
	KindTBX   Kind = "tbx"
	KindXLIFF Kind = "xliff"
)

// Detect 根据根元素判断文件类型
func Detect(data []byte) (Kind, error) {
	tree, root, err := parse(data)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(tree.LocalName(root)) {
	case "tmx":
		return KindTMX, nil
	case "tbx", "martif":
		return KindTBX, nil
	case "xliff":
		return KindXLIFF, nil
	default:
		return "", invalid("unknown root element <%s>", tree.Nodes[root].Name)
	}
}

func parse(data []byte) (*document.XMLTree, int, error) {
	tree, err := document.ParseXML(string(data))
	if err != nil {
		return nil, -1, fmt.Errorf("%w: %v", ErrUnsupportedCorpus, err)
	}
	root := tree.Root()
	if root < 0 {
		return nil, -1, invalid("no root element")
	}
	return tree, root, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedCorpus, fmt.Sprintf(format, args...))
}

// text 去掉首尾空白的元素文本，i < 0 时为空
func text(tree *document.XMLTree, i int) string {
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(tree.Text(i))
}

// content 元素的原始文本，不去空白
func content(tree *document.XMLTree, i int) string {
	if i < 0 {
		return ""
	}
	return tree.Text(i)
}

func attr(tree *document.XMLTree, i int, name string) string {
	if i < 0 {
		return ""
	}
	v, _ := tree.Attr(i, name)
	return v
}

// marshal 输出带 XML 声明、两个空格缩进的文档
func marshal(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
