// Package document 定义了文档适配器接口
// 每种格式把原始标记解析为可寻址的文本节点，并按单元（段落、单元格、属性）提取文本
package document

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
)

// Format 文档格式
type Format string

const (
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// UnitKind 提取单元类型
type UnitKind string

const (
	UnitParagraph    UnitKind = "paragraph"
	UnitSharedString UnitKind = "shared-string"
	UnitCell         UnitKind = "cell"
	UnitBlock        UnitKind = "block"
	UnitAttribute    UnitKind = "attribute"
	UnitLine         UnitKind = "line"
)

// ContentPart 单文件格式（HTML、纯文本）使用的部件名
const ContentPart = "content"

// Tree 文档适配器
// 节点用整数索引寻址，写回时再解析到具体节点
type Tree interface {
	// Format 返回文档格式
	Format() Format

	// Units 按文档顺序返回所有提取单元
	Units() []Unit

	// NodeText 返回节点当前文本
	NodeText(node int) string

	// SetNodeText 替换节点文本
	SetNodeText(node int, text string)

	// Parts 序列化修改后的文档
	Parts() (map[string]string, error)
}

// Unit 提取单元：一组相邻文本节点拼接成的扁平文本
type Unit struct {
	Kind   UnitKind
	Label  string
	Ranges []segment.NodeRange
	Text   string
	// Opaque 单元整体替换，不分句
	Opaque bool
}

// Source 原始文档内容，部件路径 -> 标记文本
type Source struct {
	Format Format
	Parts  map[string]string
}

// Options 适配器选项
type Options struct {
	Logger *zap.Logger

	// IgnoredTags HTML 中整体跳过的元素
	IgnoredTags []string

	// Attributes HTML 中需要翻译的属性
	Attributes []string
}

// OpenFunc 适配器构造函数
type OpenFunc func(src Source, opts Options) (Tree, error)

// DefaultIgnoredTags 默认跳过的 HTML 元素
var DefaultIgnoredTags = []string{"script", "style", "noscript", "template"}

// DefaultAttributes 默认翻译的 HTML 属性
var DefaultAttributes = []string{"placeholder", "value", "alt", "title"}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func newUnit(kind UnitKind, label string, nodes []int, texts []string) Unit {
	ranges := segment.BuildRanges(nodes, texts)
	size := 0
	for _, t := range texts {
		size += len(t)
	}
	buf := make([]byte, 0, size)
	for _, t := range texts {
		buf = append(buf, t...)
	}
	return Unit{Kind: kind, Label: label, Ranges: ranges, Text: string(buf)}
}

// Len 返回单元文本的字符数
func (u Unit) Len() int {
	return utf8.RuneCountInString(u.Text)
}
