package document

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DocxDocumentPart 正文部件
	DocxDocumentPart = "word/document.xml"

	docxRoot      = "w:document"
	docxParagraph = "w:p"
	docxText      = "w:t"
)

// OpenDocx 解析 word/document.xml
// 单元是 w:p，节点是最近段落为该 w:p 的 w:t
func OpenDocx(src Source, opts Options) (Tree, error) {
	raw, ok := src.Parts[DocxDocumentPart]
	if !ok {
		return nil, unsupported(FormatDOCX, DocxDocumentPart, ErrMissingPart)
	}
	tree, err := ParseXML(raw)
	if err != nil {
		return nil, unsupported(FormatDOCX, DocxDocumentPart, err)
	}
	root := tree.Root()
	if root < 0 || tree.Nodes[root].Name != docxRoot {
		return nil, unsupported(FormatDOCX, DocxDocumentPart, fmt.Errorf("unexpected root element: %w", ErrUnsupportedFormat))
	}

	pkg := newXMLPackage(FormatDOCX, opts.logger())
	pkg.onSet = preserveSpace
	part := pkg.addPart(DocxDocumentPart, tree)

	isParagraph := ByName(docxParagraph)
	for n, para := range tree.FindAll(root, isParagraph) {
		var nodes []int
		for _, t := range tree.FindAll(para, ByName(docxText)) {
			// 文本框里的嵌套段落单独成为单元
			if tree.Closest(t, isParagraph) != para {
				continue
			}
			nodes = append(nodes, t)
		}
		pkg.addUnit(UnitParagraph, fmt.Sprintf("paragraph %d", n+1), part, nodes, false)
	}
	return pkg, nil
}

// preserveSpace 首尾有空白时 Word 需要 xml:space="preserve"
func preserveSpace(t *XMLTree, node int, text string) {
	if text == "" {
		return
	}
	first, _ := utf8.DecodeRuneInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		t.SetAttr(node, "xml:space", "preserve")
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
