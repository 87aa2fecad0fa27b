package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// XlsxSharedStringsPart 共享字符串部件
	XlsxSharedStringsPart = "xl/sharedStrings.xml"

	xlsxSheetPrefix = "xl/worksheets/sheet"
	xlsxSheetSuffix = ".xml"
)

// OpenXlsx 解析共享字符串和各工作表
//
// 共享字符串每个 si 是一个单元（忽略 rPh 注音）。工作表按编号排序，单元格按文档顺序：
// inlineStr 取 is 下的 t，str 取 v 并分句，s 已在共享字符串中处理，
// 其它类型的 v 作为不透明单元整体替换。
func OpenXlsx(src Source, opts Options) (Tree, error) {
	logger := opts.logger()
	pkg := newXMLPackage(FormatXLSX, logger)
	pkg.onSet = func(t *XMLTree, node int, text string) {
		if t.LocalName(node) == "t" {
			preserveSpace(t, node, text)
		}
	}

	if raw, ok := src.Parts[XlsxSharedStringsPart]; ok {
		tree, err := ParseXML(raw)
		if err != nil {
			return nil, unsupported(FormatXLSX, XlsxSharedStringsPart, err)
		}
		root := tree.Root()
		if root < 0 || tree.LocalName(root) != "sst" {
			return nil, unsupported(FormatXLSX, XlsxSharedStringsPart, fmt.Errorf("unexpected root element: %w", ErrUnsupportedFormat))
		}
		part := pkg.addPart(XlsxSharedStringsPart, tree)
		for n, si := range tree.ChildrenNamed(root, ByLocal("si")) {
			pkg.addUnit(UnitSharedString, fmt.Sprintf("shared string %d", n), part, richTextNodes(tree, si), false)
		}
	}

	sheets := sheetParts(src.Parts)
	if len(sheets) == 0 && len(pkg.trees) == 0 {
		return nil, unsupported(FormatXLSX, "", ErrMissingPart)
	}

	for _, sheet := range sheets {
		tree, err := ParseXML(src.Parts[sheet.name])
		if err != nil {
			return nil, unsupported(FormatXLSX, sheet.name, err)
		}
		root := tree.Root()
		if root < 0 || tree.LocalName(root) != "worksheet" {
			return nil, unsupported(FormatXLSX, sheet.name, fmt.Errorf("unexpected root element: %w", ErrUnsupportedFormat))
		}
		part := pkg.addPart(sheet.name, tree)

		for _, cell := range tree.FindAll(root, ByLocal("c")) {
			ref, _ := tree.Attr(cell, "r")
			label := fmt.Sprintf("sheet%d!%s", sheet.number, ref)
			typ, _ := tree.Attr(cell, "t")

			switch typ {
			case "s":
				continue
			case "inlineStr":
				var nodes []int
				for _, is := range tree.ChildrenNamed(cell, ByLocal("is")) {
					nodes = append(nodes, richTextNodes(tree, is)...)
				}
				pkg.addUnit(UnitCell, label, part, nodes, false)
			case "str":
				pkg.addUnit(UnitCell, label, part, tree.ChildrenNamed(cell, ByLocal("v")), false)
			default:
				values := tree.ChildrenNamed(cell, ByLocal("v"))
				if len(values) == 0 {
					continue
				}
				pkg.addUnit(UnitCell, label, part, values[:1], true)
			}
		}
	}

	logger.Debug("xlsx opened",
		zap.Int("sheets", len(sheets)),
		zap.Int("units", len(pkg.units)))
	return pkg, nil
}

// richTextNodes 返回富文本中的 t 节点，跳过 rPh 注音
func richTextNodes(tree *XMLTree, parent int) []int {
	var out []int
	for _, t := range tree.FindAll(parent, ByLocal("t")) {
		if tree.Closest(t, ByLocal("rPh")) >= 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

type sheetPart struct {
	name   string
	number int
}

// sheetParts 按编号排序工作表，sheet10 排在 sheet2 之后
func sheetParts(parts map[string]string) []sheetPart {
	var sheets []sheetPart
	for name := range parts {
		if !strings.HasPrefix(name, xlsxSheetPrefix) || !strings.HasSuffix(name, xlsxSheetSuffix) {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, xlsxSheetPrefix), xlsxSheetSuffix))
		if err != nil {
			continue
		}
		sheets = append(sheets, sheetPart{name: name, number: num})
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].number < sheets[j].number })
	return sheets
}
