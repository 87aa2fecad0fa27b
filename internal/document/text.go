package document

import (
	"fmt"
	"strings"
)

// textTree 纯文本：每行一个节点、一个单元，换行符保留在节点之外
type textTree struct {
	lines []string
	ends  []string
	units []Unit
}

// OpenText 按行切分纯文本
func OpenText(src Source, opts Options) (Tree, error) {
	content, ok := src.Parts[ContentPart]
	if !ok {
		return nil, unsupported(FormatText, ContentPart, ErrMissingPart)
	}

	t := &textTree{}
	for content != "" {
		line, end := content, ""
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			line, end = content[:i], "\n"
			content = content[i+1:]
		} else {
			content = ""
		}
		if strings.HasSuffix(line, "\r") {
			line, end = line[:len(line)-1], "\r"+end
		}
		t.lines = append(t.lines, line)
		t.ends = append(t.ends, end)
	}

	for i, line := range t.lines {
		if isBlank(line) {
			continue
		}
		t.units = append(t.units, newUnit(UnitLine, fmt.Sprintf("line %d", i+1), []int{i}, []string{line}))
	}
	return t, nil
}

func (t *textTree) Format() Format {
	return FormatText
}

func (t *textTree) Units() []Unit {
	return t.units
}

func (t *textTree) NodeText(node int) string {
	return t.lines[node]
}

func (t *textTree) SetNodeText(node int, text string) {
	t.lines[node] = text
}

func (t *textTree) Parts() (map[string]string, error) {
	var sb strings.Builder
	for i, line := range t.lines {
		sb.WriteString(line)
		sb.WriteString(t.ends[i])
	}
	return map[string]string{ContentPart: sb.String()}, nil
}
