package project

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey 排序字段
type SortKey string

const (
	SortByDate SortKey = "date"
	SortByName SortKey = "name"
)

// ParseSortKey 解析排序字段，空字符串表示按日期
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByDate:
		return SortByDate, nil
	case SortByName:
		return SortByName, nil
	default:
		return "", fmt.Errorf("unknown sort key: %q", s)
	}
}

// Sort 原地排序项目列表，相同键保持原顺序
// 名称按语言无关的排序规则比较，而不是字节序
func Sort(projects []*Project, key SortKey, descending bool) {
	var less func(a, b *Project) bool
	switch key {
	case SortByName:
		c := collate.New(language.Und, collate.IgnoreCase)
		less = func(a, b *Project) bool {
			return c.CompareString(a.TranslationData.Name, b.TranslationData.Name) < 0
		}
	default:
		less = func(a, b *Project) bool {
			return a.TranslationData.CreationDate < b.TranslationData.CreationDate
		}
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if descending {
			return less(projects[j], projects[i])
		}
		return less(projects[i], projects[j])
	})
}
