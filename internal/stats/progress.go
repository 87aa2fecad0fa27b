// Package stats 计算翻译项目的进度与字数统计，并在终端中展示
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
)

// CheckedPercentage 已确认段的百分比，四舍五入为整数；没有段时为 0
func CheckedPercentage(checked []bool) int {
	if len(checked) == 0 {
		return 0
	}
	done := 0
	for _, c := range checked {
		if c {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(checked)) * 100))
}

// WordCount 按空白切分统计所有段的词数
func WordCount(segs []string) int {
	total := 0
	for _, s := range segs {
		total += len(strings.Fields(s))
	}
	return total
}

// ForProject 计算单个项目的统计
func ForProject(p *project.Project) ProjectStats {
	d := &p.TranslationData
	checked := 0
	for _, c := range d.Checked {
		if c {
			checked++
		}
	}
	return ProjectStats{
		ID:          p.ID,
		Name:        d.Name,
		Type:        d.Type,
		SourceLang:  d.SourceLang,
		TargetLang:  d.TargetLang,
		Created:     time.UnixMilli(d.CreationDate),
		Segments:    len(d.Seg1),
		Checked:     checked,
		Percent:     CheckedPercentage(d.Checked),
		SourceWords: WordCount(d.Seg1),
		TargetWords: WordCount(d.Seg2),
	}
}

// Progress 汇总所有项目
func Progress(projects []*project.Project) Summary {
	var s Summary
	if len(projects) == 0 {
		return s
	}

	sum := 0
	for _, p := range projects {
		ps := ForProject(p)
		sum += ps.Percent
		if ps.Finished() {
			s.Finished++
		}
		s.TotalWords += ps.SourceWords
		s.TranslatedWords += ps.TargetWords
	}
	s.Projects = len(projects)
	s.AveragePercent = int(math.Round(float64(sum) / float64(len(projects))))
	return s
}
