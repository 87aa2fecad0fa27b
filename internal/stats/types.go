package stats

import (
	"time"
)

// Summary 所有项目的汇总进度
type Summary struct {
	Projects int `json:"projects"`

	// AveragePercent 各项目确认百分比的平均值（四舍五入）
	AveragePercent int `json:"averagePercent"`

	// Finished 全部段已确认的项目数
	Finished int `json:"finished"`

	TotalWords      int `json:"totalWords"`
	TranslatedWords int `json:"translatedWords"`
}

// ProjectStats 单个项目的统计
type ProjectStats struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	SourceLang  string    `json:"sourceLang"`
	TargetLang  string    `json:"targetLang"`
	Created     time.Time `json:"created"`
	Segments    int       `json:"segments"`
	Checked     int       `json:"checked"`
	Percent     int       `json:"percent"`
	SourceWords int       `json:"sourceWords"`
	TargetWords int       `json:"targetWords"`
}

// Finished 报告项目是否全部确认
func (s ProjectStats) Finished() bool {
	return s.Percent == 100
}
