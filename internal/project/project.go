// Package project 管理翻译项目：源段、译段、确认状态以及导出所需的原始文档
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSegmentIndex 段索引越界
	ErrSegmentIndex = errors.New("segment index out of range")

	// ErrInvalidProject 项目数据不一致
	ErrInvalidProject = errors.New("invalid project")
)

// TypeRef 导出时重建文档所需的数据
type TypeRef struct {
	// Parts 适配器读取的部件（XML 或 content）
	Parts map[string]string `json:"parts,omitempty"`

	// Archive 办公文档的原始 zip，导出时在其上替换部件
	Archive []byte `json:"archive,omitempty"`

	// 导入时使用的分段参数，导出必须用同样的参数重新分段
	Tokens      []string `json:"tokens,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	IgnoredTags []string `json:"ignoredTags,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
}

// TranslationData 项目内容
type TranslationData struct {
	Name         string   `json:"name"`
	SourceLang   string   `json:"sourceLang"`
	TargetLang   string   `json:"targetLang"`
	CreationDate int64    `json:"creationDate"`
	Seg1         []string `json:"seg1"`
	Seg2         []string `json:"seg2"`
	Checked      []bool   `json:"checked"`
	Type         string   `json:"type"`
	TypeRef      TypeRef  `json:"typeRef"`
}

// Project 一个翻译项目，ID 由存储层分配
type Project struct {
	ID              int64           `json:"id,omitempty"`
	TranslationData TranslationData `json:"translationData"`
}

// Len 返回段数
func (p *Project) Len() int {
	return len(p.TranslationData.Seg1)
}

// Validate 检查三个段数组长度一致
func (p *Project) Validate() error {
	d := &p.TranslationData
	if len(d.Seg1) != len(d.Seg2) || len(d.Seg1) != len(d.Checked) {
		return fmt.Errorf("%w: seg1=%d seg2=%d checked=%d",
			ErrInvalidProject, len(d.Seg1), len(d.Seg2), len(d.Checked))
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProject)
	}
	return nil
}

func (p *Project) checkIndex(i int) error {
	if i < 0 || i >= p.Len() || i >= len(p.TranslationData.Seg2) || i >= len(p.TranslationData.Checked) {
		return fmt.Errorf("%w: %d (segments: %d)", ErrSegmentIndex, i, p.Len())
	}
	return nil
}

// SetTarget 修改第 i 段译文
func (p *Project) SetTarget(i int, text string) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.TranslationData.Seg2[i] = text
	return nil
}

// SetChecked 设置第 i 段的确认状态
func (p *Project) SetChecked(i int, checked bool) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.TranslationData.Checked[i] = checked
	return nil
}

// ToggleChecked 切换确认状态并返回新值
func (p *Project) ToggleChecked(i int) (bool, error) {
	if err := p.checkIndex(i); err != nil {
		return false, err
	}
	p.TranslationData.Checked[i] = !p.TranslationData.Checked[i]
	return p.TranslationData.Checked[i], nil
}

// Targets 返回用于导出的译文，空译文回退到源文，避免内容被删掉
func (p *Project) Targets() []string {
	d := &p.TranslationData
	out := make([]string, len(d.Seg1))
	for i, src := range d.Seg1 {
		out[i] = src
		if i < len(d.Seg2) && d.Seg2[i] != "" {
			out[i] = d.Seg2[i]
		}
	}
	return out
}

// MarshalSaveFile 生成项目存档（两个空格缩进的 JSON）
func MarshalSaveFile(p *Project) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(p, "", "  ")
}

// ParseSaveFile 读取项目存档，ID 被清空以便重新分配
func ParseSaveFile(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = 0
	return &p, nil
}
