package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
)

func TestCheckedPercentage(t *testing.T) {
	tests := []struct {
		name    string
		checked []bool
		want    int
	}{
		{"empty", nil, 0},
		{"none", []bool{false, false}, 0},
		{"all", []bool{true, true}, 100},
		{"one third rounds down", []bool{true, false, false}, 33},
		{"two thirds rounds up", []bool{true, true, false}, 67},
		{"half", []bool{true, false}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckedPercentage(tt.checked))
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(nil))
	assert.Equal(t, 0, WordCount([]string{"", "   "}))
	assert.Equal(t, 5, WordCount([]string{"Hello  world.", "\tone two\nthree "}))
}

func mkProject(name string, seg1, seg2 []string, checked []bool) *project.Project {
	return &project.Project{TranslationData: project.TranslationData{
		Name: name, Seg1: seg1, Seg2: seg2, Checked: checked,
	}}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, Summary{}, Progress(nil))

	projects := []*project.Project{
		mkProject("a", []string{"One two.", "Three."}, []string{"Uno dos.", "Tres."}, []bool{true, true}),
		mkProject("b", []string{"Four five six."}, []string{""}, []bool{false}),
		mkProject("c", []string{"x", "y", "z"}, []string{"x", "", ""}, []bool{true, false, false}),
	}

	s := Progress(projects)
	assert.Equal(t, 3, s.Projects)
	// (100 + 0 + 33) / 3 = 44.33
	assert.Equal(t, 44, s.AveragePercent)
	assert.Equal(t, 1, s.Finished)
	assert.Equal(t, 9, s.TotalWords)
	assert.Equal(t, 4, s.TranslatedWords)
}

func TestForProject(t *testing.T) {
	p := mkProject("a", []string{"One two.", "Three."}, []string{"Uno.", ""}, []bool{true, false})
	p.ID = 4
	p.TranslationData.CreationDate = 1700000000000

	ps := ForProject(p)
	assert.Equal(t, int64(4), ps.ID)
	assert.Equal(t, 2, ps.Segments)
	assert.Equal(t, 1, ps.Checked)
	assert.Equal(t, 50, ps.Percent)
	assert.Equal(t, 3, ps.SourceWords)
	assert.Equal(t, 1, ps.TargetWords)
	assert.False(t, ps.Finished())
	assert.Equal(t, int64(1700000000000), ps.Created.UnixMilli())
}

func TestVisualizer(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	v := NewVisualizer(&buf)
	v.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	v.ShowOverview(Summary{Projects: 2, AveragePercent: 50, Finished: 1, TotalWords: 12345, TranslatedWords: 6000})
	out := buf.String()
	assert.Contains(t, out, "Average Progress")
	assert.Contains(t, out, "50% ██████████░░░░░░░░░░")
	assert.Contains(t, out, "12,345")

	buf.Reset()
	v.ShowProjects([]ProjectStats{{
		ID: 1, Name: "manual.docx", Type: "docx", SourceLang: "en", TargetLang: "fr",
		Segments: 4, Checked: 1, Percent: 25, SourceWords: 1200, TargetWords: 300,
	}})
	out = buf.String()
	assert.Contains(t, out, "manual.docx")
	assert.Contains(t, out, "en → fr")
	assert.Contains(t, out, "1/4")
	assert.Contains(t, out, "300/1,200")
	assert.Contains(t, out, "N/A")

	buf.Reset()
	v.ShowProjects(nil)
	assert.Contains(t, buf.String(), "No projects found.")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "-1,234,567", formatNumber(-1234567))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "翻译...", truncate("翻译工作台项目", 7))
}
