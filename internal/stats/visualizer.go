package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
)

// Visualizer 统计数据可视化器
type Visualizer struct {
	w   io.Writer
	now func() time.Time
}

// NewVisualizer 创建可视化器，w 为 nil 时写到标准输出
func NewVisualizer(w io.Writer) *Visualizer {
	if w == nil {
		w = os.Stdout
	}
	return &Visualizer{w: w, now: time.Now}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview(s Summary) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(v.w, "📊 Translation Progress Overview")
	title.Fprintln(v.w, strings.Repeat("=", 50))

	fmt.Fprintln(v.w)
	v.printSection("🎯 Overall Statistics", [][]string{
		{"Projects", formatNumber(int64(s.Projects))},
		{"Average Progress", fmt.Sprintf("%d%% %s", s.AveragePercent, progressBar(s.AveragePercent, 20))},
		{"Finished Projects", formatNumber(int64(s.Finished))},
		{"Source Words", formatNumber(int64(s.TotalWords))},
		{"Translated Words", formatNumber(int64(s.TranslatedWords))},
	})
}

// ShowProjects 以表格列出每个项目的进度
func (v *Visualizer) ShowProjects(projects []ProjectStats) {
	title := color.New(color.FgMagenta, color.Bold)
	title.Fprintln(v.w, "📄 Projects")

	if len(projects) == 0 {
		fmt.Fprintln(v.w, "No projects found.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(v.w)
	tw.AppendHeader(table.Row{"ID", "Name", "Type", "Languages", "Created", "Segments", "Words", "Progress"})
	for _, p := range projects {
		tw.AppendRow(table.Row{
			p.ID,
			truncate(p.Name, 40),
			p.Type,
			fmt.Sprintf("%s → %s", p.SourceLang, p.TargetLang),
			v.formatTime(p.Created),
			fmt.Sprintf("%d/%d", p.Checked, p.Segments),
			fmt.Sprintf("%s/%s", formatNumber(int64(p.TargetWords)), formatNumber(int64(p.SourceWords))),
			fmt.Sprintf("%3d%% %s", p.Percent, progressBar(p.Percent, 10)),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// printSection 打印一个统计部分
func (v *Visualizer) printSection(title string, data [][]string) {
	sectionColor := color.New(color.FgYellow, color.Bold)
	sectionColor.Fprintf(v.w, "%s\n", title)

	// 计算最大标签显示宽度
	maxLabelLen := 0
	for _, row := range data {
		maxLabelLen = max(maxLabelLen, runewidth.StringWidth(row[0]))
	}

	labelColor := color.New(color.FgCyan)
	valueColor := color.New(color.FgWhite, color.Bold)
	for _, row := range data {
		label := "  " + runewidth.FillRight(row[0], maxLabelLen)
		labelColor.Fprintf(v.w, "%s: ", label)
		valueColor.Fprintln(v.w, row[1])
	}
}

// progressBar 渲染固定宽度的进度条，低于 50% 黄色，低于 25% 红色
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := width * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	barColor := color.New(color.FgGreen)
	if percent < 50 {
		barColor = color.New(color.FgYellow)
	}
	if percent < 25 {
		barColor = color.New(color.FgRed)
	}
	return barColor.Sprint(bar)
}

// 辅助函数

// formatNumber 格式化数字（添加千位分隔符）
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}

// formatTime 格式化时间
func (v *Visualizer) formatTime(t time.Time) string {
	if t.IsZero() || t.UnixMilli() == 0 {
		return "N/A"
	}

	now := v.now()
	if t.Year() == now.Year() && t.Month() == now.Month() && t.Day() == now.Day() {
		return t.Format("15:04:05")
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 02 15:04")
	}

	return t.Format("2006-01-02 15:04")
}

// truncate 按终端显示宽度截断，全角字符占两列
func truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "...")
}
