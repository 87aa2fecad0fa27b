package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/stats"
)

var (
	// stats 命令的标志
	statsFormat string
	exportPath  string
)

// statsReport stats 导出的数据
type statsReport struct {
	Summary  stats.Summary        `json:"summary"`
	Projects []stats.ProjectStats `json:"projects"`
}

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "查看翻译进度统计",
		Long: `统计所有项目的确认进度和字数。

Examples:
  # 显示总览和项目列表
  workbench stats

  # 以 JSON 输出
  workbench stats --format json

  # 导出为 CSV
  workbench stats --format csv --export stats.csv`,
		Args: cobra.NoArgs,
		RunE: withEnv(runStatsCommand),
	}

	statsCmd.Flags().StringVar(&statsFormat, "format", "table", "输出格式 (table, json, csv)")
	statsCmd.Flags().StringVar(&exportPath, "export", "", "把统计写入文件（json 或 csv）")
	return statsCmd
}

// runStatsCommand 执行 stats 命令
func runStatsCommand(cmd *cobra.Command, args []string, e *env) error {
	projects, err := e.repo.Projects(cmd.Context())
	if err != nil {
		return err
	}

	report := statsReport{
		Summary:  stats.Progress(projects),
		Projects: make([]stats.ProjectStats, 0, len(projects)),
	}
	for _, p := range projects {
		report.Projects = append(report.Projects, stats.ForProject(p))
	}

	if exportPath != "" {
		return handleStatsExport(cmd, e.log, report)
	}

	switch statsFormat {
	case "table", "":
		v := stats.NewVisualizer(cmd.OutOrStdout())
		v.ShowOverview(report.Summary)
		fmt.Fprintln(cmd.OutOrStdout())
		v.ShowProjects(report.Projects)
		return nil
	case "json", "csv":
		data, err := marshalStats(report, statsFormat)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	default:
		return fmt.Errorf("不支持的输出格式: %q", statsFormat)
	}
}

// handleStatsExport 处理统计导出
func handleStatsExport(cmd *cobra.Command, log *zap.Logger, report statsReport) error {
	format := statsFormat
	if format == "table" || format == "" {
		format = strings.TrimPrefix(filepath.Ext(exportPath), ".")
	}

	data, err := marshalStats(report, format)
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(exportPath), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(exportPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	log.Debug("statistics exported", zap.String("path", exportPath), zap.String("format", format))
	successColor.Fprintf(cmd.OutOrStdout(), "✅ Statistics exported to: %s\n", exportPath)
	return nil
}

// marshalStats 序列化统计数据，未知格式按 JSON 处理
func marshalStats(report statsReport, format string) ([]byte, error) {
	if format == "csv" {
		return marshalStatsCSV(report)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// marshalStatsCSV 每个项目一行
func marshalStatsCSV(report statsReport) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "name", "type", "source_language", "target_language", "created", "segments", "checked", "percent", "source_words", "target_words"})
	for _, p := range report.Projects {
		_ = w.Write([]string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Type,
			p.SourceLang,
			p.TargetLang,
			p.Created.Format(time.RFC3339),
			strconv.Itoa(p.Segments),
			strconv.Itoa(p.Checked),
			strconv.Itoa(p.Percent),
			strconv.Itoa(p.SourceWords),
			strconv.Itoa(p.TargetWords),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
