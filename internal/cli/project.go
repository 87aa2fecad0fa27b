package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/internal/stats"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("无效的 ID: %q", s)
	}
	return id, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("无效的段索引: %q", s)
	}
	return i, nil
}

// loadProject 读取参数中的项目
func (e *env) loadProject(cmd *cobra.Command, arg string) (*project.Project, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	return e.repo.Project(cmd.Context(), id)
}

func newImportCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "导入文档并创建翻译项目",
		Long: `导入一个或多个文档，每个文档创建一个翻译项目。
支持的格式见 workbench formats。`,
		Args: cobra.MinimumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name 只能用于单个文件")
			}

			var bar *pterm.ProgressbarPrinter
			if len(args) > 1 && isTerminal(cmd.ErrOrStderr()) {
				var err error
				bar, err = pterm.DefaultProgressbar.
					WithTotal(len(args)).
					WithTitle("导入文档").
					WithWriter(cmd.ErrOrStderr()).
					Start()
				if err != nil {
					e.log.Warn("failed to start progress bar", zap.Error(err))
					bar = nil
				}
			}

			for _, path := range args {
				if bar != nil {
					bar.UpdateTitle(filepath.Base(path))
				}
				p, err := importFile(cmd, e, path, name)
				if bar != nil {
					bar.Increment()
				}
				if err != nil {
					if bar != nil {
						_, _ = bar.Stop()
					}
					return fmt.Errorf("%s: %w", path, err)
				}
				successColor.Fprintf(cmd.OutOrStdout(), "✓ 项目 %d 已创建: %s (%d 段, %s → %s)\n",
					p.ID, p.TranslationData.Name, p.Len(), p.TranslationData.SourceLang, p.TranslationData.TargetLang)
			}
			if bar != nil {
				_, _ = bar.Stop()
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "项目名称（默认使用文件名）")
	return cmd
}

// importFile 分段一个文件并保存为新项目
func importFile(cmd *cobra.Command, e *env, path, name string) (*project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	ctx := cmd.Context()
	p, err := e.wb.ImportFile(ctx, filepath.Base(path), data, e.cfg.SourceLang, e.cfg.TargetLang)
	if err != nil {
		return nil, err
	}
	if name != "" {
		p.TranslationData.Name = name
	}
	if err := e.repo.SaveProject(ctx, p); err != nil {
		return nil, err
	}

	e.log.Debug("project imported",
		zap.Int64("id", p.ID),
		zap.String("type", p.TranslationData.Type),
		zap.Int("segments", p.Len()))
	return p, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func newExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "把译文写回原始格式的文档",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			p, err := e.loadProject(cmd, args[0])
			if err != nil {
				return err
			}
			data, name, err := e.wb.ExportFile(cmd.Context(), p)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = name
			} else if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, name)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("写入文件失败: %w", err)
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 已导出到 %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件或目录（默认当前目录下的导出文件名）")
	return cmd
}

func newListCommand() *cobra.Command {
	var (
		sortBy    string
		ascending bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "列出翻译项目",
		Args:    cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			key, err := project.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			projects, err := e.repo.Projects(cmd.Context())
			if err != nil {
				return err
			}
			project.Sort(projects, key, !ascending)

			rows := make([]stats.ProjectStats, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, stats.ForProject(p))
			}
			stats.NewVisualizer(cmd.OutOrStdout()).ShowProjects(rows)
			return nil
		}),
	}
	cmd.Flags().StringVar(&sortBy, "sort", "date", "排序字段: date 或 name")
	cmd.Flags().BoolVar(&ascending, "asc", false, "升序排列")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "删除翻译项目",
		Args:    cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.repo.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 项目 %d 已删除\n", id)
			return nil
		}),
	}
}

func newSegmentsCommand() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "segments <project-id>",
		Short: "显示项目的源段、译段和确认状态",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			p, err := e.loadProject(cmd, args[0])
			if err != nil {
				return err
			}
			d := &p.TranslationData

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetTitle(fmt.Sprintf("%s (%s → %s)", d.Name, d.SourceLang, d.TargetLang))
			tw.AppendHeader(table.Row{"#", d.SourceLang, d.TargetLang, "✓"})
			for i := range d.Seg1 {
				mark := ""
				if d.Checked[i] {
					mark = "✓"
				}
				tw.AppendRow(table.Row{i, d.Seg1[i], d.Seg2[i], mark})
			}
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 1, Align: text.AlignRight},
				{Number: 2, WidthMax: width},
				{Number: 3, WidthMax: width},
				{Number: 4, Align: text.AlignCenter},
			})
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		}),
	}
	cmd.Flags().IntVar(&width, "width", 60, "每列最大宽度")
	return cmd
}

func newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <project-id> <index> <translation>",
		Short: "设置一段的译文",
		Args:  cobra.ExactArgs(3),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			p, err := e.loadProject(cmd, args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			if err := p.SetTarget(i, args[2]); err != nil {
				return err
			}
			if err := e.repo.SaveProject(cmd.Context(), p); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 第 %d 段已更新\n", i)
			return nil
		}),
	}
}

func newCheckCommand() *cobra.Command {
	var (
		uncheck  bool
		memoryID int64
	)
	cmd := &cobra.Command{
		Use:   "check <project-id> <index>",
		Short: "确认一段译文，可同时写入翻译记忆",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			p, err := e.loadProject(cmd, args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			if err := p.SetChecked(i, !uncheck); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := e.repo.SaveProject(ctx, p); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if uncheck {
				warnColor.Fprintf(out, "第 %d 段已取消确认\n", i)
				return nil
			}
			successColor.Fprintf(out, "✓ 第 %d 段已确认\n", i)

			if memoryID > 0 {
				m, err := e.repo.Memory(ctx, memoryID)
				if err != nil {
					return err
				}
				if err := e.wb.Remember(p, i, m); err != nil {
					return err
				}
				if err := e.repo.SaveMemory(ctx, m); err != nil {
					return err
				}
				successColor.Fprintf(out, "✓ 已写入翻译记忆 %d\n", m.ID)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&uncheck, "uncheck", false, "取消确认")
	cmd.Flags().Int64Var(&memoryID, "remember", 0, "确认后写入的翻译记忆 ID")
	return cmd
}
