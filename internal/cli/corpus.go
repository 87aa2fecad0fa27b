package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-translator-workbench/internal/corpus"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

// writeOutput 写文件，path 为空时写到标准输出
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	successColor.Fprintf(cmd.ErrOrStderr(), "✓ 已写入 %s\n", path)
	return nil
}

func newTable(cmd *cobra.Command) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	return tw
}

func newTMCommand() *cobra.Command {
	tmCmd := &cobra.Command{
		Use:   "tm",
		Short: "管理翻译记忆（TMX）",
	}

	var importName string
	importCmd := &cobra.Command{
		Use:   "import <file.tmx>",
		Short: "导入 TMX 文件为新的翻译记忆",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("读取文件失败: %w", err)
			}
			m, err := corpus.ParseTMX(data)
			if err != nil {
				return err
			}
			m.ID = 0
			if importName != "" {
				m.Name = importName
			}
			if err := e.repo.SaveMemory(cmd.Context(), m); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 翻译记忆 %d 已导入: %s (%d 条)\n", m.ID, m.Name, len(m.Entries))
			return nil
		}),
	}
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "翻译记忆名称（默认使用 TMX 中的名称）")

	var exportOutput string
	exportCmd := &cobra.Command{
		Use:   "export <tm-id>",
		Short: "导出翻译记忆为 TMX",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := e.repo.Memory(cmd.Context(), id)
			if err != nil {
				return err
			}
			data, err := corpus.EncodeTMX(m, time.Now())
			if err != nil {
				return err
			}
			return writeOutput(cmd, exportOutput, data)
		}),
	}
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "输出文件（默认标准输出）")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "列出翻译记忆",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			memories, err := e.repo.Memories(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"ID", "Name", "Source", "Entries"})
			for _, m := range memories {
				tw.AppendRow(table.Row{m.ID, m.Name, m.SourceLang, len(m.Entries)})
			}
			tw.Render()
			return nil
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <tm-id>",
		Short: "删除翻译记忆",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.repo.DeleteMemory(cmd.Context(), id); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 翻译记忆 %d 已删除\n", id)
			return nil
		}),
	}

	var matchIDs []int64
	matchCmd := &cobra.Command{
		Use:   "match <project-id> <index>",
		Short: "在翻译记忆中查找一段的模糊匹配",
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
			memories, err := e.repo.Memories(cmd.Context())
			if err != nil {
				return err
			}
			memories = filterByID(memories, matchIDs, func(m *tm.Memory) int64 { return m.ID })

			matches, err := e.wb.TMSuggestions(p, i, memories)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				warnColor.Fprintf(cmd.OutOrStdout(), "没有相似度不低于 %.0f%% 的匹配\n", e.wb.Threshold())
				return nil
			}
			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"%", "Source", "Translation"})
			for _, m := range matches {
				tw.AppendRow(table.Row{m.Percent(), m.Segment, m.Match})
			}
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
			tw.Render()
			return nil
		}),
	}
	matchCmd.Flags().Int64SliceVar(&matchIDs, "tm", nil, "只在这些翻译记忆中查找")

	var concordanceLang string
	concordanceCmd := &cobra.Command{
		Use:   "concordance <term>",
		Short: "在翻译记忆的源段中搜索词语",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			term := strings.Join(args, " ")
			memories, err := e.repo.Memories(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"TM", "Source", "Targets"})
			found := 0
			for _, m := range memories {
				lang := concordanceLang
				if lang == "" {
					lang = m.SourceLang
				}
				for _, hit := range tm.Concordance(m.Entries, term, lang) {
					targets := make([]string, 0, len(hit.Entry.Targets))
					for _, t := range hit.Entry.Targets {
						targets = append(targets, t.Lang+": "+t.Segment)
					}
					tw.AppendRow(table.Row{m.Name, hit.Entry.Source.Segment, strings.Join(targets, "\n")})
					found++
				}
			}
			if found == 0 {
				warnColor.Fprintf(cmd.OutOrStdout(), "未找到 %q\n", term)
				return nil
			}
			tw.Render()
			return nil
		}),
	}
	concordanceCmd.Flags().StringVar(&concordanceLang, "lang", "", "源语言（默认使用各翻译记忆的源语言）")

	tmCmd.AddCommand(importCmd, exportCmd, listCmd, deleteCmd, matchCmd, concordanceCmd)
	return tmCmd
}

func newTBCommand() *cobra.Command {
	tbCmd := &cobra.Command{
		Use:   "tb",
		Short: "管理术语库（TBX）",
	}

	var importName string
	importCmd := &cobra.Command{
		Use:   "import <file.tbx>",
		Short: "导入 TBX 文件为新的术语库",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("读取文件失败: %w", err)
			}
			b, err := corpus.ParseTBX(data)
			if err != nil {
				return err
			}
			b.ID = 0
			if importName != "" {
				b.Name = importName
			}
			if err := e.repo.SaveTermBase(cmd.Context(), b); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 术语库 %d 已导入: %s (%d 个概念)\n", b.ID, b.Name, len(b.Entries))
			return nil
		}),
	}
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "术语库名称")

	var exportOutput string
	exportCmd := &cobra.Command{
		Use:   "export <tb-id>",
		Short: "导出术语库为 TBX",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := e.repo.TermBase(cmd.Context(), id)
			if err != nil {
				return err
			}
			data, err := corpus.EncodeTBX(b, e.cfg.SourceLang)
			if err != nil {
				return err
			}
			return writeOutput(cmd, exportOutput, data)
		}),
	}
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "输出文件（默认标准输出）")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "列出术语库",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			bases, err := e.repo.TermBases(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"ID", "Name", "Languages", "Concepts"})
			for _, b := range bases {
				tw.AppendRow(table.Row{b.ID, b.Name, strings.Join(b.Languages(), ", "), len(b.Entries)})
			}
			tw.Render()
			return nil
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <tb-id>",
		Short: "删除术语库",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.repo.DeleteTermBase(cmd.Context(), id); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 术语库 %d 已删除\n", id)
			return nil
		}),
	}

	var matchIDs []int64
	matchCmd := &cobra.Command{
		Use:   "match <project-id> <index>",
		Short: "查找一段中出现的术语",
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
			bases, err := e.repo.TermBases(cmd.Context())
			if err != nil {
				return err
			}
			bases = filterByID(bases, matchIDs, func(b *termbase.Base) int64 { return b.ID })

			matches, err := e.wb.TermSuggestions(p, i, bases)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				warnColor.Fprintln(cmd.OutOrStdout(), "没有找到术语")
				return nil
			}
			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"Term", "Translation", "Notes"})
			for _, m := range matches {
				tw.AppendRow(table.Row{m.SearchEntry, m.FoundEntry, strings.Join(m.Notes, "\n")})
			}
			tw.Render()
			return nil
		}),
	}
	matchCmd.Flags().Int64SliceVar(&matchIDs, "tb", nil, "只在这些术语库中查找")

	tbCmd.AddCommand(importCmd, exportCmd, listCmd, deleteCmd, matchCmd)
	return tbCmd
}

func newXLIFFCommand() *cobra.Command {
	xliffCmd := &cobra.Command{
		Use:   "xliff",
		Short: "以 XLIFF 交换项目",
	}

	var (
		version string
		output  string
	)
	exportCmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "导出项目为 XLIFF 1.2 或 2.0",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			p, err := e.loadProject(cmd, args[0])
			if err != nil {
				return err
			}
			var data []byte
			switch version {
			case "2.0", "2":
				data, err = corpus.EncodeXLIFF20(p)
			case "1.2":
				data, err = corpus.EncodeXLIFF12(p)
			default:
				return fmt.Errorf("不支持的 XLIFF 版本: %q", version)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		}),
	}
	exportCmd.Flags().StringVar(&version, "version", "2.0", "XLIFF 版本: 1.2 或 2.0")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "输出文件（默认标准输出）")

	var name string
	importCmd := &cobra.Command{
		Use:   "import <file.xlf>",
		Short: "从 XLIFF 创建项目",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("读取文件失败: %w", err)
			}
			p, err := corpus.ParseXLIFF(data)
			if err != nil {
				return err
			}
			p.ID = 0
			p.TranslationData.CreationDate = time.Now().UnixMilli()
			if name != "" {
				p.TranslationData.Name = name
			} else if p.TranslationData.Name == "" {
				p.TranslationData.Name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if err := e.repo.SaveProject(cmd.Context(), p); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 项目 %d 已创建: %s (%d 段)\n", p.ID, p.TranslationData.Name, p.Len())
			return nil
		}),
	}
	importCmd.Flags().StringVarP(&name, "name", "n", "", "项目名称")

	xliffCmd.AddCommand(exportCmd, importCmd)
	return xliffCmd
}

// filterByID 只保留 ids 中列出的条目，ids 为空时全部保留
func filterByID[T any](items []T, ids []int64, id func(T) int64) []T {
	if len(ids) == 0 {
		return items
	}
	want := make(map[int64]bool, len(ids))
	for _, i := range ids {
		want[i] = true
	}
	var out []T
	for _, item := range items {
		if want[id(item)] {
			out = append(out, item)
		}
	}
	return out
}
