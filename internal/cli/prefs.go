package cli

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-translator-workbench/internal/preferences"
)

// withPreferences 包装预设子命令
func withPreferences(run func(cmd *cobra.Command, args []string, prefs *preferences.Store) error) func(*cobra.Command, []string) error {
	return withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return run(cmd, args, e.prefs)
	})
}

func newPrefsCommand() *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:     "prefs",
		Aliases: []string{"preferences"},
		Short:   "管理分段边界预设",
		Long: `分段边界预设决定导入文档时按哪些标记切分句段。
配置文件中的 segmentation.tokens 非空时优先于预设。`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "列出边界预设",
		Args:  cobra.NoArgs,
		RunE: withPreferences(func(cmd *cobra.Command, args []string, prefs *preferences.Store) error {
			items, err := prefs.List()
			if err != nil {
				return err
			}
			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"ID", "Label", "Tokens", "Active"})
			for _, p := range items {
				active := ""
				if p.Active {
					active = "●"
				}
				tw.AppendRow(table.Row{p.ID, p.Label, quoteTokens(p.Tokens), active})
			}
			tw.Render()
			return nil
		}),
	}

	var (
		label    string
		activate bool
	)
	addCmd := &cobra.Command{
		Use:   "add <token>...",
		Short: "添加边界预设",
		Args:  cobra.MinimumNArgs(1),
		RunE: withPreferences(func(cmd *cobra.Command, args []string, prefs *preferences.Store) error {
			p, err := prefs.Add(label, args)
			if err != nil {
				return err
			}
			if activate {
				if err := prefs.SetActive(p.ID); err != nil {
					return err
				}
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 预设 %s 已添加: %s\n", p.ID, p.Label)
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&label, "label", "l", "", "预设名称")
	addCmd.Flags().BoolVar(&activate, "activate", false, "添加后立即启用")

	var updateLabel string
	updateCmd := &cobra.Command{
		Use:   "update <id> [token]...",
		Short: "修改边界预设的名称或标记",
		Args:  cobra.MinimumNArgs(1),
		RunE: withPreferences(func(cmd *cobra.Command, args []string, prefs *preferences.Store) error {
			if err := prefs.Update(args[0], updateLabel, args[1:]); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 预设 %s 已更新\n", args[0])
			return nil
		}),
	}
	updateCmd.Flags().StringVarP(&updateLabel, "label", "l", "", "新名称")

	activateCmd := &cobra.Command{
		Use:   "activate <id>",
		Short: "启用边界预设",
		Args:  cobra.ExactArgs(1),
		RunE: withPreferences(func(cmd *cobra.Command, args []string, prefs *preferences.Store) error {
			if err := prefs.SetActive(args[0]); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 已启用预设 %s\n", args[0])
			return nil
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除边界预设",
		Args:  cobra.ExactArgs(1),
		RunE: withPreferences(func(cmd *cobra.Command, args []string, prefs *preferences.Store) error {
			if err := prefs.Delete(args[0]); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ 预设 %s 已删除\n", args[0])
			return nil
		}),
	}

	prefsCmd.AddCommand(listCmd, addCmd, updateCmd, activateCmd, deleteCmd)
	return prefsCmd
}

func quoteTokens(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = strconv.Quote(t)
	}
	return strings.Join(quoted, " ")
}
