package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/nerdneilsfield/go-translator-workbench/internal/cli"
)

// Version information
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// 创建根命令
	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)

	// 执行命令
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "错误: %v\n", err)
		fmt.Fprintln(os.Stderr, "使用 --help 查看用法")
		os.Exit(1)
	}
}
