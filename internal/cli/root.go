package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/api"
	"github.com/nerdneilsfield/go-translator-workbench/internal/config"
	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/internal/logger"
	"github.com/nerdneilsfield/go-translator-workbench/internal/preferences"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/internal/store"
)

var (
	// 命令行标志变量
	cfgFile    string
	sourceLang string
	targetLang string
	storePath  string
	debugMode  bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "workbench",
		Short: "本地化工作台：分段、翻译记忆、术语库和文档回写",
		Long: `本地化工作台把 docx、xlsx、html、json 和纯文本文档切分为句段，
在翻译记忆和术语库中查找建议，并把译文按原始格式写回文档。

常用流程:
  workbench import report.docx --source en --target fr
  workbench segments 1
  workbench edit 1 0 "Bonjour."
  workbench check 1 0
  workbench export 1`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "配置文件路径（默认 $HOME/.workbench.yaml）")
	flags.StringVar(&sourceLang, "source", "", "源语言（覆盖配置）")
	flags.StringVar(&targetLang, "target", "", "目标语言（覆盖配置）")
	flags.StringVar(&storePath, "store", "", "SQLite 数据库路径（覆盖配置）")
	flags.BoolVar(&debugMode, "debug", false, "启用调试日志")

	rootCmd.AddCommand(
		newImportCommand(),
		newExportCommand(),
		newListCommand(),
		newDeleteCommand(),
		newSegmentsCommand(),
		newEditCommand(),
		newCheckCommand(),
		newTMCommand(),
		newTBCommand(),
		newXLIFFCommand(),
		newPrefsCommand(),
		NewStatsCommand(),
		newFormatsCommand(),
		newServeCommand(),
	)
	return rootCmd
}

// env 一次命令执行需要的依赖
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	store store.Store
	repo  *store.Repository
	prefs *preferences.Store
	wb    *project.Workbench

	// preferenceTokens 配置中没有固定边界标记，使用启用的预设
	preferenceTokens bool
}

// setup 加载配置并打开存储
func setup() (*env, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if sourceLang != "" {
		cfg.SourceLang = sourceLang
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if storePath != "" {
		cfg.Store.Driver = "sqlite"
		cfg.Store.Path = storePath
	}

	var log *zap.Logger
	if debugMode || cfg.Debug {
		log = logger.NewLogger(true)
	} else if log, err = logger.NewLoggerWithLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("打开存储失败: %w", err)
	}

	prefs := preferences.NewStore(cfg.PreferencesFile, log)
	tokens := cfg.Segmentation.Tokens
	if len(tokens) == 0 {
		tokens = prefs.ActiveTokens()
	}

	docOpts := cfg.DocumentOptions()
	docOpts.Logger = log
	wb := project.New(project.Options{
		Tokens:    tokens,
		Mode:      cfg.SegmentMode(),
		Document:  docOpts,
		Threshold: cfg.TM.Threshold,
		Logger:    log,
	})

	return &env{
		cfg:              cfg,
		log:              log,
		store:            st,
		repo:             store.NewRepository(st),
		prefs:            prefs,
		wb:               wb,
		preferenceTokens: len(cfg.Segmentation.Tokens) == 0,
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("failed to close store", zap.Error(err))
	}
	_ = e.log.Sync()
}

// withEnv 包装需要依赖的命令
func withEnv(run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		return run(cmd, args, e)
	}
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "列出支持的文档格式",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			formats := document.RegisteredFormats()
			sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "支持的文档格式:")
			for _, f := range formats {
				fmt.Fprintf(out, "  - %s\n", f)
			}
		},
	}
}

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API 和 WebSocket 服务",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			if addr == "" {
				addr = e.cfg.Server.Addr
			}
			if !debugMode && !e.cfg.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := api.NewHub(e.log)
			go hub.Run(ctx)

			srv := &http.Server{
				Addr: addr,
				Handler: api.NewRouter(api.Deps{
					Workbench:        e.wb,
					Repo:             e.repo,
					Hub:              hub,
					Preferences:      e.prefs,
					PreferenceTokens: e.preferenceTokens,
					SourceLang:       e.cfg.SourceLang,
					TargetLang:       e.cfg.TargetLang,
					Logger:           e.log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				e.log.Info("server listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			e.log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（默认使用配置 server.addr）")
	return cmd
}
