// Package api 通过 HTTP 和 WebSocket 暴露工作台操作，供前端使用
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-translator-workbench/internal/preferences"
	"github.com/nerdneilsfield/go-translator-workbench/internal/project"
	"github.com/nerdneilsfield/go-translator-workbench/internal/store"
)

// Deps 路由依赖
type Deps struct {
	Workbench *project.Workbench
	Repo      *store.Repository
	Hub       *Hub

	// Preferences 为空时不注册预设接口
	Preferences *preferences.Store

	// PreferenceTokens 为 true 时导入使用启用预设的边界标记
	PreferenceTokens bool

	// 上传时未指定语言的默认值
	SourceLang string
	TargetLang string

	Logger *zap.Logger
}

// NewRouter 配置 HTTP 路由
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handler{Deps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger))
	r.MaxMultipartMemory = 64 << 20

	apiGroup := r.Group("/api")
	{
		projects := apiGroup.Group("/projects")
		projects.GET("", h.listProjects)
		projects.POST("", h.createProject)
		projects.POST("/xliff", h.importXLIFF)
		projects.GET("/:id", h.getProject)
		projects.DELETE("/:id", h.deleteProject)
		projects.PUT("/:id/segments/:index", h.updateSegment)
		projects.GET("/:id/export", h.exportProject)
		projects.GET("/:id/xliff", h.exportXLIFF)

		memories := apiGroup.Group("/tm")
		memories.GET("", h.listMemories)
		memories.POST("", h.importMemory)
		memories.POST("/match", h.matchMemory)
		memories.GET("/concordance", h.concordance)

		bases := apiGroup.Group("/tb")
		bases.GET("", h.listTermBases)
		bases.POST("", h.importTermBase)
		bases.POST("/match", h.matchTermBase)

		apiGroup.GET("/stats", h.stats)

		if deps.Preferences != nil {
			prefs := apiGroup.Group("/preferences")
			prefs.GET("", h.listPreferences)
			prefs.POST("", h.addPreference)
			prefs.PUT("/:pid/active", h.activatePreference)
			prefs.DELETE("/:pid", h.deletePreference)
		}
	}

	if deps.Hub != nil {
		r.GET("/ws/projects/:id", h.watchProject)
	}
	return r
}

// requestLogger 用 zap 记录每个请求
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
