package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/internal/store"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/segment"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/tm"
)

// WORKBENCH_STORE_REDIS_URL -> store.redis_url
var envKeyReplacer = strings.NewReplacer(".", "_")

// SegmentationConfig 分段参数，Tokens 为空时使用启用的预设
type SegmentationConfig struct {
	Tokens []string `mapstructure:"tokens"`
	Mode   string   `mapstructure:"mode"` // strict / sentence-case / whitespace
}

// TMConfig 翻译记忆参数
type TMConfig struct {
	Threshold float64 `mapstructure:"threshold"` // 最低相似度（百分比）
}

// HTMLConfig HTML 提取参数
type HTMLConfig struct {
	IgnoredTags []string `mapstructure:"ignored_tags"`
	Attributes  []string `mapstructure:"attributes"`
}

// StoreConfig 持久化参数
type StoreConfig struct {
	Driver    string `mapstructure:"driver"` // sqlite 或 redis
	Path      string `mapstructure:"path"`
	RedisURL  string `mapstructure:"redis_url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ServerConfig HTTP 服务参数
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config 保存工作台的所有配置
type Config struct {
	SourceLang      string             `mapstructure:"source_lang"`
	TargetLang      string             `mapstructure:"target_lang"`
	Segmentation    SegmentationConfig `mapstructure:"segmentation"`
	TM              TMConfig           `mapstructure:"tm"`
	HTML            HTMLConfig         `mapstructure:"html"`
	Store           StoreConfig        `mapstructure:"store"`
	Server          ServerConfig       `mapstructure:"server"`
	PreferencesFile string             `mapstructure:"preferences_file"`
	LogLevel        string             `mapstructure:"log_level"`
	Debug           bool               `mapstructure:"debug"`
}

// LoadConfig 从文件加载配置
// 工作目录中的 .env 先被加载，WORKBENCH_* 环境变量覆盖文件中的值
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在不是错误
	_ = godotenv.Load()

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果配置路径已指定，则直接使用
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 查找家目录中的配置文件
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".workbench")
		v.SetConfigType("yaml")
	}

	// 读取环境变量
	v.SetEnvPrefix("WORKBENCH")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if _, err := segment.ParseMode(c.Segmentation.Mode); err != nil {
		return fmt.Errorf("segmentation.mode: %w", err)
	}
	if c.TM.Threshold < 0 || c.TM.Threshold > 100 {
		return fmt.Errorf("tm.threshold must be between 0 and 100, got %v", c.TM.Threshold)
	}
	switch c.Store.Driver {
	case "", "sqlite", "redis":
	default:
		return fmt.Errorf("store.driver must be sqlite or redis, got %q", c.Store.Driver)
	}
	if c.Store.Driver == "redis" && c.Store.RedisURL == "" {
		return fmt.Errorf("store.redis_url is required for the redis driver")
	}
	return nil
}

// SegmentMode 返回解析后的分段模式
func (c *Config) SegmentMode() segment.Mode {
	mode, _ := segment.ParseMode(c.Segmentation.Mode)
	return mode
}

// DocumentOptions 返回文档适配器选项
func (c *Config) DocumentOptions() document.Options {
	return document.Options{
		IgnoredTags: c.HTML.IgnoredTags,
		Attributes:  c.HTML.Attributes,
	}
}

// StoreOptions 返回存储层配置
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Driver:    c.Store.Driver,
		Path:      c.Store.Path,
		RedisURL:  c.Store.RedisURL,
		KeyPrefix: c.Store.KeyPrefix,
	}
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	dataDir := getDefaultDataDir()

	return &Config{
		SourceLang: "en",
		TargetLang: "fr",
		Segmentation: SegmentationConfig{
			Mode: segment.ModeStrict.String(),
		},
		TM: TMConfig{Threshold: tm.DefaultThreshold},
		HTML: HTMLConfig{
			IgnoredTags: document.DefaultIgnoredTags,
			Attributes:  document.DefaultAttributes,
		},
		Store: StoreConfig{
			Driver:    "sqlite",
			Path:      filepath.Join(dataDir, "workbench.db"),
			KeyPrefix: "workbench:",
		},
		Server:          ServerConfig{Addr: ":8080"},
		PreferencesFile: filepath.Join(dataDir, "preferences.toml"),
		LogLevel:        "info",
	}
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".workbench.yaml")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	// 设置所有配置值
	for key, value := range structToMap(config) {
		v.Set(key, value)
	}

	// 创建父目录（如果不存在）
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return v.WriteConfigAs(configPath)
}

// getDefaultDataDir 获取默认数据目录
func getDefaultDataDir() string {
	// 优先使用系统配置目录
	configDir, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(configDir, "workbench")
	}

	// 如果无法获取系统配置目录，使用用户主目录
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".workbench")
	}

	// 最后的兜底方案
	return "./workbench-data"
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	for key, value := range structToMap(d) {
		v.SetDefault(key, value)
	}
}

// structToMap 将结构体转换为map
func structToMap(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"source_lang":         config.SourceLang,
		"target_lang":         config.TargetLang,
		"segmentation.tokens": config.Segmentation.Tokens,
		"segmentation.mode":   config.Segmentation.Mode,
		"tm.threshold":        config.TM.Threshold,
		"html.ignored_tags":   config.HTML.IgnoredTags,
		"html.attributes":     config.HTML.Attributes,
		"store.driver":        config.Store.Driver,
		"store.path":          config.Store.Path,
		"store.redis_url":     config.Store.RedisURL,
		"store.key_prefix":    config.Store.KeyPrefix,
		"server.addr":         config.Server.Addr,
		"preferences_file":    config.PreferencesFile,
		"log_level":           config.LogLevel,
		"debug":               config.Debug,
	}
}
