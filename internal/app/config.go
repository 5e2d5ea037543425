package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 存放应用级配置。
//
// 读取顺序：DefaultConfig() -> 配置文件（可选，YAML）-> INSPECTOR_* 环境变量 -> 命令行参数。
type Config struct {
	DBPath        string        `mapstructure:"db_path"`
	ExportDir     string        `mapstructure:"export_dir"`
	ListsSeedPath string        `mapstructure:"lists_seed_path"`
	ListenAddr    string        `mapstructure:"listen_addr"`
	LogEnv        string        `mapstructure:"log_env"`
	PDFFont       string        `mapstructure:"pdf_font"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
	PDFCacheTTL   time.Duration `mapstructure:"pdf_cache_ttl"`
}

// DefaultConfig 返回本地使用的默认配置。
func DefaultConfig() Config {
	return Config{
		DBPath:        "data/inspector.db",
		ExportDir:     "data/exports",
		ListsSeedPath: "config/lists.yaml",
		ListenAddr:    "127.0.0.1:8787",
		LogEnv:        "development",
		PDFFont:       "",
		CORSOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:8787"},
		PDFCacheTTL:   10 * time.Minute,
	}
}

// Load 读取配置。path 为空时尝试 config/inspector.yaml；文件不存在不算错误。
func Load(path string) (Config, error) {
	// .env 只在本地开发时存在，缺失直接忽略。
	_ = godotenv.Load()

	def := DefaultConfig()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("INSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("export_dir", def.ExportDir)
	v.SetDefault("lists_seed_path", def.ListsSeedPath)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("log_env", def.LogEnv)
	v.SetDefault("pdf_font", def.PDFFont)
	v.SetDefault("cors_origins", def.CORSOrigins)
	v.SetDefault("pdf_cache_ttl", def.PDFCacheTTL)

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = "config/inspector.yaml"
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if explicit {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, errors.New("config: db_path is required")
	}
	if cfg.PDFCacheTTL <= 0 {
		cfg.PDFCacheTTL = def.PDFCacheTTL
	}
	return cfg, nil
}
