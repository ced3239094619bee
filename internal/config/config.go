// Package config 在进程启动时构造一次应用配置，之后以值传递给各组件。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"coatvision/internal/analysis"
	"coatvision/internal/scoring"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server   ServerConfig            `yaml:"server"`
	Database DatabaseConfig          `yaml:"database"`
	Analysis analysis.Config         `yaml:"analysis"`
	Pricing  scoring.PricingDefaults `yaml:"pricing"`
	Log      LogConfig               `yaml:"log"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// Load 读取 .env、YAML 文件与环境变量覆盖项，文件不存在时使用默认值。
func Load() (AppConfig, error) {
	_ = godotenv.Load(".env", ".env.local")

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	var cfg AppConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(data); err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Parse 解析 YAML 内容。
func Parse(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// ApplyEnv 用环境变量覆盖配置，getenv 便于测试注入。
func (c *AppConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv("COATVISION_USE_REMOTE"); v != "" {
		c.Analysis.UseRemote = strings.TrimSpace(v) == "1"
	}
	if v := getenv("COATVISION_API_BASE_URL"); v != "" {
		c.Analysis.BaseURL = strings.TrimSpace(v)
	}
	if v := getenv("COATVISION_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("COATVISION_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("APP_ENV"); v != "" {
		c.Log.Env = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// ApplyDefaults 补全缺省值。
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "5s"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/coatvision.db"
	}
	if c.Analysis.Timeout == "" {
		c.Analysis.Timeout = "30s"
	}
	if c.Log.Env == "" {
		c.Log.Env = "production"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	def := scoring.DefaultPricing()
	if c.Pricing.DirtLevel == "" {
		c.Pricing.DirtLevel = def.DirtLevel
	}
	if c.Pricing.Procedure == "" {
		c.Pricing.Procedure = def.Procedure
	}
	if c.Pricing.LaborRate <= 0 {
		c.Pricing.LaborRate = def.LaborRate
	}
	if c.Pricing.DC == 0 {
		c.Pricing.DC = def.DC
	}
}

// Validate 校验报价枚举与时长格式，并将枚举规范为标准写法。
func (c *AppConfig) Validate() error {
	level, err := scoring.ParseDirtLevel(string(c.Pricing.DirtLevel))
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	proc, err := scoring.ParseProcedure(string(c.Pricing.Procedure))
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	c.Pricing.DirtLevel = level
	c.Pricing.Procedure = proc
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return nil
}

// ShutdownTimeoutDuration 返回优雅关闭超时。
func (c AppConfig) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
