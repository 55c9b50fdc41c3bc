package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       App       `yaml:"app"`
	Database  Database  `yaml:"database"`
	Allows    Allows    `yaml:"allows"`
	WhatsApp  WhatsApp  `yaml:"whatsapp"`
	Redis     Redis     `yaml:"redis"`
	Gemini    Gemini    `yaml:"gemini"`
	Campaigns Campaigns `yaml:"campaigns"`
}

type App struct {
	Name      string `yaml:"name" env:"APP_NAME"`
	Port      string `yaml:"port" env:"APP_PORT"`
	Host      string `yaml:"host" env:"APP_HOST"`
	Env       string `yaml:"env" env:"APP_ENV"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
	JWTSecret string `yaml:"jwt_secret" env:"SECRET"`
}

type Database struct {
	Host string `yaml:"host" env:"DB_HOST"`
	Port string `yaml:"port" env:"DB_PORT"`
	User string `yaml:"user" env:"DB_USER"`
	Pass string `yaml:"pass" env:"DB_PASSWORD"`
	Name string `yaml:"name" env:"DB_NAME"`
}

type Allows struct {
	Methods []string `yaml:"methods"`
	Origins []string `yaml:"origins" env:"CORS_ORIGINS" envSeparator:","`
	Headers []string `yaml:"headers"`
}

// WhatsApp holds the Graph API settings shared by every tenant. Per-tenant
// tokens live in the whatsapp_credentials table.
type WhatsApp struct {
	GraphBaseURL  string        `yaml:"graph_base_url" env:"WHATSAPP_GRAPH_BASE_URL"`
	APIVersion    string        `yaml:"api_version" env:"WHATSAPP_API_VERSION"`
	CountryPrefix string        `yaml:"country_prefix" env:"WHATSAPP_COUNTRY_PREFIX"`
	VerifyToken   string        `yaml:"verify_token" env:"WEBHOOK_VERIFY_TOKEN"`
	AppSecret     string        `yaml:"app_secret" env:"WEBHOOK_APP_SECRET"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"WHATSAPP_HTTP_TIMEOUT"`
}

type Redis struct {
	Addr      string        `yaml:"addr" env:"REDIS_ADDR"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"REDIS_DB"`
	DedupeTTL time.Duration `yaml:"dedupe_ttl" env:"REDIS_DEDUPE_TTL"`
}

type Gemini struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL"`
}

type Campaigns struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"CAMPAIGN_POLL_INTERVAL"`
	BatchSize    int           `yaml:"batch_size" env:"CAMPAIGN_BATCH_SIZE"`
}

// InitConfig reads ./config.yaml (optional) and overlays environment
// variables on top of it.
func InitConfig() (*Config, error) {
	return Load("./config.yaml")
}

func Load(path string) (*Config, error) {
	var configs Config

	file_name, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	yaml_file, err := os.ReadFile(file_name)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yaml_file, &configs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file_name, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", file_name, err)
	}

	// Environment wins over the file (Docker deployments only set env).
	if err := env.Parse(&configs); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	configs.applyDefaults()
	return &configs, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "chatdesk"
	}
	if c.App.Port == "" {
		c.App.Port = "8000"
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "console"
	}
	if c.WhatsApp.GraphBaseURL == "" {
		c.WhatsApp.GraphBaseURL = "https://graph.facebook.com"
	}
	if c.WhatsApp.APIVersion == "" {
		c.WhatsApp.APIVersion = "v21.0"
	}
	if c.WhatsApp.CountryPrefix == "" {
		c.WhatsApp.CountryPrefix = "591"
	}
	if c.WhatsApp.HTTPTimeout <= 0 {
		c.WhatsApp.HTTPTimeout = 30 * time.Second
	}
	if c.Redis.DedupeTTL <= 0 {
		c.Redis.DedupeTTL = 24 * time.Hour
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Campaigns.PollInterval <= 0 {
		c.Campaigns.PollInterval = 30 * time.Second
	}
	if c.Campaigns.BatchSize <= 0 {
		c.Campaigns.BatchSize = 10
	}
}
