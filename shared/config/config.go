package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	ApiBaseURL               string        `yaml:"api_base_url" validate:"required,url"`
	PageSize                 int           `yaml:"page_size" validate:"required,min=1,max=100"`
	MaxConcurrentResolutions int           `yaml:"max_concurrent_resolutions" validate:"min=0"` // 0 means unbounded
	RequestTimeout           time.Duration `yaml:"request_timeout" validate:"required"`
	PreviewRatePerSecond     float64       `yaml:"preview_rate_per_second" validate:"min=0"` // 0 disables throttling
	PreviewBurst             int           `yaml:"preview_burst" validate:"min=0"`
	ViewTTL                  time.Duration `yaml:"view_ttl" validate:"required"` // idle views are disposed after this
	MaxViews                 int           `yaml:"max_views" validate:"required,min=1"`
	LogLevel                 string        `yaml:"log_level"`
	LogJSON                  bool          `yaml:"log_json"`
	SecureCookies            bool          `yaml:"secure_cookies"`
	AllowedOrigins           []string      `yaml:"allowed_origins"`
}

type Private struct {
	JwtKey string `yaml:"jwt_key" validate:"required"`
}

func (s *Config) JwtKey() string {
	return s.private.JwtKey
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.UnmarshalStrict(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(output); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", configPath, err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
