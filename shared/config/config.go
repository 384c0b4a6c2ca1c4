package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	publicFile  = "public.yaml"
	privateFile = "private.yaml"

	envBackendURL = "BACKEND_URL"
	envSessionKey = "SESSION_KEY"
	envPort       = "PORT"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Server    Server    `yaml:"server"`
	Backend   Backend   `yaml:"backend"`
	Upload    Upload    `yaml:"upload"`
	Preview   Preview   `yaml:"preview"`
	Session   Session   `yaml:"session"`
	RateLimit RateLimit `yaml:"rate_limit"`
	CORS      CORS      `yaml:"cors"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Port          string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout   time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout  time.Duration `yaml:"write_timeout" validate:"gt=0"`
	SecureCookies bool          `yaml:"secure_cookies"`
	TemplatesPath string        `yaml:"templates_path" validate:"required"`
	StaticPath    string        `yaml:"static_path" validate:"required"`
	ContentPath   string        `yaml:"content_path"`
	Env           string        `yaml:"env" validate:"oneof=development production"`
}

// Backend addresses the external conversion service.
type Backend struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"` // 0 leaves the transport defaults in charge
}

type Upload struct {
	MaxFileSizeBytes   int64    `yaml:"max_file_size_bytes" validate:"gt=0"`
	MaxResultSizeBytes int64    `yaml:"max_result_size_bytes" validate:"gt=0"`
	AllowedMimeTypes   []string `yaml:"allowed_mime_types" validate:"required,min=1,dive,required"`
}

type Preview struct {
	MaxDimension        int           `yaml:"max_dimension" validate:"gt=0"`
	MaxDecodedSizeBytes int64         `yaml:"max_decoded_size_bytes" validate:"gt=0"` // RGBA buffer limit checked before decoding
	Wait                time.Duration `yaml:"wait" validate:"gte=0"`                  // how long /upload waits for the preview before redirecting
}

type Session struct {
	TTL             time.Duration `yaml:"ttl" validate:"gt=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gt=0"`
}

type RateLimit struct {
	ConvertPerMinute float64 `yaml:"convert_per_minute" validate:"gt=0"`
	ConvertBurst     int     `yaml:"convert_burst" validate:"gte=1"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Private struct {
	SessionKey string `yaml:"session_key" validate:"required,min=16"`
}

func (c *Config) SessionKey() string {
	return c.Private.SessionKey
}

func (c *Config) SessionTTL() time.Duration {
	return c.Public.Session.TTL
}

func (c *Config) IsDevelopment() bool {
	return c.Public.Server.Env == "development"
}

// Default returns the configuration used for keys absent from the YAML files.
func Default() Public {
	return Public{
		Server: Server{
			Port:          "8081",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  2 * time.Minute,
			TemplatesPath: "frontend/templates",
			StaticPath:    "frontend/static",
			ContentPath:   "frontend/content",
			Env:           "production",
		},
		Backend: Backend{
			BaseURL: "http://localhost:8000",
		},
		Upload: Upload{
			MaxFileSizeBytes:   10 << 20,
			MaxResultSizeBytes: 20 << 20,
			AllowedMimeTypes:   []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff"},
		},
		Preview: Preview{
			MaxDimension:        512,
			MaxDecodedSizeBytes: 100 << 20,
			Wait:                3 * time.Second,
		},
		Session: Session{
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		RateLimit: RateLimit{
			ConvertPerMinute: 6,
			ConvertBurst:     2,
		},
		Log: Log{Level: "info"},
	}
}

func loadPath(configPath string, output any, required bool) error {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envBackendURL); v != "" {
		cfg.Public.Backend.BaseURL = v
	}
	if v := os.Getenv(envSessionKey); v != "" {
		cfg.Private.SessionKey = v
	}
	if v := os.Getenv(envPort); v != "" {
		cfg.Public.Server.Port = v
	}
}

// Load reads public.yaml (required) and private.yaml (optional when SESSION_KEY is set),
// applies environment overrides and validates the result.
func Load(configFolder string) (*Config, error) {
	cfg := &Config{Public: Default()}
	if err := loadPath(path.Join(configFolder, publicFile), &cfg.Public, true); err != nil {
		return nil, err
	}
	privateRequired := os.Getenv(envSessionKey) == ""
	if err := loadPath(path.Join(configFolder, privateFile), &cfg.Private, privateRequired); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
