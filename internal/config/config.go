package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql or postgres; empty disables history
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Redis struct {
		Addr string `yaml:"addr"` // empty falls back to the in-memory cache
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Providers struct {
		OpenAI struct {
			Model string `yaml:"model"`
		} `yaml:"openai"`
		Anthropic struct {
			Model string `yaml:"model"`
		} `yaml:"anthropic"`
		Gemini struct {
			Model string `yaml:"model"`
		} `yaml:"gemini"`
	} `yaml:"providers"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"` // tenant -> key; empty disables auth
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`

	Analysis struct {
		TimeoutSeconds  int `yaml:"timeoutSeconds"`
		Retries         int `yaml:"retries"`
		CacheTTLSeconds int `yaml:"cacheTTLSeconds"`
	} `yaml:"analysis"`

	// Credentials come from the environment only, never from the yaml file.
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
	GeminiKey    string `yaml:"-"`
}

// Load baca file config dan overlay credentials dari environment
func Load(path string) (*Config, error) {
	godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ANALYSIS_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("ANALYSIS_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.Retries = n
		}
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.CacheTTLSeconds = n
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Analysis.TimeoutSeconds <= 0 {
		cfg.Analysis.TimeoutSeconds = 60
	}
	if cfg.Analysis.Retries <= 0 {
		cfg.Analysis.Retries = 3
	}
	if cfg.Analysis.CacheTTLSeconds <= 0 {
		cfg.Analysis.CacheTTLSeconds = 24 * 60 * 60
	}
	if cfg.RateLimit.Capacity <= 0 {
		cfg.RateLimit.Capacity = 100
	}
	if cfg.RateLimit.RefillRate <= 0 {
		cfg.RateLimit.RefillRate = 10
	}

	return &cfg, nil
}

// Timeout per panggilan provider
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

// CacheTTL untuk hasil sukses
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Analysis.CacheTTLSeconds) * time.Second
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	sslmode := c.Database.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslmode,
	)
}
