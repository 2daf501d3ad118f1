// Package config centraliza o carregamento de configurações do gateway.
//
// Ordem de precedência: DefaultConfig, arquivo YAML (se existir), .env (godotenv),
// variáveis RATEWRAP_* e, por fim, Validate.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "RATEWRAP_"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	UpstreamURL     string        `yaml:"upstream_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RedisConfig struct {
	// Addrs com mais de um endereço vira cliente de cluster (redis.UniversalClient).
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
}

type RateLimitConfig struct {
	Window         time.Duration   `yaml:"window"`
	MaxCount       int64           `yaml:"max_count"`
	Namespace      string          `yaml:"namespace"`
	ProxyHeader    string          `yaml:"proxy_header"`
	FailOpen       bool            `yaml:"fail_open"`
	AddHeaders     bool            `yaml:"add_headers"`
	SkipPaths      []string        `yaml:"skip_paths"`
	MaxInflight    int             `yaml:"max_inflight"`
	AcquireTimeout time.Duration   `yaml:"acquire_timeout"`
	TierHeader     string          `yaml:"tier_header"`
	Tiers          map[string]Tier `yaml:"tiers"`
}

type Tier struct {
	Window   time.Duration `yaml:"window"`
	MaxCount int64         `yaml:"max_count"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DefaultConfig devolve os valores padrão (2 requisições por segundo, como no exemplo clássico).
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addrs: []string{"localhost:6379"},
		},
		RateLimit: RateLimitConfig{
			Window:      time.Second,
			MaxCount:    2,
			Namespace:   "ratelimit",
			ProxyHeader: "X-Real-IP",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:      "/metrics",
			Namespace: "ratewrap",
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// Load lê path (opcional), aplica .env e variáveis de ambiente e valida o resultado.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env é opcional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := getEnv("UPSTREAM_URL"); v != "" {
		c.Server.UpstreamURL = v
	}
	if v := getEnv("REDIS_ADDRS"); v != "" {
		c.Redis.Addrs = splitList(v)
	} else if v := getEnv("REDIS_ADDR"); v != "" {
		c.Redis.Addrs = []string{v}
	}
	if v := getEnv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getEnv("NAMESPACE"); v != "" {
		c.RateLimit.Namespace = v
	}
	if v := getEnv("PROXY_HEADER"); v != "" {
		c.RateLimit.ProxyHeader = v
	}
	if v := getEnv("SKIP_PATHS"); v != "" {
		c.RateLimit.SkipPaths = splitList(v)
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getEnv("OTLP_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}

	var err error
	if c.Redis.DB, err = envInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.RateLimit.Window, err = envDuration("WINDOW", c.RateLimit.Window); err != nil {
		return err
	}
	if c.RateLimit.MaxCount, err = envInt64("MAX_COUNT", c.RateLimit.MaxCount); err != nil {
		return err
	}
	if c.RateLimit.MaxInflight, err = envInt("MAX_INFLIGHT", c.RateLimit.MaxInflight); err != nil {
		return err
	}
	if c.RateLimit.FailOpen, err = envBool("FAIL_OPEN", c.RateLimit.FailOpen); err != nil {
		return err
	}
	if c.RateLimit.AddHeaders, err = envBool("ADD_HEADERS", c.RateLimit.AddHeaders); err != nil {
		return err
	}
	if c.Logging.JSON, err = envBool("LOG_JSON", c.Logging.JSON); err != nil {
		return err
	}
	if c.Metrics.Enabled, err = envBool("METRICS_ENABLED", c.Metrics.Enabled); err != nil {
		return err
	}
	return nil
}

// Validate rejeita valores que deixariam o gateway sem semântica definida.
func (c *Config) Validate() error {
	if c.Server.UpstreamURL == "" {
		return ErrMissingUpstream
	}
	u, err := url.Parse(c.Server.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Field: "server.upstream_url", Message: "must be an absolute URL"}
	}
	if len(c.Redis.Addrs) == 0 {
		return &Error{Field: "redis.addrs", Message: "at least one address is required"}
	}
	if c.RateLimit.Window < time.Millisecond || c.RateLimit.Window%time.Millisecond != 0 {
		return &Error{Field: "rate_limit.window", Message: "must be a whole number of milliseconds >= 1ms"}
	}
	if c.RateLimit.MaxCount <= 0 {
		return &Error{Field: "rate_limit.max_count", Message: "must be > 0"}
	}
	if c.RateLimit.MaxInflight < 0 {
		return &Error{Field: "rate_limit.max_inflight", Message: "must be >= 0"}
	}
	for name, tier := range c.RateLimit.Tiers {
		if tier.Window < time.Millisecond || tier.Window%time.Millisecond != 0 || tier.MaxCount <= 0 {
			return &Error{Field: "rate_limit.tiers." + name, Message: "window must be >= 1ms and max_count > 0"}
		}
	}
	if len(c.RateLimit.Tiers) > 0 && c.RateLimit.TierHeader == "" {
		return &Error{Field: "rate_limit.tier_header", Message: "is required when tiers are set"}
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}

var ErrMissingUpstream = &Error{Field: "server.upstream_url", Message: "is required"}

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config: " + e.Field + " " + e.Message
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envInt(key string, def int) (int, error) {
	v := getEnv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return i, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := getEnv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return i, nil
}

func envBool(key string, def bool) (bool, error) {
	v := getEnv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

// envDuration aceita "1s", "500ms" ou um inteiro em milissegundos.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return d, nil
}
