package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		PingInterval    time.Duration `yaml:"ping_interval"`
		PongTimeout     time.Duration `yaml:"pong_timeout"`
	} `yaml:"server"`

	// API is the remote forum REST service.
	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Identity struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
		// VerificationSecret enables HS256 verification of issued tokens when set.
		VerificationSecret string        `yaml:"verification_secret"`
		RefreshSkew        time.Duration `yaml:"refresh_skew"`
	} `yaml:"identity"`

	Profile struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"profile"`

	Quota struct {
		FreePostLimit int `yaml:"free_post_limit"`
	} `yaml:"quota"`

	Membership struct {
		Price int64 `yaml:"price"`
	} `yaml:"membership"`

	Monitoring struct {
		PrometheusEnabled bool          `yaml:"prometheus_enabled"`
		HealthInterval    time.Duration `yaml:"health_interval"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled        bool   `yaml:"enabled"`
		ServiceName    string `yaml:"service_name"`
		JaegerEndpoint string `yaml:"jaeger_endpoint"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"`
		} `yaml:"http"`

		// Outbound throttles calls to the remote API.
		Outbound struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"outbound"`
	} `yaml:"rate_limiting"`

	CircuitBreaker struct {
		Enabled      bool          `yaml:"enabled"`
		MaxFailures  int           `yaml:"max_failures"`
		ResetTimeout time.Duration `yaml:"reset_timeout"`
	} `yaml:"circuit_breaker"`

	// DevStack configures the local in-memory identity provider and API.
	DevStack struct {
		Address         string        `yaml:"address"`
		JWTSecret       string        `yaml:"jwt_secret"`
		AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
		AdminEmail      string        `yaml:"admin_email"`
	} `yaml:"devstack"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	if c.Server.PingInterval <= 0 || c.Server.PongTimeout <= c.Server.PingInterval {
		return fmt.Errorf("server.pong_timeout must be > server.ping_interval > 0")
	}

	// Remote endpoints
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.Identity.BaseURL == "" {
		return fmt.Errorf("identity.base_url must not be empty")
	}
	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("identity.timeout must be > 0")
	}
	if c.Identity.RefreshSkew < 0 {
		return fmt.Errorf("identity.refresh_skew must be >= 0")
	}

	if c.Profile.CacheTTL <= 0 {
		return fmt.Errorf("profile.cache_ttl must be > 0")
	}
	if c.Quota.FreePostLimit <= 0 {
		return fmt.Errorf("quota.free_post_limit must be > 0")
	}
	if c.Membership.Price <= 0 {
		return fmt.Errorf("membership.price must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint must not be empty when tracing.enabled=true")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Outbound.RequestsPerSecond < 0 {
			return fmt.Errorf("rate_limiting.outbound.requests_per_second must be >= 0")
		}
		if c.RateLimiting.Outbound.RequestsPerSecond > 0 && c.RateLimiting.Outbound.Burst <= 0 {
			return fmt.Errorf("rate_limiting.outbound.burst must be > 0 when outbound limiting is set")
		}
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.MaxFailures <= 0 {
			return fmt.Errorf("circuit_breaker.max_failures must be > 0 when enabled")
		}
		if c.CircuitBreaker.ResetTimeout <= 0 {
			return fmt.Errorf("circuit_breaker.reset_timeout must be > 0 when enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second
	cfg.Server.PingInterval = 30 * time.Second
	cfg.Server.PongTimeout = 60 * time.Second

	cfg.API.BaseURL = "http://localhost:5000"
	cfg.API.Timeout = 10 * time.Second

	cfg.Identity.BaseURL = "http://localhost:5000"
	cfg.Identity.Timeout = 10 * time.Second
	cfg.Identity.RefreshSkew = 30 * time.Second

	cfg.Profile.CacheTTL = 5 * time.Minute
	cfg.Quota.FreePostLimit = 5
	cfg.Membership.Price = 10

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.HealthInterval = 30 * time.Second

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "forumd"
	cfg.Tracing.JaegerEndpoint = "http://localhost:14268/api/traces"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	cfg.RateLimiting.Outbound.RequestsPerSecond = 20
	cfg.RateLimiting.Outbound.Burst = 40

	cfg.CircuitBreaker.Enabled = true
	cfg.CircuitBreaker.MaxFailures = 5
	cfg.CircuitBreaker.ResetTimeout = 30 * time.Second

	cfg.DevStack.Address = ":5000"
	cfg.DevStack.JWTSecret = "change-me-in-production"
	cfg.DevStack.AccessTokenTTL = 15 * time.Minute
	cfg.DevStack.RefreshTokenTTL = 7 * 24 * time.Hour
	cfg.DevStack.AdminEmail = "admin@forum.local"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("FORUM_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if url := os.Getenv("FORUM_API_BASE_URL"); url != "" {
		c.API.BaseURL = url
	}
	if url := os.Getenv("FORUM_IDENTITY_BASE_URL"); url != "" {
		c.Identity.BaseURL = url
	}
	if secret := os.Getenv("FORUM_IDENTITY_SECRET"); secret != "" {
		c.Identity.VerificationSecret = secret
	}
	if level := os.Getenv("FORUM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if limit := os.Getenv("FORUM_FREE_POST_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.Quota.FreePostLimit = n
		}
	}
	if addr := os.Getenv("FORUM_REDIS_ADDRESS"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Address = addr
	}
	if secret := os.Getenv("FORUM_DEVSTACK_JWT_SECRET"); secret != "" {
		c.DevStack.JWTSecret = secret
	}
}
