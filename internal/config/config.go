package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"PHR_ENV"`
	HTTPAddr string `mapstructure:"PHR_HTTP_ADDR"`
	MCPPath  string `mapstructure:"PHR_MCP_PATH"`

	Mongo    MongoConfig    `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
	Logging  LoggingConfig  `mapstructure:",squash"`
}

type MongoConfig struct {
	// URI is the full MongoDB connection string. It is deployment
	// configuration and must never appear as a literal in code.
	URI string `mapstructure:"PHR_MONGO_URI"`

	// Database and Collection are the defaults applied to query requests
	// that do not name their own target.
	Database   string `mapstructure:"PHR_MONGO_DATABASE"`
	Collection string `mapstructure:"PHR_MONGO_COLLECTION"`

	// ConnectTimeout bounds connection establishment and server selection
	// so an unreachable endpoint fails instead of hanging.
	ConnectTimeout time.Duration `mapstructure:"PHR_MONGO_CONNECT_TIMEOUT"`
}

type SecurityConfig struct {
	RateLimitRPM       int      `mapstructure:"PHR_RATE_LIMIT_RPM"`
	CORSAllowedOrigins []string `mapstructure:"PHR_CORS_ALLOWED_ORIGINS"`
}

type LoggingConfig struct {
	// QueryFilters enables logging the raw filter document of every query.
	// Off by default: filters are caller-supplied and may carry sensitive
	// search criteria into the logs.
	QueryFilters bool `mapstructure:"PHR_LOG_QUERY_FILTERS"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("backend", ".env"),
		filepath.Join("..", ".env"),
	}

	seen := make(map[string]struct{})
	for _, path := range candidates {
		abs := path
		if !filepath.IsAbs(path) {
			if resolved, err := filepath.Abs(path); err == nil {
				abs = resolved
			}
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // ignore errors; env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("PHR_ENV", "dev")
	viper.SetDefault("PHR_HTTP_ADDR", ":8000")
	viper.SetDefault("PHR_MCP_PATH", "/mcp")
	viper.SetDefault("PHR_MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("PHR_MONGO_DATABASE", "pharma_data")
	viper.SetDefault("PHR_MONGO_COLLECTION", "ims_may_2025")
	viper.SetDefault("PHR_MONGO_CONNECT_TIMEOUT", "10s")
	viper.SetDefault("PHR_RATE_LIMIT_RPM", 120)
	viper.SetDefault("PHR_CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("PHR_LOG_QUERY_FILTERS", false)

	// Handle array parsing for comma-separated values
	if origins := viper.GetString("PHR_CORS_ALLOWED_ORIGINS"); origins != "" {
		viper.Set("PHR_CORS_ALLOWED_ORIGINS", strings.Split(origins, ","))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyPortOverride()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyPortOverride honors a bare PORT variable, which is how the hosting
// environment hands the listen port to the process.
func (c *Config) applyPortOverride() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.HTTPAddr = ":" + port
	}
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("PHR_MONGO_URI is required")
	}
	if !strings.HasPrefix(c.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
		return fmt.Errorf("PHR_MONGO_URI must be a mongodb:// or mongodb+srv:// URI")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("PHR_MONGO_DATABASE is required")
	}
	if c.Mongo.Collection == "" {
		return fmt.Errorf("PHR_MONGO_COLLECTION is required")
	}
	if !strings.HasPrefix(c.MCPPath, "/") {
		return fmt.Errorf("invalid PHR_MCP_PATH %q (must start with '/')", c.MCPPath)
	}
	if c.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("PHR_MONGO_CONNECT_TIMEOUT must be positive")
	}
	if c.Security.RateLimitRPM <= 0 {
		return fmt.Errorf("PHR_RATE_LIMIT_RPM must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
