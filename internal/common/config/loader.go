// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var defaultConfigPaths = []string{"./configs", "../../configs", "."}

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// when present and applies environment overrides.
func Load() (*Config, error) {
	return load(defaultConfigPaths...)
}

func load(paths ...string) (*Config, error) {
	envFile := loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// per-environment overlay is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	envFile := loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	// SERVER_ADDRESS overrides server.address, and so on
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env it finds and returns its path.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Secrets usually arrive through the environment rather than the YAML file.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Notifications.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Notifications.Redis.Password = val
		}
	}
	if cfg.Notifications.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Notifications.Postgres.User = val
		}
	}
	if cfg.Notifications.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Notifications.Postgres.Password = val
		}
	}

	region := os.Getenv("AWS_REGION")
	if cfg.Notifications.SES.Region == "" {
		cfg.Notifications.SES.Region = region
	}
	if cfg.Notifications.SNS.Region == "" {
		cfg.Notifications.SNS.Region = region
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mergington-activities"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.App.Name
	}

	n := &cfg.Notifications
	if n.Timeout == 0 {
		n.Timeout = 2000
	}
	if n.QueueSize == 0 {
		n.QueueSize = 256
	}
	if n.Redis.EventsKey == "" {
		n.Redis.EventsKey = "enrollment:events"
	}
	if n.Redis.Channel == "" {
		n.Redis.Channel = "enrollment:changes"
	}
	if n.Redis.MaxLen == 0 {
		n.Redis.MaxLen = 1000
	}
	if n.Postgres.Port == 0 {
		n.Postgres.Port = 5432
	}
	if n.Postgres.MaxConnections == 0 {
		n.Postgres.MaxConnections = 10
	}
	if n.Postgres.MaxIdle == 0 {
		n.Postgres.MaxIdle = 2
	}
	if n.Postgres.SSLMode == "" {
		n.Postgres.SSLMode = "disable"
	}
}

// validateConfig only checks sinks that are switched on.
func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	n := cfg.Notifications
	if n.Redis.Enabled && n.Redis.Address == "" {
		return fmt.Errorf("notifications.redis.address is required")
	}
	if n.QueueSize < 0 {
		return fmt.Errorf("notifications.queue_size must not be negative")
	}
	if n.Redis.MaxLen < 0 {
		return fmt.Errorf("notifications.redis.max_len must not be negative")
	}
	if n.Postgres.Enabled {
		if n.Postgres.Host == "" {
			return fmt.Errorf("notifications.postgres.host is required")
		}
		if n.Postgres.Database == "" {
			return fmt.Errorf("notifications.postgres.database is required")
		}
		if n.Postgres.User == "" {
			return fmt.Errorf("notifications.postgres.user is required")
		}
	}
	if n.SES.Enabled && n.SES.FromEmail == "" {
		return fmt.Errorf("notifications.ses.from_email is required")
	}
	if n.SNS.Enabled && n.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
