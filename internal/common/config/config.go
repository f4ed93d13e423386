// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Enrollment    EnrollmentConfig   `mapstructure:"enrollment"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Tracing       TracingConfig      `mapstructure:"tracing"`
	Notifications NotificationConfig `mapstructure:"notifications"`

	// EnvFile is the .env file that was loaded, if any.
	EnvFile string `mapstructure:"-"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	// StaticDir serves the landing page from disk instead of the embedded copy.
	StaticDir string `mapstructure:"static_dir"`
}

type EnrollmentConfig struct {
	// SeedPath points at a seed JSON file; empty means the built-in roster.
	SeedPath        string `mapstructure:"seed_path"`
	EnforceCapacity bool   `mapstructure:"enforce_capacity"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// NotificationConfig holds settings for every enrollment change sink.
type NotificationConfig struct {
	Timeout   int            `mapstructure:"timeout"`    // milliseconds, per sink
	QueueSize int            `mapstructure:"queue_size"` // pending changes before new ones are dropped
	Redis     RedisConfig    `mapstructure:"redis"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	SES       SESConfig      `mapstructure:"ses"`
	SNS       SNSConfig      `mapstructure:"sns"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	EventsKey string `mapstructure:"events_key"`
	Channel   string `mapstructure:"channel"`
	MaxLen    int64  `mapstructure:"max_len"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type SESConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
}

type SNSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}
