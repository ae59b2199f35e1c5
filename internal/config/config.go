package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Alert    AlertConfig    `yaml:"alert"`
	Log      LogConfig      `yaml:"log"`
	Reporter ReporterConfig `yaml:"reporter"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// AlertConfig describes the SMS gateway used by urgent reports.
// MaxPerMinute throttles alerts; 0 disables the limit.
type AlertConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Name         string        `yaml:"name"`
	Recipients   []string      `yaml:"recipients"`
	Level        int           `yaml:"level"`
	TemplateCode string        `yaml:"template_code"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxPerMinute int           `yaml:"max_per_minute"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ReporterConfig struct {
	MaxDepth int  `yaml:"max_depth"`
	Archive  bool `yaml:"archive"`
	Publish  bool `yaml:"publish"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "errwatch", Database: "errwatch"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Alert: AlertConfig{
			Name:         "监控",
			Level:        1,
			TemplateCode: "SMS_163055819",
			Timeout:      10 * time.Second,
			MaxPerMinute: 6,
		},
		Log:      LogConfig{Level: "info"},
		Reporter: ReporterConfig{MaxDepth: 1000},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and applies environment overrides.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Alert.Level < 0 {
		return fmt.Errorf("alert.level must not be negative")
	}
	if c.Alert.MaxPerMinute < 0 {
		return fmt.Errorf("alert.max_per_minute must not be negative")
	}
	if c.Reporter.MaxDepth < 0 {
		return fmt.Errorf("reporter.max_depth must not be negative")
	}
	return nil
}

// Secrets and endpoints can come from the environment instead of the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ERRWATCH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ERRWATCH_RABBITMQ_PASSWORD"); v != "" {
		cfg.RabbitMQ.Password = v
	}
	if v := os.Getenv("ERRWATCH_ALERT_ENDPOINT"); v != "" {
		cfg.Alert.Endpoint = v
	}
	if v := os.Getenv("ERRWATCH_ALERT_RECIPIENTS"); v != "" {
		cfg.Alert.Recipients = strings.Split(v, ",")
	}
	if v := os.Getenv("ERRWATCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
