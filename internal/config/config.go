package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logger   LoggerConfig   `yaml:"logger"`
}

type DatabaseConfig struct {
	// Driver selects the task store backend: sqlite, postgres, mysql, bolt or memory.
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	BoltPath   string `yaml:"bolt_path"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
}

type SessionConfig struct {
	// Store is either "cookie" or "redis".
	Store     string `yaml:"store"`
	Secret    string `yaml:"secret"`
	RedisHost string `yaml:"redis_host"`
	RedisPort string `yaml:"redis_port"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	GinMode         string        `yaml:"gin_mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "./data/todoapp.db",
			BoltPath:   "./data/todoapp.bolt",
			Host:       "localhost",
			Port:       "5432",
			User:       "taskuser",
			Password:   "taskpassword",
			Name:       "task_collab",
		},
		Session: SessionConfig{
			Store:     "cookie",
			Secret:    "default-secret-key-change-me",
			RedisHost: "localhost",
			RedisPort: "6379",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			GinMode:         "debug",
			ShutdownTimeout: 15 * time.Second,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// TASKS_CONFIG_FILE, and environment variables (optionally read from .env).
// Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()

	if path := os.Getenv("TASKS_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Database.BoltPath = getEnv("BOLT_PATH", c.Database.BoltPath)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)

	c.Session.Store = getEnv("SESSION_STORE", c.Session.Store)
	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	c.Session.RedisHost = getEnv("REDIS_HOST", c.Session.RedisHost)
	c.Session.RedisPort = getEnv("REDIS_PORT", c.Session.RedisPort)

	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.GinMode = getEnv("GIN_MODE", c.HTTP.GinMode)
	c.HTTP.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)

	c.Logger.Level = getEnv("LOG_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getEnv("LOG_ENCODING", c.Logger.Encoding)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
