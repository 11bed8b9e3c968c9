// Пакет config загружает конфигурацию сервисов:
// значения по умолчанию, затем YAML-файл из CONFIG_FILE, затем переменные окружения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Postgres параметры подключения к Postgres
type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN собирает строку подключения для lib/pq
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

// Config конфигурация API и консьюмера
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	HTTPAddr       string `yaml:"http_addr"`
	MigrationsPath string `yaml:"migrations_path"`

	Postgres Postgres `yaml:"postgres"`

	RedisAddr string        `yaml:"redis_addr"`
	RedisTTL  time.Duration `yaml:"redis_ttl"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	ConsumerPort  string        `yaml:"consumer_port"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Environment:    "development",
		LogLevel:       "info",
		HTTPAddr:       ":8080",
		MigrationsPath: "migrations",
		Postgres: Postgres{
			Host:    "localhost",
			Port:    "5432",
			Name:    "appdb",
			SSLMode: "disable",
		},
		RedisAddr:     "localhost:6379",
		RedisTTL:      time.Minute,
		NATSURL:       "nats://localhost:4222",
		NATSSubject:   "workouts",
		BatchSize:     10,
		FlushInterval: 5 * time.Second,
		ConsumerPort:  "8081",
	}
}

// Load загружает конфигурацию и проверяет её
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)

	c.Postgres.Host = getEnv("DB_HOST", c.Postgres.Host)
	c.Postgres.Port = getEnv("DB_PORT", c.Postgres.Port)
	c.Postgres.User = getEnv("DB_USER", c.Postgres.User)
	c.Postgres.Password = getEnv("DB_PASSWORD", c.Postgres.Password)
	c.Postgres.Name = getEnv("DB_NAME", c.Postgres.Name)
	c.Postgres.SSLMode = getEnv("DB_SSLMODE", c.Postgres.SSLMode)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSSubject = getEnv("NATS_SUBJECT", c.NATSSubject)
	c.ClickhouseDSN = getEnv("CLICKHOUSE_DSN", c.ClickhouseDSN)
	c.ConsumerPort = getEnv("CONSUMER_PORT", c.ConsumerPort)

	if v := os.Getenv("REDIS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_TTL: %w", err)
		}
		c.RedisTTL = d
	}
	if v := os.Getenv("FLUSH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FLUSH_INTERVAL: %w", err)
		}
		c.FlushInterval = d
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		bs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BATCH_SIZE: %w", err)
		}
		c.BatchSize = bs
	}
	return nil
}

// Validate проверяет обязательные значения
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http address is required")
	}
	if c.Postgres.Name == "" {
		return errors.New("database name is required")
	}
	if c.NATSSubject == "" {
		return errors.New("nats subject is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %s", c.FlushInterval)
	}
	if c.RedisTTL <= 0 {
		return fmt.Errorf("redis ttl must be positive, got %s", c.RedisTTL)
	}
	return nil
}

// IsProduction сообщает, запущен ли сервис в production-окружении
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
