package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Redis         RedisConfig         `yaml:"redis"`
	Log           LogConfig           `yaml:"log"`
	API           APIConfig           `yaml:"api"`
	Worker        WorkerConfig        `yaml:"worker"`
	Tracking      TrackingConfig      `yaml:"tracking"`
	Simulator     SimulatorConfig     `yaml:"simulator"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Carrier       CarrierConfig       `yaml:"carrier"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN builds a pgx connection string. ssl_mode defaults to "disable".
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

type KafkaConfig struct {
	Host    string   `yaml:"host"`
	Port    int      `yaml:"port"`
	Brokers []string `yaml:"brokers"`

	StatusChangedTopic string `yaml:"status_changed_topic"`
	ConsumerGroup      string `yaml:"consumer_group"`
}

// BrokerList prefers the explicit brokers list over host/port.
func (k KafkaConfig) BrokerList() []string {
	if len(k.Brokers) > 0 {
		return k.Brokers
	}
	if k.Host == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "json" | "text"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type APIConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`

	CacheTTLSeconds           int `yaml:"cache_ttl_seconds"`
	ConfirmRateLimitPerMinute int `yaml:"confirm_rate_limit_per_minute"`

	// AdminToken guards the order and zone routes and the gRPC service.
	// Empty locks them.
	AdminToken string `yaml:"admin_token"`
	// TrustedProxies are CIDRs whose X-Forwarded-For / X-Real-IP headers are
	// believed when identifying clients.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type WorkerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

type TrackingConfig struct {
	IDPrefix               string `yaml:"id_prefix"`
	IDFormat               string `yaml:"id_format"` // "alphanumeric" | "numeric" | "custom"
	IDTemplate             string `yaml:"id_template"`
	DefaultDeliveryDaysMin int    `yaml:"default_delivery_days_min"`
	DefaultDeliveryDaysMax int    `yaml:"default_delivery_days_max"`
}

type SimulatorConfig struct {
	// Schedule is a cron spec for the advancement tick, e.g. "@hourly" or "*/15 * * * *".
	Schedule        string `yaml:"schedule"`
	CooldownMinutes int    `yaml:"cooldown_minutes"`
	BatchSize       int    `yaml:"batch_size"`
	Concurrency     int    `yaml:"concurrency"`

	// RetentionDays <= 0 disables cleanup.
	RetentionDays     int    `yaml:"retention_days"`
	RetentionSchedule string `yaml:"retention_schedule"`
}

type NotificationsConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Statuses  []string `yaml:"statuses"`
	QueueSize int      `yaml:"queue_size"`
}

type CarrierConfig struct {
	Mode           string `yaml:"mode"` // "emulator" | "fake" | ""
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Environment variables that override secrets and addresses from the file.
const (
	EnvDBHost        = "TRACKSIM_DB_HOST"
	EnvDBPassword    = "TRACKSIM_DB_PASSWORD"
	EnvRedisPassword = "TRACKSIM_REDIS_PASSWORD"
	EnvKafkaBrokers  = "TRACKSIM_KAFKA_BROKERS"
	EnvCarrierAPIKey = "TRACKSIM_CARRIER_API_KEY"
	EnvAdminToken    = "TRACKSIM_ADMIN_TOKEN"
)

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyEnv(os.LookupEnv)
	return &config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDBHost); ok && v != "" {
		c.Database.Host = v
	}
	if v, ok := lookup(EnvDBPassword); ok {
		c.Database.Password = v
	}
	if v, ok := lookup(EnvRedisPassword); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup(EnvKafkaBrokers); ok && v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	if v, ok := lookup(EnvCarrierAPIKey); ok {
		c.Carrier.APIKey = v
	}
	if v, ok := lookup(EnvAdminToken); ok {
		c.API.AdminToken = v
	}
}
