package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	AllowedOrigins  []string
	StaticDir       string
	RecordingsDir   string
	MaxUploadMB     int64
	WireCodec       string
	RoomStore       string
	RoomTTL         time.Duration
	SendBuffer      int
	PongWait        time.Duration
	MaxMessageBytes int64
	Redis           RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SetDefaults registers every key with its default value. Keys map to
// upper-case environment variables (port -> PORT).
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("static_dir", "./public")
	v.SetDefault("recordings_dir", "./recordings")
	v.SetDefault("max_upload_mb", 512)
	v.SetDefault("wire_codec", "json")
	v.SetDefault("room_store", "memory")
	v.SetDefault("room_ttl", "24h")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("max_message_bytes", 64*1024)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
}

// Load reads configuration from v. Sources by precedence: values set on v
// directly (bound flags), environment, the YAML file named by CONFIG_FILE,
// defaults.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("port"),
		Environment:     v.GetString("environment"),
		LogLevel:        v.GetString("log_level"),
		AllowedOrigins:  splitList(v.GetString("allowed_origins")),
		StaticDir:       v.GetString("static_dir"),
		RecordingsDir:   v.GetString("recordings_dir"),
		MaxUploadMB:     v.GetInt64("max_upload_mb"),
		WireCodec:       strings.ToLower(v.GetString("wire_codec")),
		RoomStore:       strings.ToLower(v.GetString("room_store")),
		RoomTTL:         v.GetDuration("room_ttl"),
		SendBuffer:      v.GetInt("send_buffer"),
		PongWait:        v.GetDuration("pong_wait"),
		MaxMessageBytes: v.GetInt64("max_message_bytes"),
		Redis: RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	switch c.WireCodec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("wire_codec must be json or msgpack, got %q", c.WireCodec)
	}
	switch c.RoomStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("room_store must be memory or redis, got %q", c.RoomStore)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.PongWait <= 0 {
		return fmt.Errorf("pong_wait must be positive, got %s", c.PongWait)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// Parse comma-separated lists, skipping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
