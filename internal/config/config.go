package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"

	"github.com/scythe504/gyeongdo-backend/internal/game"
)

type AppConfig struct {
	Env      string `mapstructure:"env"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type GameConfig struct {
	DurationSeconds        int `mapstructure:"duration_seconds"`
	TickIntervalMS         int `mapstructure:"tick_interval_ms"`
	JailbreakDelayMS       int `mapstructure:"jailbreak_delay_ms"`
	ArrestTimeLimitSeconds int `mapstructure:"arrest_time_limit_seconds"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
	SendBufferSize       int   `mapstructure:"send_buffer_size"`
	RatePerSecond        int   `mapstructure:"rate_per_second"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Schema   string `mapstructure:"schema"`
}

type RedisConfig struct {
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	Prefix             string `mapstructure:"prefix"`
	PresenceTTLSeconds int    `mapstructure:"presence_ttl_seconds"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Game     GameConfig     `mapstructure:"game"`
	WS       WSConfig       `mapstructure:"ws"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`

	// derived
	PingInterval  time.Duration
	WriteDeadline time.Duration
	PresenceTTL   time.Duration
}

var defaults = map[string]any{
	"app.env":                        "development",
	"app.port":                       3000,
	"app.log_level":                  "",
	"game.duration_seconds":          1800,
	"game.tick_interval_ms":          1000,
	"game.jailbreak_delay_ms":        3000,
	"game.arrest_time_limit_seconds": 5,
	"ws.ping_interval_seconds":       25,
	"ws.write_deadline_seconds":      10,
	"ws.max_message_size_bytes":      65536,
	"ws.send_buffer_size":            256,
	"ws.rate_per_second":             20,
	"db.host":                        "",
	"db.port":                        "5432",
	"db.database":                    "",
	"db.username":                    "",
	"db.password":                    "",
	"db.schema":                      "public",
	"redis.addr":                     "",
	"redis.password":                 "",
	"redis.db":                       0,
	"redis.prefix":                   "gyeongdo",
	"redis.presence_ttl_seconds":     60,
	"kafka.brokers":                  []string{},
	"kafka.topic":                    "gyeongdo.game-events",
}

// envAliases keeps the short variable names used by deployments working.
var envAliases = map[string]string{
	"app.env":                        "APP_ENV",
	"app.port":                       "PORT",
	"db.host":                        "BLUEPRINT_DB_HOST",
	"db.port":                        "BLUEPRINT_DB_PORT",
	"db.database":                    "BLUEPRINT_DB_DATABASE",
	"db.username":                    "BLUEPRINT_DB_USERNAME",
	"db.password":                    "BLUEPRINT_DB_PASSWORD",
	"db.schema":                      "BLUEPRINT_DB_SCHEMA",
	"game.duration_seconds":          "GAME_DURATION_SECONDS",
	"game.tick_interval_ms":          "TICK_INTERVAL_MS",
	"game.jailbreak_delay_ms":        "JAILBREAK_DELAY_MS",
	"game.arrest_time_limit_seconds": "ARREST_TIME_LIMIT_SECONDS",
	"redis.addr":                     "REDIS_ADDR",
	"kafka.brokers":                  "KAFKA_BROKERS",
	"kafka.topic":                    "KAFKA_TOPIC",
}

// Load reads CONFIG_PATH (optional yaml, skipped when the file is missing), then environment overrides such as
// GAME_DURATION_SECONDS or WS_RATE_PER_SECOND.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.normalize()
	return &c, nil
}

func (c *Config) normalize() {
	if c.App.Port == 0 {
		c.App.Port = 3000
	}
	if c.Game.DurationSeconds <= 0 {
		c.Game.DurationSeconds = 1800
	}
	if c.Game.TickIntervalMS <= 0 {
		c.Game.TickIntervalMS = 1000
	}
	if c.Game.JailbreakDelayMS <= 0 {
		c.Game.JailbreakDelayMS = 3000
	}
	if c.Game.ArrestTimeLimitSeconds <= 0 {
		c.Game.ArrestTimeLimitSeconds = 5
	}
	if c.WS.PingIntervalSeconds <= 0 {
		c.WS.PingIntervalSeconds = 25
	}
	if c.WS.WriteDeadlineSeconds <= 0 {
		c.WS.WriteDeadlineSeconds = 10
	}
	if c.WS.MaxMessageSizeBytes <= 0 {
		c.WS.MaxMessageSizeBytes = 65536
	}
	if c.WS.SendBufferSize <= 0 {
		c.WS.SendBufferSize = 256
	}
	if c.WS.RatePerSecond <= 0 {
		c.WS.RatePerSecond = 20
	}
	if c.Redis.PresenceTTLSeconds <= 0 {
		c.Redis.PresenceTTLSeconds = 60
	}

	brokers := c.Kafka.Brokers[:0]
	for _, b := range c.Kafka.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.Kafka.Brokers = brokers

	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.PresenceTTL = time.Duration(c.Redis.PresenceTTLSeconds) * time.Second
}

func (c *Config) Development() bool {
	return c.App.Env == "development" || c.App.Env == "local"
}

// Room converts the game section into room timings.
func (c *Config) Room() game.RoomConfig {
	return game.RoomConfig{
		GameDuration:    time.Duration(c.Game.DurationSeconds) * time.Second,
		TickInterval:    time.Duration(c.Game.TickIntervalMS) * time.Millisecond,
		JailbreakDelay:  time.Duration(c.Game.JailbreakDelayMS) * time.Millisecond,
		ArrestTimeLimit: c.Game.ArrestTimeLimitSeconds,
	}
}

func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != "" && c.Database.Database != ""
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && c.Kafka.Topic != ""
}
