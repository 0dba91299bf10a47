package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "github.com/Dkijas/EMPA-CELA-sub000/common/config"

	"github.com/joho/godotenv"
)

// Config empa-cela（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     commoncfg.RedisConfig
	Log       struct {
		Level  string
		Format string
	}
	// StoreBackend 区域选择存储：redis | memory
	StoreBackend string
	Events       struct {
		Stream       string
		StreamMaxLen int64
	}
	MQTTEnabled bool
	MQTT        commoncfg.MQTTConfig
	Scoring     struct {
		Scheme string
	}
	Report struct {
		Timezone string
	}
}

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Load 读取环境变量；当前目录存在 .env 时先加载（已设置的变量不会被覆盖）
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.ShutdownTimeout = parseDuration(getEnv("HTTP_SHUTDOWN_TIMEOUT", "5s"), 5*time.Second)

	// 默认关闭：未配置数据库时使用内存 repo
	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:        "localhost",
		Port:        5432,
		User:        "postgres",
		Password:    "postgres",
		Database:    "empa",
		SSLMode:     "disable",
		MaxConns:    10,
		MaxIdle:     5,
		PingTimeout: 3 * time.Second,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.StoreBackend = getEnv("STORE_BACKEND", StoreRedis)
	if cfg.StoreBackend != StoreMemory {
		cfg.StoreBackend = StoreRedis
	}

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "empa:events")
	cfg.Events.StreamMaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))

	// MQTT 默认禁用
	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT = commoncfg.MQTTConfig{
		Broker:      "tcp://localhost:1883",
		ClientID:    "empa-cela",
		QoS:         1,
		TopicPrefix: "empa",
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Scoring.Scheme = getEnv("SCORING_SCHEME", "empa37")
	cfg.Report.Timezone = getEnv("REPORT_TIMEZONE", "Europe/Madrid")

	return cfg
}

// Location 报告时区；无法加载时回退 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
