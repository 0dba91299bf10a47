package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.local")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "empa")
	t.Setenv("DB_PING_TIMEOUT", "2s")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	c := DatabaseConfig{Port: 5432, MaxConns: 10, SSLMode: "disable"}
	c.LoadFromEnv("DB")

	assert.Equal(t, "pg.local", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, "empa", c.Database)
	assert.Equal(t, 2*time.Second, c.PingTimeout)
	assert.Equal(t, 10, c.MaxConns, "invalid values keep the default")
	assert.Equal(t, "host=pg.local port=6543 user= password= dbname=empa sslmode=disable", c.GetDSN())
}

func TestMQTTConfig_LoadFromEnv_QoSBounds(t *testing.T) {
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("MQTT_TOPIC_PREFIX", "empa")
	c := MQTTConfig{}
	c.LoadFromEnv("MQTT")
	assert.Equal(t, byte(2), c.QoS)
	assert.Equal(t, "empa", c.TopicPrefix)

	t.Setenv("MQTT_QOS", "7")
	c = MQTTConfig{QoS: 1}
	c.LoadFromEnv("MQTT")
	assert.Equal(t, byte(1), c.QoS)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "3")
	c := RedisConfig{Addr: "localhost:6379"}
	c.LoadFromEnv("REDIS")
	assert.Equal(t, "redis:6380", c.Addr)
	assert.Equal(t, 3, c.DB)
}
