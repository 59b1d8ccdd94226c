package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "trims and skips blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "forty-two")
	t.Setenv("CFG_TEST_DUR", "90s")
	t.Setenv("CFG_TEST_BAD_DUR", "-1s")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("CFG_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_BAD_DUR", time.Second))
}

func TestLoad(t *testing.T) {
	t.Setenv("SERVICE_NAME", "order")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg := Load()
	require.Equal(t, "order", cfg.ServiceName)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "postgres://u:p@db:5432/shop", cfg.DatabaseURL)
	assert.Equal(t, []byte("secret"), cfg.JWTAccessSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 20, cfg.DBMaxOpenConns)
}
