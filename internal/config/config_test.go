package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "a")
	t.Setenv("REFRESH_TOKEN_SECRET", "r")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.True(t, cfg.CompensateStock)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	content := "ACCESS_TOKEN_SECRET=a\nREFRESH_TOKEN_SECRET=r\nSTORE_DRIVER=memory\nKAFKA_BROKERS=k1:9092,k2:9092\nORDER_COMPENSATE_STOCK=false\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET", "STORE_DRIVER", "KAFKA_BROKERS", "ORDER_COMPENSATE_STOCK"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.CompensateStock)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	os.Unsetenv("ACCESS_TOKEN_SECRET")
	t.Setenv("REFRESH_TOKEN_SECRET", "r")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
