package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{"ENVIRONMENT": "development"})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, IdentityLocal, cfg.IdentityMode)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"products", "categories"}, cfg.SearchCollections)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_ParsesLists(t *testing.T) {
	setEnvs(t, map[string]string{
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"ADMIN_EMAILS":  "a@example.com,b@example.com",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setEnvs(t, map[string]string{"STORE_DRIVER": "sqlite"})

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoad_RemoteIdentityNeedsAPIKey(t *testing.T) {
	setEnvs(t, map[string]string{"IDENTITY_MODE": "remote"})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDENTITY_API_KEY")

	t.Setenv("IDENTITY_API_KEY", "key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, IdentityRemote, cfg.IdentityMode)
}

func TestLoad_RejectsUnknownSearchCollection(t *testing.T) {
	setEnvs(t, map[string]string{"SEARCH_INDEXED_COLLECTIONS": "products,secrets"})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "secrets")
}

func TestLoad_Production(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{
			name:    "default secret",
			envs:    map[string]string{"STORE_DRIVER": "postgres"},
			wantErr: "JWT_SECRET must be explicitly set",
		},
		{
			name:    "short secret",
			envs:    map[string]string{"STORE_DRIVER": "postgres", "JWT_SECRET": "short"},
			wantErr: "at least 32 characters",
		},
		{
			name:    "memory store",
			envs:    map[string]string{"JWT_SECRET": "0123456789abcdef0123456789abcdef"},
			wantErr: "only allowed in development",
		},
		{
			name: "valid",
			envs: map[string]string{"STORE_DRIVER": "mongo", "JWT_SECRET": "0123456789abcdef0123456789abcdef"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "production")
			setEnvs(t, tt.envs)

			cfg, err := Load()

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, DriverMongo, cfg.StoreDriver)
				return
			}
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Postgres(t *testing.T) {
	setEnvs(t, map[string]string{"POSTGRES_HOST": "db", "POSTGRES_DB": "shop"})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres://storefront:storefront_secret@db:5432/shop?sslmode=disable", cfg.Postgres().DSN())
}
