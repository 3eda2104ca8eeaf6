package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"JWT_SECRET": "s3cret"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "missing jwt secret",
			env:     map[string]string{"DATABASE_URL": "postgres://localhost/app"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name: "defaults",
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/app",
				"JWT_SECRET":   "s3cret",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "8080", cfg.HTTPPort)
				assert.Equal(t, "MMK", cfg.DefaultCurrency)
				assert.Equal(t, "uploads", cfg.UploadDir)
				assert.Equal(t, "123456", cfg.DefaultSecurityPin)
				assert.Equal(t, 30*24*time.Hour, cfg.AccessTokenTTL)
				assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
				assert.Equal(t, 10, cfg.DBMaxConns)
				assert.Equal(t, 2, cfg.DBMinConns)
			},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"DATABASE_URL":      "postgres://localhost/app",
				"JWT_SECRET":        "s3cret",
				"HTTP_PORT":         "9090",
				"CURRENCY_CODE":     "USD",
				"ACCESS_TOKEN_TTL":  "12h",
				"HTTP_READ_TIMEOUT": "30",
				"DB_MAX_CONNS":      "25",
			},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "9090", cfg.HTTPPort)
				assert.Equal(t, "USD", cfg.DefaultCurrency)
				assert.Equal(t, 12*time.Hour, cfg.AccessTokenTTL)
				// bare integers are read as seconds
				assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
				assert.Equal(t, 25, cfg.DBMaxConns)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"DATABASE_URL", "JWT_SECRET", "HTTP_PORT", "CURRENCY_CODE",
				"ACCESS_TOKEN_TTL", "HTTP_READ_TIMEOUT", "DB_MAX_CONNS", "DB_MIN_CONNS",
			} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
