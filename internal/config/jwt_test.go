package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJWTConfig_DisabledWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadJWTConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadJWTConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-secret")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := LoadJWTConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultJWTIssuer, cfg.Issuer)
	assert.Equal(t, 24, cfg.ExpirationHours, "should use default expiration of 24 hours")
}

func TestLoadJWTConfig_Validation(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration string
		wantHours  int
		wantErr    string
	}{
		{name: "custom expiration", secret: "a-sufficiently-long-secret", expiration: "48", wantHours: 48},
		{name: "non-numeric expiration", secret: "a-sufficiently-long-secret", expiration: "soon", wantErr: "invalid JWT_EXPIRATION_HOURS"},
		{name: "zero expiration", secret: "a-sufficiently-long-secret", expiration: "0", wantErr: "at least 1 hour"},
		{name: "short secret", secret: "short", expiration: "1", wantErr: "at least 16 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("JWT_EXPIRATION_HOURS", tt.expiration)

			cfg, err := LoadJWTConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHours, cfg.ExpirationHours)
		})
	}
}
