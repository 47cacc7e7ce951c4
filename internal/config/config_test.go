package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:          "development",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		DBDriver:     "postgres",
		DBPassword:   "secure-password",
		DBSSLMode:    "require",
		Port:         "8080",
		MediaDir:     "media",
		MediaBaseURL: "https://cdn.example.com/media",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionRules(t *testing.T) {
	t.Run("default secret rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.JWTSecret = defaultJWTSecret
		assert.Error(t, c.Validate())
	})

	t.Run("short secret rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("sqlite rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBDriver = "sqlite"
		assert.Error(t, c.Validate())
	})

	t.Run("weak db password rejected", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBPassword = "password"
		assert.Error(t, c.Validate())
	})
}

func TestConfig_ValidateDriver(t *testing.T) {
	c := validConfig()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c.DBDriver = "sqlite"
	assert.NoError(t, c.Validate())
}

func TestConfig_MaxUploadBytes(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 25*1024*1024, c.MaxUploadBytes())

	c.MediaMaxUploadMB = 2
	assert.Equal(t, 2*1024*1024, c.MaxUploadBytes())
}

func TestConfig_MaxRequestBytesFitsEveryAttachment(t *testing.T) {
	c := validConfig()
	c.MediaMaxUploadMB = 2
	assert.Equal(t, 7*1024*1024, c.MaxRequestBytes())
	assert.Greater(t, c.MaxRequestBytes(), 3*c.MaxUploadBytes())
}

func TestConfig_ValidateTracingExporter(t *testing.T) {
	c := validConfig()
	c.TracingExporter = "zipkin"
	assert.NoError(t, c.Validate(), "exporter is ignored while tracing is off")

	c.TracingEnabled = true
	assert.Error(t, c.Validate())

	for _, exporter := range []string{"stdout", "otlp"} {
		c.TracingExporter = exporter
		assert.NoError(t, c.Validate())
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("MEDIA_BASE_URL")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", "SQLite")
	os.Setenv("MEDIA_BASE_URL", "https://cdn.example.com/media/")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "https://cdn.example.com/media", c.MediaBaseURL)
}
