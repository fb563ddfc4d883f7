package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		AccessSecret:  "access-secret-for-tests--------",
		RefreshSecret: "refresh-secret-for-tests-------",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config passes",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing access secret",
			mutate:  func(c *Config) { c.AccessSecret = "" },
			wantErr: true,
		},
		{
			name:    "missing refresh secret",
			mutate:  func(c *Config) { c.RefreshSecret = "" },
			wantErr: true,
		},
		{
			name:    "identical secrets",
			mutate:  func(c *Config) { c.RefreshSecret = c.AccessSecret },
			wantErr: true,
		},
		{
			name:    "zero access lifetime",
			mutate:  func(c *Config) { c.AccessTTL = 0 },
			wantErr: true,
		},
		{
			name:    "negative refresh lifetime",
			mutate:  func(c *Config) { c.RefreshTTL = -time.Hour },
			wantErr: true,
		},
		{
			name:    "access lifetime equals refresh lifetime",
			mutate:  func(c *Config) { c.AccessTTL = c.RefreshTTL },
			wantErr: true,
		},
		{
			name: "access lifetime exceeds refresh lifetime",
			mutate: func(c *Config) {
				c.AccessTTL = 48 * time.Hour
			},
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := validConfig()
			c.mutate(&cfg)

			err := cfg.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
