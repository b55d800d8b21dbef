package blogauth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Session.TTL != 60*24*time.Hour {
		t.Fatalf("expected 60 day session TTL, got %s", cfg.Session.TTL)
	}
	if cfg.Security.EnableLegacyPrehashedLogin {
		t.Fatal("expected legacy pre-hashed login disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "empty redis prefix",
			mutate: func(c *Config) {
				c.Session.RedisPrefix = "  "
			},
		},
		{
			name: "redis prefix with colon",
			mutate: func(c *Config) {
				c.Session.RedisPrefix = "a:b"
			},
		},
		{
			name: "zero session ttl",
			mutate: func(c *Config) {
				c.Session.TTL = 0
			},
		},
		{
			name: "sub-second session ttl",
			mutate: func(c *Config) {
				c.Session.TTL = 500 * time.Millisecond
			},
		},
		{
			name: "argon memory too low",
			mutate: func(c *Config) {
				c.Password.Memory = 1024
			},
		},
		{
			name: "argon time zero",
			mutate: func(c *Config) {
				c.Password.Time = 0
			},
		},
		{
			name: "short salt",
			mutate: func(c *Config) {
				c.Password.SaltLength = 8
			},
		},
		{
			name: "min length zero",
			mutate: func(c *Config) {
				c.Password.MinLength = 0
			},
		},
		{
			name: "min length above max bytes",
			mutate: func(c *Config) {
				c.Password.MaxPasswordBytes = 16
				c.Password.MinLength = 32
			},
		},
		{
			name: "login throttle without budget",
			mutate: func(c *Config) {
				c.Security.MaxLoginAttempts = 0
			},
		},
		{
			name: "login throttle disabled ignores budget",
			mutate: func(c *Config) {
				c.Security.EnableLoginThrottle = false
				c.Security.MaxLoginAttempts = 0
			},
			wantValid: true,
		},
		{
			name: "ip throttle requires login throttle",
			mutate: func(c *Config) {
				c.Security.EnableLoginThrottle = false
				c.Security.EnableIPThrottle = true
			},
		},
		{
			name: "registration cooldown zero",
			mutate: func(c *Config) {
				c.Registration.Cooldown = 0
			},
		},
		{
			name: "registration throttles off",
			mutate: func(c *Config) {
				c.Registration.EnableAccountThrottle = false
				c.Registration.EnableIPThrottle = false
				c.Registration.MaxAttempts = 0
			},
			wantValid: true,
		},
		{
			name: "zero store timeout",
			mutate: func(c *Config) {
				c.Store.OperationTimeout = 0
			},
		},
		{
			name: "negative store timeout",
			mutate: func(c *Config) {
				c.Store.OperationTimeout = -time.Second
			},
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BLOGAUTH_SESSION_TTL", "48h")
	t.Setenv("BLOGAUTH_SESSION_REDIS_PREFIX", "blog")
	t.Setenv("BLOGAUTH_PASSWORD_MIN_LENGTH", "8")
	t.Setenv("BLOGAUTH_LOGIN_MAX_ATTEMPTS", "7")
	t.Setenv("BLOGAUTH_LOGIN_COOLDOWN", "90s")
	t.Setenv("BLOGAUTH_LEGACY_PREHASHED_LOGIN", "true")
	t.Setenv("BLOGAUTH_PASSWORD_PARALLELISM", "2")
	t.Setenv("BLOGAUTH_METRICS_ENABLED", "1")

	cfg, err := LoadConfigFromEnv("")
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if cfg.Session.TTL != 48*time.Hour {
		t.Fatalf("expected 48h TTL, got %s", cfg.Session.TTL)
	}
	if cfg.Session.RedisPrefix != "blog" {
		t.Fatalf("expected prefix blog, got %q", cfg.Session.RedisPrefix)
	}
	if cfg.Password.MinLength != 8 || cfg.Security.MaxLoginAttempts != 7 {
		t.Fatalf("unexpected int overrides: %+v %+v", cfg.Password, cfg.Security)
	}
	if cfg.Security.LoginCooldownDuration != 90*time.Second {
		t.Fatalf("expected 90s cooldown, got %s", cfg.Security.LoginCooldownDuration)
	}
	if cfg.Password.Parallelism != 2 {
		t.Fatalf("expected parallelism 2, got %d", cfg.Password.Parallelism)
	}
	if !cfg.Security.EnableLegacyPrehashedLogin {
		t.Fatal("expected legacy login enabled from env")
	}
	if cfg.Audit.Enabled != DefaultConfig().Audit.Enabled {
		t.Fatal("expected unset variable to keep default")
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics enabled from env")
	}
}

func TestLoadConfigFromEnvRejectsUnparsableValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "BLOGAUTH_STORE_TIMEOUT", value: "abc"},
		{key: "BLOGAUTH_AUDIT_ENABLED", value: "yes"},
		{key: "BLOGAUTH_LOGIN_MAX_ATTEMPTS", value: "seven"},
		{key: "BLOGAUTH_PASSWORD_PARALLELISM", value: "300"},
		{key: "BLOGAUTH_PASSWORD_MEMORY_KB", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfigFromEnv("")
			if err == nil {
				t.Fatalf("expected %s=%s to be rejected", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}

func TestLoadConfigFromEnvCustomPrefixValidates(t *testing.T) {
	t.Setenv("MYBLOG_SESSION_REDIS_PREFIX", "bad:prefix")

	if _, err := LoadConfigFromEnv("MYBLOG"); err == nil {
		t.Fatal("expected invalid env config to fail validation")
	}
}

func TestLoadConfigFile(t *testing.T) {
	doc := `
session:
  redis_prefix: blog
  ttl: 720h
password:
  min_length: 6
security:
  max_login_attempts: 10
  login_cooldown: 5m
store:
  operation_timeout: 750ms
`
	path := filepath.Join(t.TempDir(), "blogauth.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.Session.RedisPrefix != "blog" || cfg.Session.TTL != 720*time.Hour {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Password.MinLength != 6 {
		t.Fatalf("expected min length 6, got %d", cfg.Password.MinLength)
	}
	if cfg.Password.Memory != DefaultConfig().Password.Memory {
		t.Fatalf("expected unset fields to keep defaults, got memory %d", cfg.Password.Memory)
	}
	if cfg.Security.MaxLoginAttempts != 10 || cfg.Security.LoginCooldownDuration != 5*time.Minute {
		t.Fatalf("unexpected security config: %+v", cfg.Security)
	}
	if cfg.Store.OperationTimeout != 750*time.Millisecond {
		t.Fatalf("expected 750ms store timeout, got %s", cfg.Store.OperationTimeout)
	}
}

func TestParseConfigYAMLRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown key",
			doc:     "session:\n  cookie_name: sid\n",
			wantErr: "decode",
		},
		{
			name:    "invalid value",
			doc:     "session:\n  ttl: 0s\n",
			wantErr: "Session TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfigYAML([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseConfigYAMLEmptyKeepsDefaults(t *testing.T) {
	cfg, err := parseConfigYAML(nil)
	if err != nil {
		t.Fatalf("parseConfigYAML failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
