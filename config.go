package blogauth

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/blogauth/password"
)

// Config groups every tunable of the engine by concern.
//
// Config values are intended to be set during initialization and then treated
// as immutable; the Builder takes a copy.
type Config struct {
	Session      SessionConfig      `yaml:"session"`
	Password     PasswordConfig     `yaml:"password"`
	Security     SecurityConfig     `yaml:"security"`
	Registration RegistrationConfig `yaml:"registration"`
	Store        StoreConfig        `yaml:"store"`
	Audit        AuditConfig        `yaml:"audit"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls cookie-token sessions in Redis.
type SessionConfig struct {
	// RedisPrefix namespaces session keys as "<prefix>:<token>".
	RedisPrefix string `yaml:"redis_prefix"`
	// TTL is the lifetime of a session from sign-in. There is no sliding
	// renewal.
	TTL time.Duration `yaml:"ttl"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls the Argon2id encoder and password policy.
type PasswordConfig struct {
	Memory           uint32 `yaml:"memory"` // in KB
	Time             uint32 `yaml:"time"`
	Parallelism      uint8  `yaml:"parallelism"`
	SaltLength       uint32 `yaml:"salt_length"`
	KeyLength        uint32 `yaml:"key_length"`
	MaxPasswordBytes int    `yaml:"max_password_bytes"`
	MinLength        int    `yaml:"min_length"`
	UpgradeOnLogin   bool   `yaml:"upgrade_on_login"`
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls sign-in throttling and the legacy login path.
type SecurityConfig struct {
	EnableLoginThrottle   bool          `yaml:"enable_login_throttle"`
	EnableIPThrottle      bool          `yaml:"enable_ip_throttle"`
	MaxLoginAttempts      int           `yaml:"max_login_attempts"`
	LoginCooldownDuration time.Duration `yaml:"login_cooldown"`

	// EnableLegacyPrehashedLogin allows VerifyLoginPrehashed, which accepts a
	// client-side encoded hash instead of the raw password.
	//
	// Deprecated: the pre-hashed path exposes the stored hash as a
	// password-equivalent. Leave disabled.
	EnableLegacyPrehashedLogin bool `yaml:"enable_legacy_prehashed_login"`
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig controls the sign-up throttle.
type RegistrationConfig struct {
	EnableAccountThrottle bool          `yaml:"enable_account_throttle"`
	EnableIPThrottle      bool          `yaml:"enable_ip_throttle"`
	MaxAttempts           int           `yaml:"max_attempts"`
	Cooldown              time.Duration `yaml:"cooldown"`
}

/*
====================================
STORE / AUDIT / METRICS CONFIG
====================================
*/

// StoreConfig bounds calls into the session store and the record store.
type StoreConfig struct {
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters and histograms.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultStoreTimeout bounds one store round trip.
const DefaultStoreTimeout = 3 * time.Second

// DefaultSessionTTL keeps a session alive for sixty days.
const DefaultSessionTTL = 60 * 24 * time.Hour

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "bs",
			TTL:         DefaultSessionTTL,
		},
		Password: PasswordConfig{
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
			MinLength:        1,
			UpgradeOnLogin:   true,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:        true,
			EnableIPThrottle:           false,
			MaxLoginAttempts:           5,
			LoginCooldownDuration:      15 * time.Minute,
			EnableLegacyPrehashedLogin: false,
		},
		Registration: RegistrationConfig{
			EnableAccountThrottle: true,
			EnableIPThrottle:      true,
			MaxAttempts:           5,
			Cooldown:              15 * time.Minute,
		},
		Store: StoreConfig{
			OperationTimeout: DefaultStoreTimeout,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.Contains(c.Session.RedisPrefix, ":") {
		return errors.New("Session RedisPrefix must not contain ':'")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < time.Second {
		return errors.New("Session TTL must be >= 1s")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	maxBytes := c.Password.MaxPasswordBytes
	if maxBytes == 0 {
		maxBytes = password.DefaultMaxPasswordBytes
	}
	if c.Password.MinLength > maxBytes {
		return errors.New("Password MinLength must be <= MaxPasswordBytes")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}

	// Registration
	if c.Registration.EnableAccountThrottle || c.Registration.EnableIPThrottle {
		if c.Registration.MaxAttempts <= 0 {
			return errors.New("Registration MaxAttempts must be > 0")
		}
		if c.Registration.Cooldown <= 0 {
			return errors.New("Registration Cooldown must be > 0")
		}
	}

	// Store
	if c.Store.OperationTimeout <= 0 {
		return errors.New("Store OperationTimeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
