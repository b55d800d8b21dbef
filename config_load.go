package blogauth

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix is the environment variable prefix used when
// LoadConfigFromEnv is called with an empty prefix.
const DefaultEnvPrefix = "BLOGAUTH"

// LoadConfigFromEnv overlays <prefix>_* environment variables onto
// [DefaultConfig] and validates the result. Unset variables keep their
// default; a set variable that does not parse is an error naming the key.
//
// Recognized suffixes: SESSION_TTL, SESSION_REDIS_PREFIX, PASSWORD_MIN_LENGTH,
// PASSWORD_MEMORY_KB, PASSWORD_TIME, PASSWORD_PARALLELISM,
// PASSWORD_UPGRADE_ON_LOGIN, LOGIN_THROTTLE, LOGIN_IP_THROTTLE,
// LOGIN_MAX_ATTEMPTS, LOGIN_COOLDOWN, LEGACY_PREHASHED_LOGIN,
// REGISTRATION_MAX_ATTEMPTS, REGISTRATION_COOLDOWN, STORE_TIMEOUT,
// AUDIT_ENABLED, AUDIT_BUFFER_SIZE, METRICS_ENABLED, METRICS_LATENCY.
func LoadConfigFromEnv(prefix string) (Config, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	env := envReader{prefix: prefix}

	cfg := DefaultConfig()

	env.setDuration("SESSION_TTL", &cfg.Session.TTL)
	env.setString("SESSION_REDIS_PREFIX", &cfg.Session.RedisPrefix)

	env.setInt("PASSWORD_MIN_LENGTH", &cfg.Password.MinLength)
	env.setUint32("PASSWORD_MEMORY_KB", &cfg.Password.Memory)
	env.setUint32("PASSWORD_TIME", &cfg.Password.Time)
	env.setUint8("PASSWORD_PARALLELISM", &cfg.Password.Parallelism)
	env.setBool("PASSWORD_UPGRADE_ON_LOGIN", &cfg.Password.UpgradeOnLogin)

	env.setBool("LOGIN_THROTTLE", &cfg.Security.EnableLoginThrottle)
	env.setBool("LOGIN_IP_THROTTLE", &cfg.Security.EnableIPThrottle)
	env.setInt("LOGIN_MAX_ATTEMPTS", &cfg.Security.MaxLoginAttempts)
	env.setDuration("LOGIN_COOLDOWN", &cfg.Security.LoginCooldownDuration)
	env.setBool("LEGACY_PREHASHED_LOGIN", &cfg.Security.EnableLegacyPrehashedLogin)

	env.setInt("REGISTRATION_MAX_ATTEMPTS", &cfg.Registration.MaxAttempts)
	env.setDuration("REGISTRATION_COOLDOWN", &cfg.Registration.Cooldown)

	env.setDuration("STORE_TIMEOUT", &cfg.Store.OperationTimeout)

	env.setBool("AUDIT_ENABLED", &cfg.Audit.Enabled)
	env.setInt("AUDIT_BUFFER_SIZE", &cfg.Audit.BufferSize)
	env.setBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	env.setBool("METRICS_LATENCY", &cfg.Metrics.EnableLatencyHistograms)

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, fmt.Errorf("blogauth: env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("blogauth: env config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile decodes a YAML document from path over [DefaultConfig].
// Unknown keys are rejected. Durations use Go syntax ("1440h", "3s").
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("blogauth: read config: %w", err)
	}
	return parseConfigYAML(data)
}

func parseConfigYAML(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("blogauth: decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("blogauth: config: %w", err)
	}
	return cfg, nil
}

// envReader overlays prefixed variables onto config fields and collects
// parse failures.
type envReader struct {
	prefix string
	errs   []error
}

func (r *envReader) lookup(suffix string) (string, string, bool) {
	key := r.prefix + "_" + suffix
	v := strings.TrimSpace(os.Getenv(key))
	return key, v, v != ""
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (r *envReader) setString(suffix string, dst *string) {
	if _, v, ok := r.lookup(suffix); ok {
		*dst = v
	}
}

func (r *envReader) setBool(suffix string, dst *bool) {
	key, v, ok := r.lookup(suffix)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = b
}

func (r *envReader) setInt(suffix string, dst *int) {
	key, v, ok := r.lookup(suffix)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *envReader) parseUint(suffix string, bits int) (uint64, bool) {
	key, v, ok := r.lookup(suffix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		r.fail(key, v, err)
		return 0, false
	}
	return n, true
}

func (r *envReader) setUint32(suffix string, dst *uint32) {
	if n, ok := r.parseUint(suffix, 32); ok {
		*dst = uint32(n)
	}
}

func (r *envReader) setUint8(suffix string, dst *uint8) {
	if n, ok := r.parseUint(suffix, 8); ok {
		*dst = uint8(n)
	}
}

func (r *envReader) setDuration(suffix string, dst *time.Duration) {
	key, v, ok := r.lookup(suffix)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = d
}
