package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestEncoder(t *testing.T, cfg Config) *Encoder {
	t.Helper()

	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	return enc
}

func newTestSalt(t *testing.T, enc *Encoder) string {
	t.Helper()

	salt, err := enc.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt error: %v", err)
	}
	return salt
}

func TestEncodeAndVerify(t *testing.T) {
	enc := newTestEncoder(t, testConfig())
	salt := newTestSalt(t, enc)

	hash, err := enc.Encode("P@ssw0rd-Ascii", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := enc.Verify("P@ssw0rd-Ascii", salt, hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	enc := newTestEncoder(t, testConfig())
	salt := newTestSalt(t, enc)

	first, err := enc.Encode("pw123", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	second, err := enc.Encode("pw123", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical hashes for same input, got %q and %q", first, second)
	}
}

func TestEncodeDistinctPasswordsDiffer(t *testing.T) {
	enc := newTestEncoder(t, testConfig())
	salt := newTestSalt(t, enc)

	a, err := enc.Encode("password-one", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	b, err := enc.Encode("password-two", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if a == b {
		t.Fatal("expected different passwords to produce different hashes")
	}
}

func TestEncodeDistinctSaltsDiffer(t *testing.T) {
	enc := newTestEncoder(t, testConfig())

	a, err := enc.Encode("same-password", newTestSalt(t, enc))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	b, err := enc.Encode("same-password", newTestSalt(t, enc))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if a == b {
		t.Fatal("expected different salts to produce different hashes")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	enc := newTestEncoder(t, testConfig())
	salt := newTestSalt(t, enc)

	hash, err := enc.Encode("correct-password", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	ok, err := enc.Verify("wrong-password", salt, hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestVerifyWrongSalt(t *testing.T) {
	enc := newTestEncoder(t, testConfig())

	hash, err := enc.Encode("correct-password", newTestSalt(t, enc))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	ok, err := enc.Verify("correct-password", newTestSalt(t, enc), hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected verification under a foreign salt to fail")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldEnc := newTestEncoder(t, testConfig())

	hash, err := oldEnc.Encode("test-password", newTestSalt(t, oldEnc))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	stronger := testConfig()
	stronger.Memory = 16 * 1024
	stronger.Time = 2
	newEnc := newTestEncoder(t, stronger)

	needsUpgrade, err := newEnc.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	needsUpgrade, err = oldEnc.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	enc := newTestEncoder(t, testConfig())

	if _, err := enc.Verify("password", newTestSalt(t, enc), "not-a-phc-hash"); err == nil {
		t.Fatal("expected malformed hash verification to fail")
	}
}

func TestVerifyWrongVersion(t *testing.T) {
	enc := newTestEncoder(t, testConfig())
	salt := newTestSalt(t, enc)

	hash, err := enc.Encode("version-test", salt)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	wrongVersion := strings.Replace(hash, "$v=19$", "$v=18$", 1)
	if _, err := enc.Verify("version-test", salt, wrongVersion); err == nil {
		t.Fatal("expected unsupported version verification to fail")
	}
}

func TestEncodeEmptyPassword(t *testing.T) {
	enc := newTestEncoder(t, testConfig())

	if _, err := enc.Encode("", newTestSalt(t, enc)); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestEncodeInvalidSalt(t *testing.T) {
	enc := newTestEncoder(t, testConfig())

	if _, err := enc.Encode("password", "short"); err != ErrInvalidSalt {
		t.Fatalf("expected ErrInvalidSalt, got %v", err)
	}
	if _, err := enc.Encode("password", "!!not base64!!"); err != ErrInvalidSalt {
		t.Fatalf("expected ErrInvalidSalt, got %v", err)
	}
}

func TestEncodeTooLongPasswordRejected(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPasswordBytes = 64
	enc := newTestEncoder(t, cfg)
	salt := newTestSalt(t, enc)

	if _, err := enc.Encode(strings.Repeat("a", 65), salt); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := enc.Encode(exact, salt)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	ok, err := enc.Verify(exact, salt, hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed for max-length password: ok=%v err=%v", ok, err)
	}
	if _, err := enc.Verify(strings.Repeat("c", 65), salt, hash); err != ErrPasswordTooLong {
		t.Fatalf("expected long password to be rejected by Verify, got %v", err)
	}
}

func TestDefaultMaxPasswordBytesApplied(t *testing.T) {
	enc := newTestEncoder(t, testConfig())
	salt := newTestSalt(t, enc)

	if _, err := enc.Encode(strings.Repeat("d", DefaultMaxPasswordBytes+1), salt); err == nil {
		t.Fatalf("expected password > %d bytes to be rejected", DefaultMaxPasswordBytes)
	}
	if _, err := enc.Encode(strings.Repeat("e", DefaultMaxPasswordBytes), salt); err != nil {
		t.Fatalf("expected password of exactly %d bytes to be accepted: %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNewEncoderRejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			if _, err := NewEncoder(cfg); err == nil {
				t.Fatalf("expected NewEncoder to reject weak %s", name)
			}
		})
	}
}
