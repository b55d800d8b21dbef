package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// tokenSeedLength random characters give ~190 bits of entropy before hashing.
	tokenSeedLength = 32
)

// RandomString returns n characters drawn uniformly from an alphanumeric
// alphabet using crypto/rand.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random string length must be > 0")
	}

	var b strings.Builder
	b.Grow(n)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}

	return b.String(), nil
}

// HashToken returns the hex encoded SHA3-256 digest of input.
func HashToken(input string) string {
	sum := sha3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// NewToken mints a fresh opaque session token.
func NewToken() (string, error) {
	seed, err := RandomString(tokenSeedLength)
	if err != nil {
		return "", err
	}
	return HashToken(seed), nil
}
