// Package password derives and verifies salted credential hashes for
// portal accounts.
//
// Stored format: pbkdf2_sha256$<iterations>$<salt-hex>$<hash-hex>. The
// format is fixed: existing credential rows were written this way and must
// keep verifying.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	algorithmTag      = "pbkdf2_sha256"
	saltLength        = 16
	keyLength         = 32
	DefaultIterations = 100000
)

// Hasher derives credential hashes with a configured iteration count.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher. Non-positive iterations fall back to the
// default.
func NewHasher(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives a stored credential string from a plaintext password.
// A fresh random salt makes every call produce a distinct output.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)

	return algorithmTag + "$" +
		strconv.Itoa(h.iterations) + "$" +
		hex.EncodeToString(salt) + "$" +
		hex.EncodeToString(key), nil
}

// Verify recomputes the hash with the embedded salt and iteration count
// and compares in constant time.
//
// Fails closed: any malformed field yields false, never an error. The
// comparison never runs on mismatched lengths.
func (h *Hasher) Verify(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false
	}
	if parts[0] != algorithmTag {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}

	salt, err := hex.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return false
	}

	expected, err := hex.DecodeString(parts[3])
	if err != nil {
		return false
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
	if len(key) != len(expected) {
		return false
	}

	return subtle.ConstantTimeCompare(key, expected) == 1
}
