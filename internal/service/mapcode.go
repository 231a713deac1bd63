package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

// Map code shape: PREFIX-XXXX-XXXX over a 36-symbol alphabet, giving
// roughly 2.8e12 distinct codes for the 8-symbol body.
const (
	mapCodePrefix   = "MAP"
	mapCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	mapCodeGroupLen = 4
	maxCodeRetries  = 3
)

// MapCodeRegex matches well-formed share codes.
var MapCodeRegex = regexp.MustCompile(`^MAP-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// ErrCodeGeneration indicates the generator could not find a free code
// within the retry budget.
var ErrCodeGeneration = errors.New("failed to generate unique map code after retries")

// CodeChecker reports whether a share code is already taken.
type CodeChecker interface {
	MapCodeExists(ctx context.Context, mapCode string) (bool, error)
}

// GenerateMapCode produces a random share code of the fixed shape
// MAP-XXXX-XXXX using crypto/rand. It does not check for collisions;
// see generateUniqueMapCode.
func GenerateMapCode() string {
	return fmt.Sprintf("%s-%s-%s",
		mapCodePrefix,
		randomCodeGroup(mapCodeGroupLen),
		randomCodeGroup(mapCodeGroupLen),
	)
}

// generateUniqueMapCode generates a code and verifies it against the
// store, regenerating on conflict with a bounded retry count. Collisions
// are already improbable at expected scale; the check makes uniqueness a
// property instead of a probability.
func generateUniqueMapCode(ctx context.Context, checker CodeChecker) (string, error) {
	for i := 0; i < maxCodeRetries; i++ {
		code := GenerateMapCode()
		exists, err := checker.MapCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

// randomCodeGroup generates one dash-separated code group.
func randomCodeGroup(length int) string {
	b := make([]byte, length)
	for i := range b {
		idx, err := cryptoRandInt(len(mapCodeAlphabet))
		if err != nil {
			// crypto/rand failure is effectively unreachable
			idx = 0
		}
		b[i] = mapCodeAlphabet[idx]
	}
	return string(b)
}

// cryptoRandInt returns a cryptographically secure random integer in [0, max).
func cryptoRandInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
