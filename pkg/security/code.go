package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	codeMin = 100000
	codeMax = 999999
)

var codeRange = big.NewInt(codeMax - codeMin + 1)

// GenerateCode returns a uniformly distributed 6 digit code. The first
// digit is never zero.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", fmt.Errorf("failed to read random code, %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// CompareCode reports whether two codes are equal in constant time
func CompareCode(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
