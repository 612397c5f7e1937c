// Package tokens generates and validates opaque capability tokens.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

const (
	// TokenPrefix is the prefix for all mosaic share tokens.
	TokenPrefix = "mosaic_v1_"

	// TokenEntropyBytes is the number of random bytes in a token: 128 bits
	// of entropy, well past the point where guessing is feasible.
	TokenEntropyBytes = 16

	// ChecksumBytes is the number of checksum bytes appended for
	// corruption detection.
	ChecksumBytes = 2
)

// Generate creates a new token: mosaic_v1_ + base58(entropy + checksum).
func Generate() (string, error) {
	entropy := make([]byte, TokenEntropyBytes)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate random entropy: %w", err)
	}
	return FromEntropy(entropy)
}

// FromEntropy creates a token from provided entropy (useful for testing).
func FromEntropy(entropy []byte) (string, error) {
	if len(entropy) != TokenEntropyBytes {
		return "", fmt.Errorf("entropy must be exactly %d bytes", TokenEntropyBytes)
	}

	checksum := generateChecksum(entropy)

	tokenData := make([]byte, 0, TokenEntropyBytes+ChecksumBytes)
	tokenData = append(tokenData, entropy...)
	tokenData = append(tokenData, checksum...)

	return TokenPrefix + base58Encode(tokenData), nil
}

// Validate checks a token's format and checksum without consulting any
// store. The checksum comparison is timing-safe.
func Validate(token string) bool {
	if !IsValidFormat(token) {
		return false
	}

	tokenData, err := base58Decode(token[len(TokenPrefix):])
	if err != nil {
		return false
	}
	if len(tokenData) != TokenEntropyBytes+ChecksumBytes {
		return false
	}

	entropy := tokenData[:TokenEntropyBytes]
	providedChecksum := tokenData[TokenEntropyBytes:]
	expectedChecksum := generateChecksum(entropy)

	return CompareTiming(string(providedChecksum), string(expectedChecksum))
}

// IsValidFormat checks if a token has the expected prefix and structure.
func IsValidFormat(token string) bool {
	if len(token) < len(TokenPrefix)+1 || token[:len(TokenPrefix)] != TokenPrefix {
		return false
	}

	suffix := token[len(TokenPrefix):]
	if !IsValidBase58(suffix) {
		return false
	}

	decoded, err := base58Decode(suffix)
	if err != nil {
		return false
	}
	return len(decoded) == TokenEntropyBytes+ChecksumBytes
}

// Display returns a shortened version of the token for logs.
func Display(token string) string {
	if len(token) < 12 {
		return token
	}
	return token[:12] + "..."
}

// generateChecksum derives the checksum bytes from entropy using SHA256.
func generateChecksum(entropy []byte) []byte {
	hash := sha256.Sum256(entropy)
	return hash[:ChecksumBytes]
}
