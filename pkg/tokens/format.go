package tokens

import (
	"crypto/subtle"
	"fmt"
	"math/big"
)

// Base58Alphabet is the Bitcoin-style base58 alphabet. It excludes the
// confusable characters 0, O, I and l.
const Base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// base58Encode encodes bytes to a base58 string.
func base58Encode(input []byte) string {
	if len(input) == 0 {
		return ""
	}

	num := new(big.Int).SetBytes(input)
	base := big.NewInt(58)
	zero := big.NewInt(0)
	remainder := new(big.Int)

	var result []byte
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, remainder)
		result = append([]byte{Base58Alphabet[remainder.Int64()]}, result...)
	}

	// Leading zero bytes are represented as '1'.
	for _, b := range input {
		if b != 0 {
			break
		}
		result = append([]byte{Base58Alphabet[0]}, result...)
	}

	return string(result)
}

// base58Decode decodes a base58 string to bytes.
func base58Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}

	charMap := make(map[byte]int, len(Base58Alphabet))
	for i := 0; i < len(Base58Alphabet); i++ {
		charMap[Base58Alphabet[i]] = i
	}

	num := big.NewInt(0)
	base := big.NewInt(58)
	for i := 0; i < len(input); i++ {
		val, ok := charMap[input[i]]
		if !ok {
			return nil, fmt.Errorf("invalid base58 character: %c", input[i])
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(val)))
	}

	result := num.Bytes()

	// Leading '1' characters decode to zero bytes.
	for i := 0; i < len(input) && input[i] == Base58Alphabet[0]; i++ {
		result = append([]byte{0}, result...)
	}

	return result, nil
}

// CompareTiming performs constant-time string comparison to prevent timing
// attacks.
func CompareTiming(a, b string) bool {
	if len(a) != len(b) {
		// Keep the comparison cost flat even on length mismatch.
		dummy := make([]byte, 32)
		subtle.ConstantTimeCompare(dummy, dummy)
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// IsValidBase58 reports whether s contains only base58 characters.
func IsValidBase58(s string) bool {
	for i := 0; i < len(s); i++ {
		valid := false
		for j := 0; j < len(Base58Alphabet); j++ {
			if s[i] == Base58Alphabet[j] {
				valid = true
				break
			}
		}
		if !valid {
			return false
		}
	}
	return true
}
