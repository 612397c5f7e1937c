package tokens

import (
	"bytes"
	"testing"
)

func TestBase58Roundtrip(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"simple", []byte{1, 2, 3, 4}},
		{"single byte", []byte{0xFF}},
		{"leading zeros", []byte{0, 0, 0, 1}},
		{"all zeros", []byte{0, 0, 0, 0}},
		{"token sized", bytes.Repeat([]byte{0x5A}, TokenEntropyBytes+ChecksumBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := base58Encode(tt.input)
			decoded, err := base58Decode(encoded)
			if err != nil {
				t.Fatalf("base58Decode() error = %v", err)
			}
			if !bytes.Equal(decoded, tt.input) {
				t.Errorf("roundtrip mismatch: got %v, want %v", decoded, tt.input)
			}
		})
	}
}

func TestBase58DecodeInvalidCharacter(t *testing.T) {
	for _, s := range []string{"0", "O", "I", "l", "abc!def", "hello world"} {
		if _, err := base58Decode(s); err == nil {
			t.Errorf("base58Decode(%q): expected error", s)
		}
	}
}

func TestBase58EncodeEmpty(t *testing.T) {
	if got := base58Encode(nil); got != "" {
		t.Errorf("base58Encode(nil) = %q, want empty", got)
	}
}

func TestCompareTiming(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "mosaic_v1_test123", "mosaic_v1_test123", true},
		{"different same length", "mosaic_v1_test123", "mosaic_v1_test456", false},
		{"different lengths", "mosaic_v1_test123", "mosaic_v1_test", false},
		{"both empty", "", "", true},
		{"one empty", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeat to make sure the result is stable.
			for i := 0; i < 5; i++ {
				if got := CompareTiming(tt.a, tt.b); got != tt.want {
					t.Errorf("CompareTiming() iteration %d = %v, want %v", i, got, tt.want)
				}
			}
		})
	}
}

func TestIsValidBase58(t *testing.T) {
	if !IsValidBase58("123abcXYZ") {
		t.Error("IsValidBase58 rejected valid input")
	}
	if IsValidBase58("0") || IsValidBase58("O") || IsValidBase58("I") || IsValidBase58("l") {
		t.Error("IsValidBase58 accepted a confusable character")
	}
	if !IsValidBase58("") {
		t.Error("IsValidBase58 rejected empty string")
	}
}
