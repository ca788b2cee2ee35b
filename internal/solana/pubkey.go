package solana

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of a Solana public key in bytes.
const PublicKeyLength = 32

// ErrInvalidPublicKey is returned for strings that are not base58 32-byte keys.
var ErrInvalidPublicKey = errors.New("invalid public key")

// ValidatePublicKey checks that s is a base58-encoded 32-byte public key.
func ValidatePublicKey(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPublicKey)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPublicKey, s, err)
	}
	if len(raw) != PublicKeyLength {
		return fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidPublicKey, s, len(raw))
	}
	return nil
}

// IsPublicKey reports whether s is a valid public key.
func IsPublicKey(s string) bool {
	return ValidatePublicKey(s) == nil
}
