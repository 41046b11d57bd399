package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Method selects the AEAD used to seal values at rest.
type Method string

const (
	AES256GCM        Method = "aes-256-gcm"
	ChaCha20Poly1305 Method = "chacha20-poly1305"
)

// KeySize is 32 bytes for both supported methods.
const KeySize = 32

// ParseMethod converts a config string to a Method. Empty selects AES256GCM.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", AES256GCM:
		return AES256GCM, nil
	case ChaCha20Poly1305:
		return ChaCha20Poly1305, nil
	default:
		return "", fmt.Errorf("crypto: unknown seal method %q", s)
	}
}

// NewCipher builds the AEAD for method from a 32-byte key.
func NewCipher(method Method, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypto: invalid %s key length: expected %d, got %d", method, KeySize, len(key))
	}
	switch method {
	case AES256GCM:
		return newAESGCMCipher(key)
	case ChaCha20Poly1305:
		return newChacha20Poly1305Cipher(key)
	default:
		return nil, fmt.Errorf("crypto: unknown seal method: %v", method)
	}
}

func newAESGCMCipher(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}
	return aead, nil
}

func newChacha20Poly1305Cipher(key []byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new chacha20 cipher: %w", err)
	}
	return aead, nil
}

// GenerateKey generates a random key of the given size.
func GenerateKey(size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return key, nil
}
