// Package crypto seals secrets, such as the auth token, before they are
// written to local storage.
package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")
	ErrDecryptionFailed  = errors.New("crypto: decryption failed")
	ErrEmptySecret       = errors.New("crypto: empty secret")
)

const (
	sealPrefix = "v1:"
	saltSize   = 16
)

// Argon2id parameters for deriving the sealing key from the local secret.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// DeriveKey stretches a secret into a KeySize key with Argon2id.
func DeriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, KeySize)
}

// Sealer encrypts short strings with a key derived from a local secret.
// Each sealed value carries its own random salt and nonce:
//
//	"v1:" + base64url(salt(16) | nonce | ciphertext+tag)
type Sealer struct {
	method Method
	secret string
}

// NewSealer returns a Sealer for the given method and secret.
func NewSealer(method Method, secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if _, err := NewCipher(method, make([]byte, KeySize)); err != nil {
		return nil, err
	}
	return &Sealer{method: method, secret: secret}, nil
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	salt, err := GenerateKey(saltSize)
	if err != nil {
		return "", err
	}
	aead, err := NewCipher(s.method, DeriveKey(s.secret, salt))
	if err != nil {
		return "", err
	}
	nonce, err := GenerateKey(aead.NonceSize())
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(plaintext), salt)
	return sealPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	body, ok := strings.CutPrefix(sealed, sealPrefix)
	if !ok {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < saltSize {
		return "", ErrInvalidCiphertext
	}
	salt := raw[:saltSize]
	aead, err := NewCipher(s.method, DeriveKey(s.secret, salt))
	if err != nil {
		return "", err
	}
	rest := raw[saltSize:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	nonce, ct := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, salt)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsSealed reports whether v looks like the output of Seal.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealPrefix)
}
