package session

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned when a stored token ciphertext fails authenticated
// decryption. Callers treat it identically to an absent token.
var ErrDecrypt = errors.New("token decryption failed")

// KeySize is the required encryption key length in bytes.
const KeySize = chacha20poly1305.KeySize

// Cipher seals and opens session-held tokens with XChaCha20-Poly1305.
// The ciphertext carries its own integrity tag; the random nonce is
// prepended to each sealed value.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.New("invalid session encryption key")
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts a plaintext token.
func (c *Cipher) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open decrypts a sealed token. Any tampering or key mismatch returns
// [ErrDecrypt].
func (c *Cipher) Open(sealed []byte) (string, error) {
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
