// Package cryptox seals credential values before they touch disk. Values are
// encrypted with ChaCha20-Poly1305 under a per-install key; the random nonce
// is prepended to the ciphertext.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/seqassist/seqassist/internal/shared"
)

// KeySize is the required length of a sealing key in bytes.
const KeySize = chacha20poly1305.KeySize

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Box encrypts and decrypts short values with a fixed symmetric key.
type Box struct {
	key []byte
}

// NewBox returns a Box using the given KeySize-byte key.
func NewBox(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Box{key: append([]byte(nil), key...)}, nil
}

// Seal encrypts plaintext and returns nonce||ciphertext.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(b.key)
	if err != nil {
		return nil, err
	}
	nonce, err := shared.RandBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a value produced by Seal. Tampered or truncated input
// returns ErrInvalidCiphertext.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(b.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}
