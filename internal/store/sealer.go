package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
)

// Sealer provides reversible at-rest protection for sensitive store keys.
// The original obfuscation scheme this replaces was explicitly not a security
// boundary; here sensitive values are sealed with AES-256-GCM under a
// configured key. Failures never propagate: Seal and Open report ok=false and
// the store degrades to pass-through.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from an arbitrary key string. Keys that are not
// exactly 32 bytes are stretched through SHA-256.
func NewSealer(key string) (*Sealer, error) {
	k := []byte(key)
	if len(k) != 32 {
		sum := sha256.Sum256(k)
		k = sum[:]
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plain and returns it base64-encoded with the nonce prepended.
func (s *Sealer) Seal(plain []byte) (string, bool) {
	if s == nil || s.aead == nil {
		return "", false
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", false
	}
	out := s.aead.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(out), true
}

// Open reverses Seal. ok is false for malformed or tampered input.
func (s *Sealer) Open(encoded string) ([]byte, bool) {
	if s == nil || s.aead == nil {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}
	if len(raw) < s.aead.NonceSize() {
		return nil, false
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, false
	}
	return plain, true
}
