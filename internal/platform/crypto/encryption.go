package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Service seals sensitive employee columns with XChaCha20-Poly1305. Sealed
// values are the random 24-byte nonce followed by the ciphertext. A Service
// without a key passes values through unchanged.
type Service struct {
	aead cipher.AEAD
}

// New accepts a 32-byte key given raw, as hex or as base64. An empty key
// yields a pass-through Service.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	raw, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY: %w", err)
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	switch {
	case len(plain) == 0:
		return nil, nil
	case !s.Configured():
		return plain, nil
	}
	out := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return s.aead.Seal(out, out, plain, nil), nil
}

func (s *Service) Decrypt(sealed []byte) ([]byte, error) {
	switch {
	case len(sealed) == 0:
		return nil, nil
	case !s.Configured():
		return sealed, nil
	case len(sealed) < s.aead.NonceSize()+s.aead.Overhead():
		return nil, ErrCiphertextTooShort
	}
	n := s.aead.NonceSize()
	return s.aead.Open(nil, sealed[:n], sealed[n:], nil)
}

func (s *Service) EncryptString(value string) ([]byte, error) {
	return s.Encrypt([]byte(value))
}

func (s *Service) DecryptString(sealed []byte) (string, error) {
	plain, err := s.Decrypt(sealed)
	return string(plain), err
}

// EncryptFloat seals an amount with two decimals; nil stays nil.
func (s *Service) EncryptFloat(value *float64) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return s.EncryptString(strconv.FormatFloat(*value, 'f', 2, 64))
}

// StringOr opens sealed, falling back to plain for rows written before a key
// was configured or that cannot be opened.
func (s *Service) StringOr(sealed []byte, plain string) string {
	if !s.Configured() || len(sealed) == 0 {
		return plain
	}
	if v, err := s.DecryptString(sealed); err == nil {
		return v
	}
	return plain
}

func (s *Service) FloatOr(sealed []byte, plain *float64) *float64 {
	if !s.Configured() || len(sealed) == 0 {
		return plain
	}
	v, err := s.DecryptString(sealed)
	if err != nil {
		return plain
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return plain
	}
	return &f
}

func decodeKey(raw string) ([]byte, error) {
	switch {
	case len(raw) == chacha20poly1305.KeySize:
		return []byte(raw), nil
	case len(raw) == 2*chacha20poly1305.KeySize:
		if b, err := hex.DecodeString(raw); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(raw); err == nil && len(b) == chacha20poly1305.KeySize {
			return b, nil
		}
	}
	return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to %d bytes", chacha20poly1305.KeySize)
}
