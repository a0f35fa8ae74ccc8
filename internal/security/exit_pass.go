package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// PassSigner authenticates exit-pass payloads so the gate can trust a
// scanned QR code without calling back into the API.
type PassSigner interface {
	Sign(payload []byte) (string, error)
	Verify(payload []byte, signature string) error
}

var ErrBadSignature = errors.New("exit pass signature mismatch")

type hmacSigner struct {
	key []byte
}

// NewPassSigner builds an HMAC-SHA256 signer. Producer and verifier share
// the deployment, so a symmetric key is enough.
func NewPassSigner(secret string) (PassSigner, error) {
	if secret == "" {
		return nil, errors.New("exit pass secret required")
	}
	return &hmacSigner{key: []byte(secret)}, nil
}

func (s *hmacSigner) Sign(payload []byte) (string, error) {
	mac := hmac.New(sha256.New, s.key)
	if _, err := mac.Write(payload); err != nil {
		return "", fmt.Errorf("hmac write: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (s *hmacSigner) Verify(payload []byte, signature string) error {
	want, err := s.Sign(payload)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
