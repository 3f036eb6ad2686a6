package ticket

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	minSecretLength = 32
	keySize         = 32
	infoPrefix      = "idsrv.ticket."
)

// Envelope is the authenticated wrapper stored inside every protected value.
type Envelope struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type envelope struct {
	IssuedAt  int64           `json:"iat"`
	ExpiresAt int64           `json:"exp"`
	Data      json.RawMessage `json:"data"`
}

// Protector seals and opens payloads bound to a purpose.
// It holds no mutable state and is safe for concurrent use.
type Protector struct {
	secrets [][]byte
	now     func() time.Time
}

// Option configures a Protector.
type Option func(*Protector)

// WithClock overrides the time source used for issue and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Protector) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a Protector. The first secret seals new values, all of them are
// accepted when opening.
func New(secrets []string, opts ...Option) (*Protector, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	p := &Protector{
		secrets: make([][]byte, 0, len(secrets)),
		now:     time.Now,
	}
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
		p.secrets = append(p.secrets, []byte(s))
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Protect serializes v and seals it for purpose. The result expires after ttl.
func (p *Protector) Protect(purpose string, v any, ttl time.Duration) (string, error) {
	if purpose == "" {
		return "", ErrInvalidPurpose
	}
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal ticket payload: %w", err)
	}

	now := p.now()
	plaintext, err := json.Marshal(envelope{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Data:      data,
	})
	if err != nil {
		return "", fmt.Errorf("marshal ticket envelope: %w", err)
	}

	gcm, err := newGCM(p.secrets[0], purpose)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, []byte(purpose))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unprotect opens value sealed for purpose and decodes the payload into v.
// It fails if the value was tampered with, sealed for another purpose,
// sealed with an unknown secret, or has expired.
func (p *Protector) Unprotect(purpose, value string, v any) (Envelope, error) {
	if purpose == "" {
		return Envelope{}, ErrInvalidPurpose
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) == 0 {
		return Envelope{}, ErrInvalidFormat
	}

	plaintext, err := p.open(purpose, raw)
	if err != nil {
		return Envelope{}, err
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return Envelope{}, ErrInvalidFormat
	}

	out := Envelope{
		IssuedAt:  time.Unix(env.IssuedAt, 0),
		ExpiresAt: time.Unix(env.ExpiresAt, 0),
	}
	if !p.now().Before(out.ExpiresAt) {
		return out, ErrExpired
	}

	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}

	return out, nil
}

func (p *Protector) open(purpose string, raw []byte) ([]byte, error) {
	for _, secret := range p.secrets {
		gcm, err := newGCM(secret, purpose)
		if err != nil {
			return nil, err
		}
		if len(raw) <= gcm.NonceSize() {
			return nil, ErrInvalidFormat
		}

		nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
		plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(purpose))
		if err == nil {
			return plaintext, nil
		}
	}
	return nil, ErrDecryptionFailed
}

func newGCM(secret []byte, purpose string) (cipher.AEAD, error) {
	key := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte(infoPrefix+purpose))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive ticket key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
