package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/ports"
)

// EnvelopeKey is the parameter holding the ciphertext of an encrypted history.
const EnvelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next ports.HistoryStore
	// active seals new envelopes; keys opens them, active first.
	active cipher.AEAD
	keys   []cipher.AEAD
}

// NewEncryptionMiddleware creates a middleware that encrypts histories using AES-GCM.
// The stored history is an envelope with a single root entry carrying the ciphertext,
// so visited locations never reach the backing store in clear. The session ID is bound
// as additional data: an envelope copied to another session does not open.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	active, err := newAEAD(config.ActiveKey)
	if err != nil {
		panic(fmt.Sprintf("invalid active key: %v", err))
	}
	keys := []cipher.AEAD{active}
	for i, k := range config.FallbackKeys {
		aead, err := newAEAD(k)
		if err != nil {
			panic(fmt.Sprintf("invalid fallback key %d: %v", i, err))
		}
		keys = append(keys, aead)
	}

	return func(next ports.HistoryStore) ports.HistoryStore {
		return &encryptionMiddleware{next: next, active: active, keys: keys}
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, history domain.History) error {
	plainText, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	nonce := make([]byte, m.active.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to encrypt history: %w", err)
	}
	sealed := m.active.Seal(nonce, nonce, plainText, []byte(sessionID))

	envelope := domain.History{
		Entries: []domain.UrlTarget{{
			Path:       navpath.Root,
			Parameters: map[string]string{EnvelopeKey: base64.StdEncoding.EncodeToString(sealed)},
		}},
	}
	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (domain.History, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return domain.History{}, err
	}

	var encrypted string
	if len(envelope.Entries) == 1 {
		encrypted = envelope.Entries[0].Parameters[EnvelopeKey]
	}
	if encrypted == "" {
		// Fail secure: a plain history is not accepted once encryption is configured.
		return domain.History{}, errors.New("history is missing encrypted data envelope")
	}

	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return domain.History{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := m.open(sealed, []byte(sessionID))
	if err != nil {
		return domain.History{}, fmt.Errorf("failed to decrypt history %s: %w", sessionID, err)
	}

	var history domain.History
	if err := json.Unmarshal(plainText, &history); err != nil {
		return domain.History{}, fmt.Errorf("failed to unmarshal decrypted history: %w", err)
	}
	return history, nil
}

// open tries the active key, then every fallback key.
func (m *encryptionMiddleware) open(sealed, additional []byte) ([]byte, error) {
	for _, aead := range m.keys {
		n := aead.NonceSize()
		if len(sealed) < n {
			return nil, errors.New("ciphertext too short")
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], additional); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
