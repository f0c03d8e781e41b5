package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// sealedEnvelope wraps ciphertext in a JSON object so sealed values still
// satisfy jsonb columns and are self-describing on read.
type sealedEnvelope struct {
	Sealed string `json:"sealed"` // base64(nonce || ciphertext)
}

// SealedStore encrypts values with AES-256-GCM before handing them to the
// inner store. Keys stay in the clear; only values are sealed.
type SealedStore struct {
	inner Store
	gcm   cipher.AEAD
}

// Sealed wraps inner with value encryption. keyHex must decode to 32 bytes.
func Sealed(inner Store, keyHex string) (*SealedStore, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, errors.New("storage: STORE_KEY must be hex")
	}
	if len(key) != 32 {
		return nil, errors.New("storage: STORE_KEY must be 32 bytes (64 hex chars) for AES-256")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("storage: init gcm: %w", err)
	}
	return &SealedStore{inner: inner, gcm: gcm}, nil
}

// Get reads and unseals the value for key. Values written before sealing was
// enabled pass through untouched so enabling STORE_KEY on an existing agent
// does not orphan its queue.
func (s *SealedStore) Get(key string) ([]byte, error) {
	raw, err := s.inner.Get(key)
	if err != nil {
		return nil, err
	}
	var env sealedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Sealed == "" {
		return raw, nil
	}
	blob, err := base64.StdEncoding.DecodeString(env.Sealed)
	if err != nil {
		return nil, fmt.Errorf("storage: unseal %s: %w", key, err)
	}
	if len(blob) < s.gcm.NonceSize() {
		return nil, fmt.Errorf("storage: unseal %s: blob too short", key)
	}
	nonce, ct := blob[:s.gcm.NonceSize()], blob[s.gcm.NonceSize():]
	plain, err := s.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: unseal %s: %w", key, err)
	}
	return plain, nil
}

// Set seals value and stores the envelope under key
func (s *SealedStore) Set(key string, value []byte) error {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("storage: seal %s: %w", key, err)
	}
	blob := s.gcm.Seal(nonce, nonce, value, nil)
	env, err := json.Marshal(sealedEnvelope{Sealed: base64.StdEncoding.EncodeToString(blob)})
	if err != nil {
		return fmt.Errorf("storage: seal %s: %w", key, err)
	}
	return s.inner.Set(key, env)
}

// Delete removes key from the inner store
func (s *SealedStore) Delete(key string) error {
	return s.inner.Delete(key)
}
