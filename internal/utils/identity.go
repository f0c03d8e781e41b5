package utils

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// AgentIdentity is the persistent identity of this agent instance. UI
// shells pin the public key during pairing so later responses can be
// verified against it.
type AgentIdentity struct {
	AgentID    string `json:"agent_id"`
	PrivateKey string `json:"private_key"` // Base64
	PublicKey  string `json:"public_key"`  // Base64
}

// LoadOrGenerateAgentIdentity ensures the agent keeps a stable identity
// across restarts. Env vars win, then the local file, otherwise fresh keys
// are generated and persisted.
func LoadOrGenerateAgentIdentity() (*AgentIdentity, error) {
	envID := os.Getenv("AGENT_ID")
	envPub := os.Getenv("AGENT_PUBLIC_KEY")
	envPriv := os.Getenv("AGENT_PRIVATE_KEY")

	if envID != "" && envPub != "" && envPriv != "" {
		return &AgentIdentity{
			AgentID:    envID,
			PublicKey:  envPub,
			PrivateKey: envPriv,
		}, nil
	}

	configDir := ".argus"
	identityFile := filepath.Join(configDir, "agent_identity.json")

	if data, err := os.ReadFile(identityFile); err == nil {
		var identity AgentIdentity
		if err := json.Unmarshal(data, &identity); err == nil {
			return &identity, nil
		}
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keys: %w", err)
	}

	identity := &AgentIdentity{
		AgentID:    uuid.NewString(),
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
		PrivateKey: base64.StdEncoding.EncodeToString(priv),
	}

	_ = os.MkdirAll(configDir, 0755)
	data, _ := json.MarshalIndent(identity, "", "  ")
	_ = os.WriteFile(identityFile, data, 0600)

	return identity, nil
}

// PublicKeyHex returns the public key as a hex string for QR payloads
func (a *AgentIdentity) PublicKeyHex() (string, error) {
	bytes, err := base64.StdEncoding.DecodeString(a.PublicKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Sign signs message with the agent's private key, returning base64
func (a *AgentIdentity) Sign(message string) (string, error) {
	privBytes, err := base64.StdEncoding.DecodeString(a.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %v", err)
	}
	if len(privBytes) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("invalid private key size")
	}
	sig := ed25519.Sign(privBytes, []byte(message))
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifySignature checks an Ed25519 signature
func VerifySignature(publicKeyBase64, message, signatureBase64 string) (bool, error) {
	pubBytes, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return false, fmt.Errorf("invalid public key: %v", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key size")
	}

	sigBytes, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %v", err)
	}

	return ed25519.Verify(pubBytes, []byte(message), sigBytes), nil
}
