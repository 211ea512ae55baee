package engine

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyManager handles the SSH key pair used to reach an engine's machine.
type KeyManager struct {
	dir     string
	comment string
}

// NewKeyManager creates a key manager storing keys in dir.
func NewKeyManager(dir, comment string) *KeyManager {
	return &KeyManager{dir: dir, comment: comment}
}

// PrivateKeyPath returns the path to the private key file.
func (m *KeyManager) PrivateKeyPath() string {
	return filepath.Join(m.dir, "id_ed25519")
}

// PublicKeyPath returns the path to the public key file.
func (m *KeyManager) PublicKeyPath() string {
	return filepath.Join(m.dir, "id_ed25519.pub")
}

// EnsureKeyPair generates an ed25519 key pair if it doesn't exist.
func (m *KeyManager) EnsureKeyPair() error {
	if m.KeyPairExists() {
		return nil
	}

	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("create keys directory: %w", err)
	}

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(privKey, m.comment)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	if err := os.WriteFile(m.PrivateKeyPath(), pem.EncodeToMemory(block), 0600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		os.Remove(m.PrivateKeyPath())
		return fmt.Errorf("convert public key: %w", err)
	}
	// Format: ssh-ed25519 <base64> <comment>
	line := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(sshPub)), "\n") + " " + m.comment + "\n"
	if err := os.WriteFile(m.PublicKeyPath(), []byte(line), 0644); err != nil {
		os.Remove(m.PrivateKeyPath())
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

// KeyPairExists returns true if both private and public keys exist.
func (m *KeyManager) KeyPairExists() bool {
	_, privErr := os.Stat(m.PrivateKeyPath())
	_, pubErr := os.Stat(m.PublicKeyPath())
	return privErr == nil && pubErr == nil
}

// PublicKey returns the authorized_keys line for the engine.
func (m *KeyManager) PublicKey() (string, error) {
	content, err := os.ReadFile(m.PublicKeyPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("engine key pair not generated")
	}
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Fingerprint returns the SHA256 fingerprint of the public key.
func (m *KeyManager) Fingerprint() (string, error) {
	content, err := m.PublicKey()
	if err != nil {
		return "", err
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(content))
	if err != nil {
		return "", fmt.Errorf("parse public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}
