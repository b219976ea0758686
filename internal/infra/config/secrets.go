package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/99designs/keyring"
)

// KeyringService namespaces finchat entries in the OS credential store.
const KeyringService = "finchat"

// Keys looked up in the secret store.
const (
	SecretWatsonAPIKey  = "watson_api_key"
	SecretGraniteAPIKey = "granite_api_key"
	SecretHFToken       = "hf_token"
)

// SecretStore resolves a credential by key. A missing key returns "" and no error.
type SecretStore interface {
	Get(key string) (string, error)
}

// KeyringStore reads credentials from a keyring.Keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// OpenKeyring opens the OS credential store under KeyringService.
func OpenKeyring() (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:   KeyringService,
		PassPrefix:    KeyringService,
		WinCredPrefix: KeyringService,
	})
	if err != nil {
		return nil, fmt.Errorf("config: open keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// Get returns the stored value for key.
func (s *KeyringStore) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("config: keyring get %s: %w", key, err)
	}
	return string(item.Data), nil
}

// ErrUnknownSecret is returned by Set for a key finchat never reads.
var ErrUnknownSecret = errors.New("config: unknown secret")

// SecretKeys lists every key fillSecrets looks up.
func SecretKeys() []string {
	return []string{SecretWatsonAPIKey, SecretGraniteAPIKey, SecretHFToken}
}

// Set stores value under key. Only keys in SecretKeys are accepted.
func (s *KeyringStore) Set(key, value string) error {
	if !slices.Contains(SecretKeys(), key) {
		return fmt.Errorf("%w: %q", ErrUnknownSecret, key)
	}
	if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: KeyringService + " " + key}); err != nil {
		return fmt.Errorf("config: keyring set %s: %w", key, err)
	}
	return nil
}

// fillSecrets sets credentials that are still empty from store.
func fillSecrets(cfg *Config, store SecretStore) error {
	targets := []struct {
		key   string
		field *string
	}{
		{SecretWatsonAPIKey, &cfg.WatsonAPIKey},
		{SecretGraniteAPIKey, &cfg.GraniteAPIKey},
		{SecretHFToken, &cfg.HFToken},
	}
	for _, t := range targets {
		if *t.field != "" {
			continue
		}
		v, err := store.Get(t.key)
		if err != nil {
			return err
		}
		*t.field = v
	}
	return nil
}
