package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrKeyNotFound is returned when the access key does not exist in the ring.
var ErrKeyNotFound = errors.New("access key not found")

// KeyPair represents an access key and secret key pair.
type KeyPair struct {
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
}

// KeysConfig lists extra keys accepted by the Verifier, typically the
// previous signing key during a rotation.
type KeysConfig struct {
	Inline []KeyPair `mapstructure:"inline"` // Inline key pairs from config
	File   string    `mapstructure:"file"`   // Path to JSON file containing key pairs
}

// KeyRing maps access keys to secrets.
type KeyRing struct {
	keys map[string]string
}

// NewKeyRing loads keys from inline config and from the keys file, if set.
// File keys take precedence over inline keys with the same access key.
func NewKeyRing(cfg KeysConfig) (*KeyRing, error) {
	keys := make(map[string]string)

	for _, p := range cfg.Inline {
		if p.AccessKey != "" && p.SecretKey != "" {
			keys[p.AccessKey] = p.SecretKey
		}
	}

	if cfg.File != "" {
		fileKeys, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileKeys {
			keys[k] = v
		}
	}

	return &KeyRing{keys: keys}, nil
}

// Add registers a key pair, replacing any secret already held for accessKey.
func (k *KeyRing) Add(accessKey, secretKey string) {
	k.keys[accessKey] = secretKey
}

// Len returns the number of keys in the ring.
func (k *KeyRing) Len() int {
	return len(k.keys)
}

// Lookup retrieves the secret key for the given access key.
func (k *KeyRing) Lookup(accessKey string) (string, error) {
	secretKey, found := k.keys[accessKey]
	if !found {
		return "", ErrKeyNotFound
	}
	return secretKey, nil
}

// LoadKeysFromFile loads access keys from a JSON file.
// The file should contain an array of key pairs:
//
//	[
//	  {"access_key": "LOCALKEY2025", "secret_key": "s3cr3t..."},
//	  {"access_key": "LOCALKEY2024", "secret_key": "old..."}
//	]
func LoadKeysFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	var pairs []KeyPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.AccessKey != "" && p.SecretKey != "" {
			keys[p.AccessKey] = p.SecretKey
		}
	}

	return keys, nil
}
