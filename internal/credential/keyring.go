package credential

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "taskdesk"

// AccessTokenKey is the single slot holding the bearer token.
const AccessTokenKey = "access-token"

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("credential not found")

// TokenStore persists the session token. Implementations must return
// ErrNotFound (possibly wrapped) when the key is empty.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Delete(key string) error
}

// KeyringStore stores credentials in the system keyring.
type KeyringStore struct {
	fileDir string
}

// NewKeyringStore returns a keyring-backed store. fileDir is used by the
// encrypted file backend when no OS keychain is available.
func NewKeyringStore(fileDir string) *KeyringStore {
	return &KeyringStore{fileDir: filepath.Join(fileDir, "credentials")}
}

// openKeyring returns a configured keyring instance.
func (s *KeyringStore) openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  s.fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("taskdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func (s *KeyringStore) Get(key string) (string, error) {
	ring, err := s.openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func (s *KeyringStore) Set(key string, value string) error {
	ring, err := s.openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "taskdesk " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring. Removing
// an absent key is not an error.
func (s *KeyringStore) Delete(key string) error {
	ring, err := s.openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// MemoryStore is an in-process TokenStore, used by tests and by the
// --ephemeral CLI flag.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Token reads the stored access token. An absent token is reported as
// ("", nil).
func Token(s TokenStore) (string, error) {
	tok, err := s.Get(AccessTokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return tok, err
}
