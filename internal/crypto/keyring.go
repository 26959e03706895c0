package crypto

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Keyring provides secure key storage abstraction
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "timeledger"
	KeyName     = "db-encryption-key"
	// EnvKey takes precedence over the system keyring when set
	EnvKey = "TIMELEDGER_DB_KEY"
)

// ErrNoKey means neither the environment nor the keyring holds a key
var ErrNoKey = errors.New("no database key stored")

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

type systemKeyring struct {
	service string
	lookup  func(string) string
}

// NewKeyring returns a keyring reading TIMELEDGER_DB_KEY first and the
// platform credential store (Keychain, Secret Service, wincred) second
func NewKeyring() Keyring {
	return &systemKeyring{service: ServiceName, lookup: os.Getenv}
}

// GetKey returns the database key
func (k *systemKeyring) GetKey() (string, error) {
	if key := strings.TrimSpace(k.lookup(EnvKey)); key != "" {
		return key, nil
	}

	key, err := keyringGet(k.service, KeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoKey
		}
		return "", fmt.Errorf("failed to retrieve key from keyring: %w", err)
	}
	if key == "" {
		return "", errors.New("encryption key is empty")
	}
	return key, nil
}

// SetKey stores the key in the platform credential store
func (k *systemKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyringSet(k.service, KeyName, password); err != nil {
		return fmt.Errorf("failed to store key in keyring (set %s instead): %w", EnvKey, err)
	}
	return nil
}

// DeleteKey removes the stored key. A key given through the environment is
// left to the caller.
func (k *systemKeyring) DeleteKey() error {
	if err := keyringDelete(k.service, KeyName); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNoKey
		}
		return fmt.Errorf("failed to delete key from keyring: %w", err)
	}
	return nil
}

// IsAvailable reports whether a key can be stored
func (k *systemKeyring) IsAvailable() bool {
	testKey := "__timeledger_availability_test__"
	if err := keyringSet(k.service, testKey, "test"); err != nil {
		return false
	}
	_ = keyringDelete(k.service, testKey)
	return true
}
