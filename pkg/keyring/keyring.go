package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

// Backend names accepted by NewStore.
const (
	BackendAuto   = "auto"
	BackendSystem = "system"
	BackendFile   = "file"
)

// ErrNotFound is returned when no secret is stored for a service and user.
var ErrNotFound = errors.New("secret not found in keyring")

// probeTimeout bounds the system keyring availability check.
const probeTimeout = 5 * time.Second

// Store reads and writes database passwords in the system keyring or, on
// headless hosts, in an encrypted JSON file.
type Store struct {
	file    *FileKeyring
	useFile bool
}

// NewStore creates a store for the given backend. The auto backend probes the
// system keyring and falls back to the file keyring when it is unavailable.
func NewStore(backend, keyringPath, masterPassword string) *Store {
	switch backend {
	case BackendSystem:
		return &Store{}
	case BackendFile:
		return &Store{file: NewFileKeyring(keyringPath, masterPassword), useFile: true}
	}

	if systemKeyringAvailable() {
		return &Store{}
	}
	return &Store{file: NewFileKeyring(keyringPath, masterPassword), useFile: true}
}

// NewStoreFromEnv creates a store configured by REDB_DBACCESS_KEYRING_BACKEND,
// REDB_DBACCESS_KEYRING_PATH and REDB_DBACCESS_KEYRING_PASSWORD.
func NewStoreFromEnv() *Store {
	backend := os.Getenv("REDB_DBACCESS_KEYRING_BACKEND")
	if backend == "" {
		backend = BackendAuto
	}
	return NewStore(backend, GetDefaultKeyringPath(), GetMasterPasswordFromEnv())
}

func systemKeyringAvailable() bool {
	const testService, testKey = "redb-dbaccess-probe", "probe"

	done := make(chan error, 1)
	go func() {
		err := keyring.Set(testService, testKey, "probe")
		if err == nil {
			keyring.Delete(testService, testKey)
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err == nil
	case <-time.After(probeTimeout):
		return false
	}
}

// UsesFile reports whether the store writes to the file keyring.
func (s *Store) UsesFile() bool { return s.useFile }

// Set stores a secret.
func (s *Store) Set(service, user, secret string) error {
	if s.useFile {
		return s.file.Set(service, user, secret)
	}
	return keyring.Set(service, user, secret)
}

// Get returns a secret, or ErrNotFound.
func (s *Store) Get(service, user string) (string, error) {
	if s.useFile {
		return s.file.Get(service, user)
	}
	secret, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return secret, err
}

// Delete removes a secret. Deleting a missing secret is not an error.
func (s *Store) Delete(service, user string) error {
	if s.useFile {
		return s.file.Delete(service, user)
	}
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// FileKeyring implements a file-based keyring for headless servers
type FileKeyring struct {
	mu          sync.Mutex
	keyringPath string
	masterKey   []byte
}

// keyringEntry represents a stored keyring entry
type keyringEntry struct {
	Service string `json:"service"`
	User    string `json:"user"`
	Data    string `json:"data"` // encrypted data
}

// NewFileKeyring creates a new file-based keyring
func NewFileKeyring(keyringPath, masterPassword string) *FileKeyring {
	hash := sha256.Sum256([]byte(masterPassword))
	return &FileKeyring{
		keyringPath: keyringPath,
		masterKey:   hash[:],
	}
}

func entryKey(service, user string) string {
	return fmt.Sprintf("%s:%s", service, user)
}

func (fk *FileKeyring) load() (map[string]keyringEntry, error) {
	entries := make(map[string]keyringEntry)
	data, err := os.ReadFile(fk.keyringPath)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse keyring file: %w", err)
	}
	return entries, nil
}

func (fk *FileKeyring) save(entries map[string]keyringEntry) error {
	if err := os.MkdirAll(filepath.Dir(fk.keyringPath), 0700); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(fk.keyringPath, data, 0600)
}

// Set stores an entry in the file keyring
func (fk *FileKeyring) Set(service, user, secret string) error {
	fk.mu.Lock()
	defer fk.mu.Unlock()

	entries, err := fk.load()
	if err != nil {
		return err
	}

	encrypted, err := fk.encrypt(secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	entries[entryKey(service, user)] = keyringEntry{Service: service, User: user, Data: encrypted}
	return fk.save(entries)
}

// Get retrieves an entry from the file keyring
func (fk *FileKeyring) Get(service, user string) (string, error) {
	fk.mu.Lock()
	defer fk.mu.Unlock()

	entries, err := fk.load()
	if err != nil {
		return "", err
	}

	entry, exists := entries[entryKey(service, user)]
	if !exists {
		return "", ErrNotFound
	}

	secret, err := fk.decrypt(entry.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret for %s: %w", entryKey(service, user), err)
	}
	return secret, nil
}

// Delete removes an entry from the file keyring
func (fk *FileKeyring) Delete(service, user string) error {
	fk.mu.Lock()
	defer fk.mu.Unlock()

	entries, err := fk.load()
	if err != nil {
		return err
	}
	key := entryKey(service, user)
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return fk.save(entries)
}

// encrypt encrypts plaintext using AES-GCM
func (fk *FileKeyring) encrypt(plaintext string) (string, error) {
	gcm, err := fk.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts ciphertext using AES-GCM
func (fk *FileKeyring) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	gcm, err := fk.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (fk *FileKeyring) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(fk.masterKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// GetMasterPasswordFromEnv gets master password from environment variable
func GetMasterPasswordFromEnv() string {
	if password := os.Getenv("REDB_DBACCESS_KEYRING_PASSWORD"); password != "" {
		return password
	}
	// Default password for development (change this in production!)
	return "default-master-password-change-me"
}

// GetDefaultKeyringPath returns the default keyring file path
func GetDefaultKeyringPath() string {
	if path := os.Getenv("REDB_DBACCESS_KEYRING_PATH"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "redb-dbaccess-keyring.json")
	}
	return filepath.Join(homeDir, ".local", "share", "redb-dbaccess", "keyring.json")
}
