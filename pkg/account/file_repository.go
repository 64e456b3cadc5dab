package account

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileAccountRepository implements AccountRepository using file-based
// storage. Intended for development and tests.
type FileAccountRepository struct {
	dataDir   string
	accounts  map[uuid.UUID]*Account
	passwords map[uuid.UUID]string
	mutex     sync.RWMutex
}

type accountFileData struct {
	Accounts []*Account `json:"accounts"`
}

// NewFileAccountRepository creates a new file-based account repository.
func NewFileAccountRepository(dataDir string) (*FileAccountRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileAccountRepository{
		dataDir:   dataDir,
		accounts:  make(map[uuid.UUID]*Account),
		passwords: make(map[uuid.UUID]string),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateAccount adds an account. Not part of AccountRepository; used by
// tests and dev setups to seed state.
func (r *FileAccountRepository) CreateAccount(ctx context.Context, email string) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return nil, fmt.Errorf("account already exists for email: %s", email)
		}
	}

	now := time.Now().UTC()
	a := &Account{
		ID:             uuid.New(),
		Email:          email,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	r.accounts[a.ID] = a

	if err := r.save(); err != nil {
		delete(r.accounts, a.ID)
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	aCopy := *a
	return &aCopy, nil
}

// GetStatus returns the verification status slice of an account.
func (r *FileAccountRepository) GetStatus(ctx context.Context, accountID uuid.UUID) (*Status, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	a, exists := r.accounts[accountID]
	if !exists {
		return nil, ErrAccountNotFound
	}

	status := StatusOf(a)
	return &status, nil
}

// GetByEmail retrieves an account by email.
func (r *FileAccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email {
			aCopy := *a
			return &aCopy, nil
		}
	}

	return nil, ErrAccountNotFound
}

// MarkEmailVerified sets the email-verified flag for the account owning the
// address.
func (r *FileAccountRepository) MarkEmailVerified(ctx context.Context, email string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			if !a.EmailVerified {
				now := time.Now().UTC()
				a.EmailVerified = true
				a.EmailVerifiedAt = &now
				a.LastModifiedAt = now
			}
			return r.save()
		}
	}

	return ErrAccountNotFound
}

// SetUsername assigns a username to the account.
func (r *FileAccountRepository) SetUsername(ctx context.Context, accountID uuid.UUID, username string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id, a := range r.accounts {
		if a.Username == username && id != accountID {
			return ErrUsernameTaken
		}
	}

	a, exists := r.accounts[accountID]
	if !exists {
		return ErrAccountNotFound
	}

	a.Username = username
	a.LastModifiedAt = time.Now().UTC()

	return r.save()
}

// SetPassword replaces the account's password hash. Hashes are kept in
// memory only; the JSON file never holds credentials.
func (r *FileAccountRepository) SetPassword(ctx context.Context, email string, passwordHash string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id, a := range r.accounts {
		if a.Email == email {
			r.passwords[id] = passwordHash
			a.LastModifiedAt = time.Now().UTC()
			return r.save()
		}
	}

	return ErrAccountNotFound
}

// load reads account data from file.
func (r *FileAccountRepository) load() error {
	filePath := filepath.Join(r.dataDir, "accounts.json")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var fileData accountFileData
	if err := json.Unmarshal(data, &fileData); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.accounts = make(map[uuid.UUID]*Account)
	for _, a := range fileData.Accounts {
		r.accounts[a.ID] = a
	}

	return nil
}

// save writes account data to file atomically.
func (r *FileAccountRepository) save() error {
	accounts := make([]*Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}

	jsonData, err := json.MarshalIndent(accountFileData{Accounts: accounts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "accounts.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "accounts.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
