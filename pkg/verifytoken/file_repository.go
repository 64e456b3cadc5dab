package verifytoken

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

// FileTokenRepository implements TokenRepository using file-based storage.
// Intended for development and tests; all operations run under one mutex so
// the supersede-then-insert and find-then-mark-used sequences are atomic.
type FileTokenRepository struct {
	dataDir string
	tokens  map[uuid.UUID]*VerificationToken
	mutex   sync.RWMutex
}

type tokenFileData struct {
	Tokens []*VerificationToken `json:"tokens"`
}

// NewFileTokenRepository creates a new file-based token repository.
func NewFileTokenRepository(dataDir string) (*FileTokenRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileTokenRepository{
		dataDir: dataDir,
		tokens:  make(map[uuid.UUID]*VerificationToken),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// CreateToken invalidates prior live tokens for the subject and kind, then
// stores the new record. Runs under one lock, so the two steps are atomic.
func (r *FileTokenRepository) CreateToken(ctx context.Context, token VerificationToken) (*VerificationToken, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, vt := range r.tokens {
		if vt.SubjectEmail == token.SubjectEmail && vt.Kind == token.Kind && vt.UsedAt == nil {
			usedAt := token.CreatedAt
			vt.UsedAt = &usedAt
		}
	}

	vt := &VerificationToken{
		ID:           uuid.New(),
		TokenHash:    token.TokenHash,
		SubjectEmail: token.SubjectEmail,
		Kind:         token.Kind,
		CreatedAt:    token.CreatedAt,
		ExpiresAt:    token.ExpiresAt,
	}
	r.tokens[vt.ID] = vt

	if err := r.save(); err != nil {
		delete(r.tokens, vt.ID)
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	vtCopy := *vt
	return &vtCopy, nil
}

// RedeemByHash finds the live matching token and marks it used.
func (r *FileTokenRepository) RedeemByHash(ctx context.Context, tokenHash string, kind TokenKind, now time.Time) (*VerificationToken, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, vt := range r.tokens {
		if vt.TokenHash == tokenHash && vt.Kind == kind && vt.Redeemable(now) {
			usedAt := now
			vt.UsedAt = &usedAt

			if err := r.save(); err != nil {
				vt.UsedAt = nil
				return nil, fmt.Errorf("failed to save: %w", err)
			}

			vtCopy := *vt
			return &vtCopy, nil
		}
	}

	return nil, ErrTokenNotFound
}

// InvalidateBySubject marks every live token for the subject and kind used.
func (r *FileTokenRepository) InvalidateBySubject(ctx context.Context, subjectEmail string, kind TokenKind, now time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, vt := range r.tokens {
		if vt.SubjectEmail == subjectEmail && vt.Kind == kind && vt.UsedAt == nil {
			usedAt := now
			vt.UsedAt = &usedAt
		}
	}

	return r.save()
}

// CountCreatedSince counts tokens issued for the subject since the cutoff.
func (r *FileTokenRepository) CountCreatedSince(ctx context.Context, subjectEmail string, kind TokenKind, since time.Time) (int64, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := int64(0)
	for _, vt := range r.tokens {
		if vt.SubjectEmail == subjectEmail && vt.Kind == kind && vt.CreatedAt.After(since) {
			count++
		}
	}

	return count, nil
}

// DeleteExpired removes used and expired records.
func (r *FileTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := int64(0)
	for id, vt := range r.tokens {
		if vt.UsedAt != nil || !now.Before(vt.ExpiresAt) {
			delete(r.tokens, id)
			count++
		}
	}

	if err := r.save(); err != nil {
		return 0, fmt.Errorf("failed to save: %w", err)
	}

	return count, nil
}

// load reads token data from file.
func (r *FileTokenRepository) load() error {
	filePath := filepath.Join(r.dataDir, "verification_tokens.json")

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

	var fileData tokenFileData
	if err := json.Unmarshal(data, &fileData); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.tokens = make(map[uuid.UUID]*VerificationToken)
	for _, token := range fileData.Tokens {
		r.tokens[token.ID] = token
	}

	return nil
}

// save writes token data to file atomically.
func (r *FileTokenRepository) save() error {
	tokens := make([]*VerificationToken, 0, len(r.tokens))
	for _, token := range r.tokens {
		tokens = append(tokens, token)
	}

	jsonData, err := json.MarshalIndent(tokenFileData{Tokens: tokens}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, "verification_tokens.json.tmp")
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, "verification_tokens.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
