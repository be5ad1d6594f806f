package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"photofx/internal/domain"
)

const (
	historyKey = "history_v1.json"
	tokensKey  = "tokens_v1.json"
	userIDKey  = "user_id"
)

// StateStore persists client state as one file per value.
type StateStore struct {
	files *FileStore
}

func NewStateStore(files *FileStore) *StateStore {
	return &StateStore{files: files}
}

// OpenStateStore creates the directory if needed and returns a store on it.
func OpenStateStore(dir string) (*StateStore, error) {
	files, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return NewStateStore(files), nil
}

func (s *StateStore) LoadHistory(ctx context.Context) ([]domain.GenerationJob, error) {
	data, ok, err := s.files.Read(ctx, historyKey)
	if err != nil || !ok {
		return nil, err
	}
	var jobs []domain.GenerationJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("storage: decode history: %w", err)
	}
	return jobs, nil
}

func (s *StateStore) SaveHistory(ctx context.Context, jobs []domain.GenerationJob) error {
	if jobs == nil {
		jobs = []domain.GenerationJob{}
	}
	data, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("storage: encode history: %w", err)
	}
	_, err = s.files.Write(ctx, historyKey, data)
	return err
}

type tokenBlob struct {
	Balance int `json:"balance"`
}

func (s *StateStore) LoadTokenBalance(ctx context.Context) (int, error) {
	data, ok, err := s.files.Read(ctx, tokensKey)
	if err != nil || !ok {
		return 0, err
	}
	var blob tokenBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return 0, fmt.Errorf("storage: decode token balance: %w", err)
	}
	return blob.Balance, nil
}

func (s *StateStore) SaveTokenBalance(ctx context.Context, balance int) error {
	data, err := json.Marshal(tokenBlob{Balance: balance})
	if err != nil {
		return err
	}
	_, err = s.files.Write(ctx, tokensKey, data)
	return err
}

func (s *StateStore) LoadUserID(ctx context.Context) (string, error) {
	data, ok, err := s.files.Read(ctx, userIDKey)
	if err != nil || !ok {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *StateStore) SaveUserID(ctx context.Context, userID string) error {
	_, err := s.files.Write(ctx, userIDKey, []byte(strings.TrimSpace(userID)+"\n"))
	return err
}

var _ domain.StateRepository = (*StateStore)(nil)
