package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"photofx/internal/domain"
	"photofx/internal/infra"
	"photofx/internal/sqlinline"
)

const (
	DefaultNamespace = "default"

	keyHistory = "history"
	keyTokens  = "tokens"
	keyUserID  = "user_id"
)

// StateRepositoryPG implements domain.StateRepository on a key/value table.
// Namespace separates installs sharing one database.
type StateRepositoryPG struct {
	sql       infra.SQLExecutor
	namespace string
}

func NewStateRepository(sql infra.SQLExecutor, namespace string) *StateRepositoryPG {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &StateRepositoryPG{sql: sql, namespace: namespace}
}

// EnsureSchema creates the backing table when it is missing.
func (r *StateRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureClientState); err != nil {
		return fmt.Errorf("ensure client_state: %w", err)
	}
	return nil
}

func (r *StateRepositoryPG) LoadHistory(ctx context.Context) ([]domain.GenerationJob, error) {
	var jobs []domain.GenerationJob
	if _, err := r.load(ctx, keyHistory, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *StateRepositoryPG) SaveHistory(ctx context.Context, jobs []domain.GenerationJob) error {
	if jobs == nil {
		jobs = []domain.GenerationJob{}
	}
	return r.save(ctx, keyHistory, jobs)
}

func (r *StateRepositoryPG) LoadTokenBalance(ctx context.Context) (int, error) {
	var balance int
	if _, err := r.load(ctx, keyTokens, &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *StateRepositoryPG) SaveTokenBalance(ctx context.Context, balance int) error {
	return r.save(ctx, keyTokens, balance)
}

func (r *StateRepositoryPG) LoadUserID(ctx context.Context) (string, error) {
	var id string
	if _, err := r.load(ctx, keyUserID, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *StateRepositoryPG) SaveUserID(ctx context.Context, userID string) error {
	return r.save(ctx, keyUserID, strings.TrimSpace(userID))
}

func (r *StateRepositoryPG) load(ctx context.Context, key string, dest any) (bool, error) {
	var raw []byte
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectClientState, r.namespace, key).Scan(&raw); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *StateRepositoryPG) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertClientState, r.namespace, key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

var _ domain.StateRepository = (*StateRepositoryPG)(nil)
