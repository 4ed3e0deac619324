package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/dbx"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/dmitrijs2005/registrar/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/registrar/internal/server/repositories/userinfo"
)

// InMemoryRepositoryManager keeps everything in process memory. The DBTX
// passed to its factories is ignored; all repositories share one store, with
// no transactional isolation.
type InMemoryRepositoryManager struct {
	store *memoryStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: &memoryStore{users: map[string]models.UserInfo{}}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) UserInfo(dbx.DBTX) userinfo.Repository {
	return (*memoryUsers)(m.store)
}

func (m *InMemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return (*memorySessions)(m.store)
}

type memoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.UserInfo
	sessions []models.SessionRecord
}

type memoryUsers memoryStore

func (r *memoryUsers) Create(ctx context.Context, u *models.UserInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.Username]; exists {
		return common.NewConflictError(common.ConflictFieldUsername)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.users[u.Username] = *u
	return nil
}

func (r *memoryUsers) GetByUsername(ctx context.Context, username string) (*models.UserInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type memorySessions memoryStore

func (r *memorySessions) Create(ctx context.Context, s *models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[s.Username]; !ok {
		return fmt.Errorf("user %q: %w", s.Username, common.ErrorNotFound)
	}
	r.sessions = append(r.sessions, *s)
	return nil
}

func (r *memorySessions) ListByUsername(ctx context.Context, username string) ([]models.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.SessionRecord, 0)
	for _, s := range r.sessions {
		if s.Username == username {
			result = append(result, s)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})
	return result, nil
}
