package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_UserInfo(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()
	repo := m.UserInfo(nil)

	require.NoError(t, m.RunMigrations(ctx, nil))

	u := &models.UserInfo{Username: "alice", Last: "Liddell"}
	require.NoError(t, repo.Create(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	err := repo.Create(ctx, &models.UserInfo{Username: "alice"})
	assert.ErrorIs(t, err, common.ErrConflict)

	got, err := m.UserInfo(nil).GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Liddell", got.Last)

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_Sessions(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()
	require.NoError(t, m.UserInfo(nil).Create(ctx, &models.UserInfo{Username: "alice", Last: "L"}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := models.SessionRecord{SessionID: uuid.New(), Username: "alice", Time: base.Add(time.Hour), IP: "::1", Browser: models.BrowserOther}
	earlier := models.SessionRecord{SessionID: uuid.New(), Username: "alice", Time: base, IP: "::1", Browser: models.BrowserOther}

	repo := m.Sessions(nil)
	require.NoError(t, repo.Create(ctx, &later))
	require.NoError(t, repo.Create(ctx, &earlier))

	err := repo.Create(ctx, &models.SessionRecord{SessionID: uuid.New(), Username: "ghost"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got, err := repo.ListByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.SessionRecord{earlier, later}, got)

	none, err := repo.ListByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
