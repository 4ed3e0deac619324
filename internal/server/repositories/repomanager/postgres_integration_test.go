//go:build integration

package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/dbx"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway postgres and returns a migrated pool.
func setupPostgres(t *testing.T, ctx context.Context) *sql.DB {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "registrar",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/registrar?sslmode=disable", host, port.Port())
	db, err := dbx.Open(ctx, "pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(ctx, db))
	return db
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := setupPostgres(t, ctx)
	m := NewPostgresRepositoryManager()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := m.UserInfo(tx).Create(ctx, &models.UserInfo{Username: "alice", First: "Alice", Last: "Liddell", ThumbnailKey: "thumbnails/alice.png"}); err != nil {
			return err
		}
		return m.Sessions(tx).Create(ctx, &models.SessionRecord{
			SessionID: uuid.New(),
			Username:  "alice",
			Time:      time.Now().UTC().Truncate(time.Microsecond),
			IP:        "81.198.1.1",
			Country:   "Latvia",
			Browser:   models.BrowserFirefox,
		})
	})
	require.NoError(t, err)

	err = m.UserInfo(db).Create(ctx, &models.UserInfo{Username: "alice", Last: "Again"})
	assert.ErrorIs(t, err, common.ErrConflict)

	err = m.Sessions(db).Create(ctx, &models.SessionRecord{SessionID: uuid.New(), Username: "ghost", Time: time.Now(), IP: "::1", Country: "x", Browser: models.BrowserOther})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	u, err := m.UserInfo(db).GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Liddell", u.Last)

	list, err := m.Sessions(db).ListByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.BrowserFirefox, list[0].Browser)
	assert.Equal(t, time.UTC, list[0].Time.Location())
}
