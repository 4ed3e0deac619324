// Package userinfo persists UserInfo rows.
package userinfo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/dbx"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/dmitrijs2005/registrar/internal/server/repositories"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.UserInfo) error {
	query :=
		`INSERT INTO userinfo (username, first, last, thumbnail_key)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, u.Username, u.First, u.Last, u.ThumbnailKey).Scan(&u.CreatedAt)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return common.NewConflictError(common.ConflictFieldUsername)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.UserInfo, error) {
	query :=
		`SELECT username, first, last, thumbnail_key, created_at FROM userinfo
		 WHERE username = $1
		 `

	u := &models.UserInfo{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.Username, &u.First, &u.Last, &u.ThumbnailKey, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
