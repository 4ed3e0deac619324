// Package sessions persists SessionRecord rows.
package sessions

import (
	"context"
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

func (r *PostgresRepository) Create(ctx context.Context, s *models.SessionRecord) error {
	query :=
		`INSERT INTO sessioninfo (session_id, username, time, ip, country, browser)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query, s.SessionID, s.Username, s.Time, s.IP, s.Country, string(s.Browser))
	switch {
	case err == nil:
		return nil
	case repositories.IsForeignKeyViolation(err):
		return fmt.Errorf("user %q: %w", s.Username, common.ErrorNotFound)
	case repositories.IsCheckViolation(err):
		return common.ValidationError("browser", "rejected by store")
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func (r *PostgresRepository) ListByUsername(ctx context.Context, username string) ([]models.SessionRecord, error) {
	query :=
		`SELECT session_id, username, time, ip, country, browser FROM sessioninfo
		 WHERE username = $1
		 ORDER BY time, session_id
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.SessionRecord, 0)
	for rows.Next() {
		var (
			s       models.SessionRecord
			browser string
		)
		if err := rows.Scan(&s.SessionID, &s.Username, &s.Time, &s.IP, &s.Country, &browser); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if s.Browser, err = models.ParseBrowser(browser); err != nil {
			return nil, err
		}
		s.Time = s.Time.UTC()
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
