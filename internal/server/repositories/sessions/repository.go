package sessions

import (
	"context"

	"github.com/dmitrijs2005/registrar/internal/server/models"
)

// Repository is the append-only login history.
type Repository interface {
	// Create returns common.ErrorNotFound when s.Username has no UserInfo row.
	Create(ctx context.Context, s *models.SessionRecord) error
	// ListByUsername returns every session of username, oldest first.
	ListByUsername(ctx context.Context, username string) ([]models.SessionRecord, error)
}
