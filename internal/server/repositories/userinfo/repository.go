package userinfo

import (
	"context"

	"github.com/dmitrijs2005/registrar/internal/server/models"
)

// Repository stores the denormalized identity used for profile reads.
type Repository interface {
	// Create returns a *common.ConflictError for an existing username.
	Create(ctx context.Context, u *models.UserInfo) error
	// GetByUsername returns common.ErrorNotFound for an unknown user.
	GetByUsername(ctx context.Context, username string) (*models.UserInfo, error)
}
