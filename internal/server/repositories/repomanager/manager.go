package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/registrar/internal/dbx"
	"github.com/dmitrijs2005/registrar/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/registrar/internal/server/repositories/userinfo"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	UserInfo(db dbx.DBTX) userinfo.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
