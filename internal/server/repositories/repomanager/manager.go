package repomanager

import (
	"context"
	"database/sql"

	"github.com/placekeeper/placekeeper/internal/dbx"
	"github.com/placekeeper/placekeeper/internal/server/repositories/places"
	"github.com/placekeeper/placekeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// repository code runs against the pool or against an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Places(db dbx.DBTX) places.Repository
}
