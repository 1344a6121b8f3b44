package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/assets"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/audits"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/mediavault/internal/server/repositories/tickets"
)

// RepositoryManager hands out repositories bound to a connection or
// transaction handle, so a service can run several repositories inside one
// dbx.WithTx unit.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Assets(db dbx.DBTX) assets.Repository
	Tickets(db dbx.DBTX) tickets.Repository
	Shares(db dbx.DBTX) shares.Repository
	Audits(db dbx.DBTX) audits.Repository
}
