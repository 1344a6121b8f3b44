package audits

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

// Repository appends download-audit records. The audit log is insert-only;
// there are no update or delete operations.
type Repository interface {
	Create(ctx context.Context, audit *models.DownloadAudit) error
}
