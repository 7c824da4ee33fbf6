package ports

import (
	"context"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
)

// AlertService notifies operators when an organization hits a quota boundary.
type AlertService interface {
	SendQuotaAlert(ctx context.Context, orgID string, resource quota.ResourceKind, used, limit int64) error
}
