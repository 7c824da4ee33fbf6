package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
	"github.com/loomhq/resource-governor/internal/core/ports"
	"github.com/loomhq/resource-governor/internal/infrastructure/db"
)

type quotaEventRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewQuotaEventRepository creates a new instance of QuotaEventRepository.
func NewQuotaEventRepository(database *db.Database, logger *logrus.Logger) ports.QuotaEventRepository {
	return &quotaEventRepository{
		db:     database,
		logger: logger,
	}
}

// Create inserts a new quota event into the database.
func (r *quotaEventRepository) Create(ctx context.Context, event *quota.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO quota_events (
			id, org_id, action, resource, amount, used, lim, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.db.DB.ExecContext(ctx, query,
		event.ID,
		event.OrgID,
		event.Action,
		string(event.Resource),
		event.Amount,
		event.Used,
		event.Limit,
		event.Timestamp,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"org_id": event.OrgID, "action": event.Action}).WithError(err).Error("db: failed to insert quota event")
		}
		return fmt.Errorf("failed to insert quota event: %w", err)
	}
	return nil
}

// List retrieves quota events based on the provided filter, newest first.
func (r *quotaEventRepository) List(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error) {
	query, args := buildEventListQuery(filter)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithField("query", query).WithError(err).Error("db: failed to list quota events")
		}
		return nil, fmt.Errorf("failed to list quota events: %w", err)
	}
	defer rows.Close()

	var events []*quota.Event
	for rows.Next() {
		event := &quota.Event{}
		var resource string
		if err := rows.Scan(
			&event.ID,
			&event.OrgID,
			&event.Action,
			&resource,
			&event.Amount,
			&event.Used,
			&event.Limit,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quota event: %w", err)
		}
		event.Resource = quota.ResourceKind(resource)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quota events: %w", err)
	}
	return events, nil
}

func buildEventListQuery(filter *quota.EventFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, org_id, action, resource, amount, used, lim, timestamp FROM quota_events`)

	var conditions []string
	var args []any
	if filter != nil {
		if filter.OrgID != "" {
			args = append(args, filter.OrgID)
			conditions = append(conditions, "org_id = $"+strconv.Itoa(len(args)))
		}
		if filter.Action != nil {
			args = append(args, string(*filter.Action))
			conditions = append(conditions, "action = $"+strconv.Itoa(len(args)))
		}
	}
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY timestamp DESC")

	limit := 100
	if filter != nil && filter.Limit > 0 {
		limit = filter.Limit
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))

	if filter != nil && filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}
