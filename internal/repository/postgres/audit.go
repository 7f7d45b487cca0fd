package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vmaleev/bookreview/internal/models"
)

type AuditRepo struct {
	DB DBTX
}

const recordAudit = `-- name: RecordAudit
INSERT INTO audit_logs (actor_user_id, action, entity_type, entity_id, metadata, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *AuditRepo) Record(ctx context.Context, entry models.AuditEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("can't encode audit metadata: %w", err)
		}
	}

	_, err := r.DB.Exec(ctx, recordAudit,
		entry.ActorUserID, entry.Action, entry.EntityType, entry.EntityID,
		metadata, entry.IPAddress, entry.UserAgent)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const listAudit = `-- name: ListAudit
SELECT id, created_at, actor_user_id, action, entity_type, entity_id, metadata, ip_address, user_agent
FROM audit_logs
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`

func (r *AuditRepo) List(ctx context.Context, limit int, offset int) ([]models.AuditEntry, error) {
	rows, _ := r.DB.Query(ctx, listAudit, limit, offset)
	entries, err := pgx.CollectRows(rows, rowToAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

func rowToAuditEntry(row pgx.CollectableRow) (models.AuditEntry, error) {
	var e models.AuditEntry
	var metadata []byte

	err := row.Scan(
		&e.ID, &e.CreatedAt, &e.ActorUserID, &e.Action, &e.EntityType, &e.EntityID,
		&metadata, &e.IPAddress, &e.UserAgent,
	)
	if err != nil {
		return e, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return e, fmt.Errorf("can't decode audit metadata: %w", err)
		}
	}

	return e, nil
}
