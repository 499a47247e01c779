// Package repository persists generation outcomes: document records, case
// status transitions and the audit trail.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanrose/claimdocs/internal/model"
)

// Repository wraps the Postgres writes performed after a letter is published.
type Repository struct {
	DB *pgxpool.Pool
}

// DocumentRecord describes a published letter row. Name is unique per contact
// so regenerating a letter replaces its link instead of accumulating rows.
type DocumentRecord struct {
	ContactID int64
	Name      string
	Type      string
	Category  string
	URL       string
	Size      string
	Tags      []string
}

// UpsertDocument inserts the document row, or refreshes only the signed URL
// and timestamp when the contact already has a document with that name.
func (r *Repository) UpsertDocument(ctx context.Context, rec DocumentRecord) (string, error) {
	var outID string
	err := r.DB.QueryRow(ctx, `
		INSERT INTO documents (id, contact_id, name, type, category, url, size, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (contact_id, name) DO UPDATE
		SET url = EXCLUDED.url, updated_at = NOW()
		RETURNING id
	`, uuid.NewString(), rec.ContactID, rec.Name, rec.Type, rec.Category, rec.URL, rec.Size, rec.Tags).Scan(&outID)
	if err != nil {
		return "", fmt.Errorf("upsert document %q for contact %d: %w", rec.Name, rec.ContactID, err)
	}
	return outID, nil
}

// UpdateCaseStatus moves the case to the given status. markAuthority also
// flips authority_generated, recorded only for authority letters.
func (r *Repository) UpdateCaseStatus(ctx context.Context, caseID int64, status model.CaseStatus, markAuthority bool) error {
	var err error
	if markAuthority {
		_, err = r.DB.Exec(ctx, `
			UPDATE cases SET status = $1, authority_generated = TRUE, updated_at = NOW()
			WHERE id = $2
		`, string(status), caseID)
	} else {
		_, err = r.DB.Exec(ctx, `
			UPDATE cases SET status = $1, updated_at = NOW()
			WHERE id = $2
		`, string(status), caseID)
	}
	if err != nil {
		return fmt.Errorf("update case %d status to %q: %w", caseID, status, err)
	}
	return nil
}

// AuditEntry is one row in the contact's activity feed.
type AuditEntry struct {
	ContactID   int64
	ActionType  string
	Category    string
	Description string
	Metadata    map[string]any
}

// AppendAuditLog records the generation event. A failed audit write is logged
// and swallowed; the letter has already shipped and must not be rolled back
// over bookkeeping.
func (r *Repository) AppendAuditLog(ctx context.Context, entry AuditEntry) {
	var meta []byte
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			log.Printf("audit log: encode metadata for contact %d: %v", entry.ContactID, err)
			return
		}
		meta = encoded
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO action_logs (id, client_id, actor_type, actor_id, actor_name, action_type, action_category, description, metadata, created_at)
		VALUES ($1, $2, 'system', 'claimdocs', 'Document Pipeline', $3, $4, $5, $6, $7)
	`, uuid.NewString(), entry.ContactID, entry.ActionType, entry.Category, entry.Description, meta, time.Now())
	if err != nil {
		log.Printf("audit log: append for contact %d: %v", entry.ContactID, err)
	}
}

// PendingCases returns the ids of cases with no authority letter generated
// yet. Used by the sweep command.
func (r *Repository) PendingCases(ctx context.Context) ([]int64, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id FROM cases WHERE authority_generated = FALSE ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending cases: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending case: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
