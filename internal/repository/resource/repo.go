// Package resource owns the write side of the metadata store. Every mutation
// commits its index-update outbox event in the same transaction, so a
// committed domain write can never lose its event.
package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/collecta-cloud/collecta/internal/domain"
	ingestrepo "github.com/collecta-cloud/collecta/internal/repository/ingest"
	outboxrepo "github.com/collecta-cloud/collecta/internal/repository/outbox"
	"github.com/collecta-cloud/collecta/internal/repository/relational"
)

// Repo implements the resource write contract.
type Repo struct {
	db *sql.DB
}

// New creates a resource repository.
func New(store *relational.Store) *Repo {
	return &Repo{db: store.DB()}
}

// CreateLink inserts a link resource with its tags, ingest job and
// resource.upserted outbox event, all in one transaction. The payload's
// ResourceID and CreatedAt are filled in once the resource row exists.
func (r *Repo) CreateLink(ctx context.Context, link domain.NewLink, linkDomain string, payload domain.IndexEventPayload) (int64, error) {
	return r.create(ctx, domain.ResourceTypeLink, link.Title, link.Memo, link.Status, link.IsPinned, link.Tags, payload,
		func(ctx context.Context, tx *sql.Tx, id int64) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO links (resource_id, url, domain) VALUES (?, ?, ?)`,
				id, link.URL, nullable(linkDomain),
			); err != nil {
				return fmt.Errorf("insert link: %w", err)
			}
			return nil
		})
}

// CreateDocument inserts a document resource the same way. File bytes are
// already stored elsewhere; only their metadata lands here.
func (r *Repo) CreateDocument(ctx context.Context, doc domain.NewDocument, payload domain.IndexEventPayload) (int64, error) {
	return r.create(ctx, domain.ResourceTypeDocument, doc.Title, doc.Memo, doc.Status, doc.IsPinned, doc.Tags, payload,
		func(ctx context.Context, tx *sql.Tx, id int64) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO documents (resource_id, file_path, mime_type, file_size, sha256)
				 VALUES (?, ?, ?, ?, ?)`,
				id, doc.FilePath, nullable(doc.MimeType), doc.FileSize, nullable(doc.SHA256),
			); err != nil {
				return fmt.Errorf("insert document: %w", err)
			}
			return nil
		})
}

// Delete removes a resource (tags, jobs and type rows cascade) and enqueues a
// resource.deleted event in the same transaction.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete resource %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("resource %d: %w", id, domain.ErrNotFound)
	}

	payload, err := json.Marshal(domain.DeleteEventPayload{ResourceID: id})
	if err != nil {
		return fmt.Errorf("marshal delete payload: %w", err)
	}
	if err := outboxrepo.EnqueueTx(ctx, tx, "resource", strconv.FormatInt(id, 10),
		domain.EventResourceDeleted, payload); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *Repo) create(
	ctx context.Context,
	resourceType, title, memo, status string, isPinned bool, tags []string,
	payload domain.IndexEventPayload,
	insertTyped func(ctx context.Context, tx *sql.Tx, id int64) error,
) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	createdAt := relational.Now()
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO resources (type, title, memo, status, is_pinned, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		resourceType, title, memo, status, boolToInt(isPinned), createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert resource: %w", err)
	}

	if err := insertTyped(ctx, tx, id); err != nil {
		return 0, err
	}

	if err := attachTags(ctx, tx, id, tags); err != nil {
		return 0, err
	}

	if err := ingestrepo.CreateTx(ctx, tx, id, resourceType, title); err != nil {
		return 0, err
	}

	payload.ResourceID = id
	payload.CreatedAt = createdAt
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal index payload: %w", err)
	}
	if err := outboxrepo.EnqueueTx(ctx, tx, "resource", strconv.FormatInt(id, 10),
		domain.EventResourceUpserted, body); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func attachTags(ctx context.Context, tx *sql.Tx, resourceID int64, tags []string) error {
	for _, name := range tags {
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name,
		); err != nil {
			return fmt.Errorf("insert tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO resource_tags (resource_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?
			ON CONFLICT DO NOTHING`,
			resourceID, name,
		); err != nil {
			return fmt.Errorf("attach tag %q: %w", name, err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
