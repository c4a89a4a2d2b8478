// Package metadata reads the canonical resource projection used to enrich
// search results. Read-only: writes go through the ingest path.
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/repository/relational"
)

// Repo implements the metadata reader contract.
type Repo struct {
	db *sql.DB
}

// New creates a metadata repository.
func New(store *relational.Store) *Repo {
	return &Repo{db: store.DB()}
}

// FindByIDs bulk-loads resource metadata for the given id set in one query
// (plus one for tags). Missing ids are simply absent from the result map.
func (r *Repo) FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.ResourceMeta, error) {
	if len(ids) == 0 {
		return map[int64]domain.ResourceMeta{}, nil
	}

	placeholders, args := inClause(ids)

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			r.id, r.type, r.title, r.memo, r.status, r.is_pinned, r.created_at,
			l.url, l.domain,
			d.file_path, d.mime_type, d.file_size, d.sha256
		FROM resources r
		LEFT JOIN links l ON l.resource_id = r.id
		LEFT JOIN documents d ON d.resource_id = r.id
		WHERE r.id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("find resources: %w", err)
	}
	defer rows.Close()

	metas := make(map[int64]domain.ResourceMeta, len(ids))
	for rows.Next() {
		var (
			m                       domain.ResourceMeta
			isPinned                int
			createdAt               string
			url, linkDomain         sql.NullString
			filePath, mimeType, sha sql.NullString
			fileSize                sql.NullInt64
		)
		if err := rows.Scan(
			&m.ResourceID, &m.Type, &m.Title, &m.Memo, &m.Status, &isPinned, &createdAt,
			&url, &linkDomain,
			&filePath, &mimeType, &fileSize, &sha,
		); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		m.IsPinned = isPinned != 0
		if m.CreatedAt, err = relational.ParseTime(createdAt); err != nil {
			return nil, err
		}
		m.URL = url.String
		m.Domain = linkDomain.String
		m.FilePath = filePath.String
		m.MimeType = mimeType.String
		m.SHA256 = sha.String
		if fileSize.Valid {
			size := fileSize.Int64
			m.FileSize = &size
		}
		m.Tags = []string{}
		metas[m.ResourceID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find resources: %w", err)
	}

	if err := r.loadTags(ctx, metas, placeholders, args); err != nil {
		return nil, err
	}

	return metas, nil
}

// loadTags attaches the de-duplicated tag list to each resource, in stable
// name order.
func (r *Repo) loadTags(
	ctx context.Context, metas map[int64]domain.ResourceMeta,
	placeholders string, args []any,
) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT rt.resource_id, t.name
		FROM resource_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.resource_id IN (%s)
		ORDER BY t.name`, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("find tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resourceID int64
			name       string
		)
		if err := rows.Scan(&resourceID, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if m, ok := metas[resourceID]; ok {
			m.Tags = append(m.Tags, name)
			metas[resourceID] = m
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("find tags: %w", err)
	}
	return nil
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
