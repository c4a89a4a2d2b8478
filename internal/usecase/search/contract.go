package search

import (
	"context"

	"github.com/collecta-cloud/collecta/internal/domain"
	"github.com/collecta-cloud/collecta/internal/domain/search/query"
	"github.com/collecta-cloud/collecta/internal/domain/search/result"
)

// ChunkIndex runs candidate-window queries against the chunk index.
type ChunkIndex interface {
	SearchChunks(ctx context.Context, q query.Query) ([]result.Hit, error)
}

// MetaReader bulk-loads the canonical resource projection for one page.
type MetaReader interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]domain.ResourceMeta, error)
}

// Embedder vectorizes the query text for vector and hybrid modes.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
