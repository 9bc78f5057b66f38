package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tour_guide_rag/src/model"

	"github.com/rs/zerolog"
)

// ErrNotConfigured means the selected backend has no connection target.
var ErrNotConfigured = errors.New("vectorstore: not configured")

// Open builds the backend named by cfg.VectorBackend.
func Open(ctx context.Context, cfg model.DatabaseConfig, dim int, log zerolog.Logger) (Store, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}
	switch backend := strings.ToLower(cfg.VectorBackend); backend {
	case "milvus":
		return OpenMilvus(ctx, cfg.MilvusAddress, cfg.MilvusCollection, dim, cfg.QueryTimeout, log)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath, dim)
	case "pgvector", "":
		return OpenPGVector(ctx, cfg.URL, dim, cfg.QueryTimeout, log)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", backend)
	}
}
