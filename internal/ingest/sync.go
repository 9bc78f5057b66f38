package ingest

import (
	"context"
	"fmt"

	"tour_guide_rag/internal/embedding"
	"tour_guide_rag/internal/metrics"
	"tour_guide_rag/internal/vectorstore"

	"github.com/rs/zerolog"
)

// Writer is the write side of a vector store.
type Writer interface {
	ReplaceTour(ctx context.Context, tourID int64, docs []vectorstore.Document) error
}

// Syncer embeds catalogue documents and replaces each tour's rows.
type Syncer struct {
	embedder embedding.Embedder
	store    Writer
	enabled  bool
	log      zerolog.Logger
}

// NewSyncer builds a Syncer. With enabled false every sync is a no-op.
func NewSyncer(e embedding.Embedder, store Writer, enabled bool, log zerolog.Logger) *Syncer {
	return &Syncer{embedder: e, store: store, enabled: enabled && e != nil && store != nil, log: log}
}

// SyncAll syncs every tour and returns the number of stored documents.
func (s *Syncer) SyncAll(ctx context.Context, c *Catalogue) (int, error) {
	if !s.enabled {
		s.log.Warn().Msg("OPENAI_API_KEY or vector store not set, skipping tour knowledge sync")
		return 0, nil
	}
	total := 0
	for _, t := range c.Tours {
		n, err := s.SyncTour(ctx, t)
		total += n
		if err != nil {
			return total, err
		}
	}
	s.log.Info().Int("embeddings", total).Int("tours", len(c.Tours)).Msg("tour knowledge sync completed")
	return total, nil
}

// SyncTour replaces the rows of one tour. A document whose embedding fails is
// skipped and not counted.
func (s *Syncer) SyncTour(ctx context.Context, t Tour) (int, error) {
	if !s.enabled {
		return 0, nil
	}

	docs := Documents(t)
	stored := make([]vectorstore.Document, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		vec, err := s.embedder.Embed(ctx, d.Content)
		if err != nil || len(vec) == 0 {
			s.log.Warn().Err(err).Str("source_type", d.SourceType).Int64("source_id", d.SourceID).Msg("embedding failed, document skipped")
			continue
		}
		d.Embedding = vec
		stored = append(stored, d)
	}

	if err := s.store.ReplaceTour(ctx, t.ID, stored); err != nil {
		return 0, fmt.Errorf("sync tour %d: %w", t.ID, err)
	}
	metrics.AddSynced(len(stored))
	s.log.Debug().Int64("tour_id", t.ID).Int("documents", len(stored)).Msg("tour synced")
	return len(stored), nil
}
