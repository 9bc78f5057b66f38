package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// knowledgeRow mirrors the table shared with the admin backend. The
// embedding column is written through a ::vector cast and never scanned.
type knowledgeRow struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	SourceType string `gorm:"size:32;not null"`
	SourceID   int64
	TourID     int64 `gorm:"index:idx_tke_tour"`
	SpotID     int64
	Content    string `gorm:"type:text;not null"`
	Title      string `gorm:"size:512"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (knowledgeRow) TableName() string { return TableName }

// PGVector stores knowledge rows in Postgres with the pgvector extension.
type PGVector struct {
	db      *gorm.DB
	dim     int
	timeout time.Duration
	log     zerolog.Logger
}

// OpenPGVector connects to dsn and makes sure the table and HNSW index exist.
func OpenPGVector(ctx context.Context, dsn string, dim int, timeout time.Duration, log zerolog.Logger) (*PGVector, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := &PGVector{db: db, dim: dim, timeout: timeout, log: log}
	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PGVector) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		s.log.Warn().Err(err).Msg("could not create vector extension")
	}
	if err := db.AutoMigrate(&knowledgeRow{}); err != nil {
		return err
	}
	if err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS embedding vector(%d)", TableName, s.dim)).Error; err != nil {
		return err
	}
	if err := db.Exec(fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_tour_knowledge_embeddings_vector ON %s USING hnsw (embedding vector_cosine_ops)",
		TableName)).Error; err != nil {
		s.log.Debug().Err(err).Msg("hnsw index not created")
	}
	return nil
}

func (s *PGVector) Search(ctx context.Context, vec []float32, limit int) ([]string, error) {
	if len(vec) != s.dim {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimension, len(vec), s.dim)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var contents []string
	err := s.db.WithContext(ctx).Raw(
		"SELECT content FROM "+TableName+" WHERE embedding IS NOT NULL ORDER BY embedding <=> ?::vector LIMIT ?",
		VectorLiteral(vec), ClampLimit(limit),
	).Scan(&contents).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return contents, nil
}

func (s *PGVector) ReplaceTour(ctx context.Context, tourID int64, docs []Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tour_id = ?", tourID).Delete(&knowledgeRow{}).Error; err != nil {
			return fmt.Errorf("delete tour %d: %w", tourID, err)
		}
		for _, d := range docs {
			if len(d.Embedding) != s.dim {
				return fmt.Errorf("%w: got %d want %d", ErrDimension, len(d.Embedding), s.dim)
			}
			err := tx.Exec(
				"INSERT INTO "+TableName+
					" (source_type, source_id, tour_id, spot_id, content, title, embedding, created_at, updated_at)"+
					" VALUES (?, ?, ?, ?, ?, ?, ?::vector, now(), now())",
				d.SourceType, d.SourceID, tourID, d.SpotID, d.Content, d.Title, VectorLiteral(d.Embedding),
			).Error
			if err != nil {
				return fmt.Errorf("insert %s %d: %w", d.SourceType, d.SourceID, err)
			}
		}
		return nil
	})
}

func (s *PGVector) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
