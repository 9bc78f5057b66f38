package vectorstore

import (
	"context"
	"fmt"
	"time"

	"tour_guide_rag/internal/keyword"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/rs/zerolog"
)

// Hangul takes three bytes in UTF-8; milvusContentRunes keeps content
// under milvusContentMaxLen bytes.
const (
	milvusContentMaxLen = 8192
	milvusContentRunes  = 2000
	milvusTitleMaxLen   = 512
	milvusSearchEf      = 64
)

// Milvus keeps knowledge rows in a Milvus collection with an HNSW cosine index.
type Milvus struct {
	c          client.Client
	collection string
	dim        int
	timeout    time.Duration
	log        zerolog.Logger
}

// OpenMilvus connects to address and creates and loads the collection when missing.
func OpenMilvus(ctx context.Context, address, collection string, dim int, timeout time.Duration, log zerolog.Logger) (*Milvus, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	m := &Milvus{c: c, collection: collection, dim: dim, timeout: timeout, log: log}
	if err := m.ensureCollection(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return m, nil
}

func (m *Milvus) ensureCollection(ctx context.Context) error {
	has, err := m.c.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("has collection: %w", err)
	}
	if !has {
		schema := entity.NewSchema().
			WithName(m.collection).
			WithDescription("tour knowledge embeddings").
			WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true).WithIsAutoID(true)).
			WithField(entity.NewField().WithName("source_type").WithDataType(entity.FieldTypeVarChar).WithMaxLength(32)).
			WithField(entity.NewField().WithName("tour_id").WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName("title").WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusTitleMaxLen)).
			WithField(entity.NewField().WithName("content").WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusContentMaxLen)).
			WithField(entity.NewField().WithName("embedding").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.dim)))

		if err := m.c.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, 16, 200)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		if err := m.c.CreateIndex(ctx, m.collection, "embedding", idx, false); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		m.log.Info().Str("collection", m.collection).Msg("milvus collection created")
	}
	if err := m.c.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

func (m *Milvus) Search(ctx context.Context, vec []float32, limit int) ([]string, error) {
	if len(vec) != m.dim {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimension, len(vec), m.dim)
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	sp, err := entity.NewIndexHNSWSearchParam(milvusSearchEf)
	if err != nil {
		return nil, err
	}
	results, err := m.c.Search(ctx, m.collection, nil, "", []string{"content"},
		[]entity.Vector{entity.FloatVector(vec)}, "embedding", entity.COSINE, ClampLimit(limit), sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	col, ok := results[0].Fields.GetColumn("content").(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("milvus search: content column missing")
	}
	contents := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		v, err := col.ValueByIdx(i)
		if err != nil {
			return nil, err
		}
		contents = append(contents, v)
	}
	return contents, nil
}

func (m *Milvus) ReplaceTour(ctx context.Context, tourID int64, docs []Document) error {
	if err := m.c.Delete(ctx, m.collection, "", fmt.Sprintf("tour_id == %d", tourID)); err != nil {
		return fmt.Errorf("delete tour %d: %w", tourID, err)
	}
	if len(docs) == 0 {
		return nil
	}

	var (
		types    = make([]string, 0, len(docs))
		tours    = make([]int64, 0, len(docs))
		titles   = make([]string, 0, len(docs))
		contents = make([]string, 0, len(docs))
		vectors  = make([][]float32, 0, len(docs))
	)
	for _, d := range docs {
		if len(d.Embedding) != m.dim {
			return fmt.Errorf("%w: got %d want %d", ErrDimension, len(d.Embedding), m.dim)
		}
		types = append(types, d.SourceType)
		tours = append(tours, tourID)
		titles = append(titles, keyword.TruncateRunes(d.Title, milvusTitleMaxLen/4))
		contents = append(contents, keyword.TruncateRunes(d.Content, milvusContentRunes))
		vectors = append(vectors, d.Embedding)
	}

	_, err := m.c.Insert(ctx, m.collection, "",
		entity.NewColumnVarChar("source_type", types),
		entity.NewColumnInt64("tour_id", tours),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector("embedding", m.dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("insert tour %d: %w", tourID, err)
	}
	if err := m.c.Flush(ctx, m.collection, false); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (m *Milvus) Close() error {
	return m.c.Close()
}
