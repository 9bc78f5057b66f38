package retriever

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"tour_guide_rag/internal/embedding"
	"tour_guide_rag/internal/keyword"
	"tour_guide_rag/internal/vectorstore"
)

// KnowledgeKeywords mark questions about history, culture or meaning.
var KnowledgeKeywords = []string{
	"역사", "유래", "설명", "의미", "뭐야", "무엇", "어떻게", "왜", "배경",
	"문화", "건축", "이름", "만든", "지었다", "세운", "알려", "소개",
}

const (
	vectorMinRunes     = 5
	vectorContextRunes = 200
	vectorSearchLimit  = 5
	vectorKeep         = 3
	vectorSeparator    = "\n---\n"
)

// Searcher is the read side of a vector store.
type Searcher interface {
	Search(ctx context.Context, vec []float32, limit int) ([]string, error)
}

// Vector searches the embedded tour knowledge table.
type Vector struct {
	Embedder embedding.Embedder
	Store    Searcher
	Keywords []string
}

func NewVector(e embedding.Embedder, s Searcher) *Vector {
	return &Vector{Embedder: e, Store: s, Keywords: KnowledgeKeywords}
}

func (v *Vector) Name() string { return "vector" }

func (v *Vector) ShouldRetrieve(query, tourContext string) bool {
	if v.Store == nil || v.Embedder == nil {
		return false
	}
	combined := combine(query, tourContext)
	return keyword.ContainsAny(combined, v.Keywords) ||
		utf8.RuneCountInString(strings.TrimSpace(combined)) >= vectorMinRunes
}

func (v *Vector) Retrieve(ctx context.Context, query, tourContext string) Result {
	if v.Store == nil || v.Embedder == nil {
		return Empty()
	}
	text := strings.TrimSpace(query)
	if text == "" {
		text = keyword.TruncateRunes(tourContext, vectorContextRunes)
	}
	if strings.TrimSpace(text) == "" {
		return Empty()
	}

	vec, err := v.Embedder.Embed(ctx, text)
	if err != nil {
		return Failed(fmt.Errorf("embed: %w", err))
	}
	contents, err := v.Store.Search(ctx, vec, vectorSearchLimit)
	if err != nil {
		return Failed(err)
	}

	parts := make([]string, 0, vectorKeep)
	for _, c := range contents {
		if c == "" {
			continue
		}
		parts = append(parts, c)
		if len(parts) == vectorKeep {
			break
		}
	}
	return Hit(strings.Join(parts, vectorSeparator))
}

// Search embeds text and returns up to limit raw contents, clamped to the
// store's default and maximum.
func (v *Vector) Search(ctx context.Context, text string, limit int) ([]string, error) {
	if v.Store == nil || v.Embedder == nil {
		return nil, vectorstore.ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}
	vec, err := v.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return v.Store.Search(ctx, vec, vectorstore.ClampLimit(limit))
}

var _ Searcher = (vectorstore.Store)(nil)
