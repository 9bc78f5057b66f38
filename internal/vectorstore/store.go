// Package vectorstore keeps tour knowledge embeddings and answers
// nearest-neighbour queries by cosine distance.
package vectorstore

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 5
	MaxLimit     = 20

	TableName = "tour_knowledge_embeddings"
)

// Source types of a knowledge row.
const (
	SourceTour      = "TOUR"
	SourceSpot      = "SPOT"
	SourceGuideLine = "GUIDE_LINE"
)

// ErrDimension is returned when a vector does not match the store dimension.
var ErrDimension = errors.New("vectorstore: dimension mismatch")

// Document is one embedded piece of tour knowledge.
type Document struct {
	SourceType string
	SourceID   int64
	TourID     int64
	SpotID     int64
	Title      string
	Content    string
	Embedding  []float32
}

// Store is implemented by every vector backend.
type Store interface {
	// Search returns the contents of the rows nearest to vec, closest first.
	Search(ctx context.Context, vec []float32, limit int) ([]string, error)
	// ReplaceTour deletes every row of tourID and inserts docs.
	ReplaceTour(ctx context.Context, tourID int64, docs []Document) error
	Close() error
}

// ClampLimit applies the default for non-positive limits and the upper bound.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// VectorLiteral renders vec in the pgvector text form "[a,b,c]".
func VectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec) * 10)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Cosine returns the cosine similarity of a and b, 0 when either is empty,
// zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
