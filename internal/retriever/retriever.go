// Package retriever holds the context sources consulted for each chat turn.
package retriever

import (
	"context"
	"strings"
)

// Retriever is one source of supplementary context.
type Retriever interface {
	Name() string
	// ShouldRetrieve is a cheap relevance check with no network calls.
	ShouldRetrieve(query, tourContext string) bool
	// Retrieve never panics and never returns an error; failures are reported as KindFailed.
	Retrieve(ctx context.Context, query, tourContext string) Result
}

// Kind classifies a retrieval outcome.
type Kind int

const (
	KindEmpty Kind = iota
	KindHit
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindHit:
		return "hit"
	case KindFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Result is the typed outcome of Retrieve.
type Result struct {
	Kind Kind
	Text string
	Err  error
}

// Hit wraps text; blank text becomes Empty.
func Hit(text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Empty()
	}
	return Result{Kind: KindHit, Text: text}
}

func Empty() Result {
	return Result{Kind: KindEmpty}
}

func Failed(err error) Result {
	return Result{Kind: KindFailed, Err: err}
}

// combine joins query and tour context the way every relevance check sees them.
func combine(query, tourContext string) string {
	return query + " " + tourContext
}
