// Package enrich runs the retrievers for a chat turn and merges their
// contributions into one reference block for the prompt.
package enrich

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"tour_guide_rag/internal/keyword"
	"tour_guide_rag/internal/metrics"
	"tour_guide_rag/internal/retriever"
	"tour_guide_rag/pkg"
	"tour_guide_rag/src/logger"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxChars         = 4000
	DefaultRetrieverTimeout = 20 * time.Second

	separator = "\n\n"
	ellipsis  = "…"
)

var tracer = otel.Tracer("tour_guide_rag/enrich")

type Options struct {
	// Parallel runs relevant retrievers concurrently. Merge order is unchanged.
	Parallel         bool
	MaxChars         int
	RetrieverTimeout time.Duration
	Log              zerolog.Logger
}

// Outcome is what one retriever produced for a turn.
type Outcome struct {
	Name     string
	Skipped  bool
	Result   retriever.Result
	Duration time.Duration
}

// Orchestrator consults an ordered list of retrievers.
type Orchestrator struct {
	retrievers []retriever.Retriever
	opt        Options
}

func New(retrievers []retriever.Retriever, opt Options) *Orchestrator {
	if opt.MaxChars <= 0 {
		opt.MaxChars = DefaultMaxChars
	}
	if opt.RetrieverTimeout <= 0 {
		opt.RetrieverTimeout = DefaultRetrieverTimeout
	}
	return &Orchestrator{retrievers: retrievers, opt: opt}
}

// Retrievers returns the retrievers in consultation order.
func (o *Orchestrator) Retrievers() []retriever.Retriever {
	return o.retrievers
}

// EffectiveQuery picks the text the retrievers see as the question: the last
// non-empty user turn, else query, else the tour context.
func EffectiveQuery(query, tourContext string, history []pkg.ChatTurn) string {
	if last := pkg.LastUserContent(history); last != "" {
		return last
	}
	if query != "" {
		return query
	}
	return tourContext
}

// Enrich returns the merged reference text, or "" when nothing contributed.
func (o *Orchestrator) Enrich(ctx context.Context, query, tourContext string, history []pkg.ChatTurn) string {
	ctx, span := tracer.Start(ctx, "Enrich", trace.WithAttributes(
		attribute.Int("retrievers", len(o.retrievers)),
		attribute.Bool("parallel", o.opt.Parallel),
	))
	defer span.End()

	outcomes := o.Run(ctx, EffectiveQuery(query, tourContext, history), tourContext)

	fragments := make([]string, 0, len(outcomes))
	for _, oc := range outcomes {
		if oc.Skipped || oc.Result.Kind != retriever.KindHit {
			continue
		}
		fragments = append(fragments, oc.Result.Text)
	}
	merged := Merge(fragments, o.opt.MaxChars)

	metrics.ObserveEnrichment(utf8.RuneCountInString(merged))
	span.SetAttributes(
		attribute.Int("fragments", len(fragments)),
		attribute.Int("enrichment.length", utf8.RuneCountInString(merged)),
	)
	span.SetStatus(codes.Ok, "")
	return merged
}

// Run consults every retriever for the turn and reports each outcome in
// retriever order.
func (o *Orchestrator) Run(ctx context.Context, query, tourContext string) []Outcome {
	outcomes := make([]Outcome, len(o.retrievers))
	for i, r := range o.retrievers {
		outcomes[i] = Outcome{Name: r.Name(), Skipped: !o.relevant(ctx, r, query, tourContext)}
	}

	if !o.opt.Parallel {
		for i, r := range o.retrievers {
			if !outcomes[i].Skipped {
				outcomes[i] = o.retrieve(ctx, r, query, tourContext)
			}
		}
		return outcomes
	}

	// Each goroutine writes only its own slot and never returns an error.
	var g errgroup.Group
	for i, r := range o.retrievers {
		if outcomes[i].Skipped {
			continue
		}
		g.Go(func() error {
			outcomes[i] = o.retrieve(ctx, r, query, tourContext)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) relevant(ctx context.Context, r retriever.Retriever, query, tourContext string) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log := logger.Ctx(ctx, o.opt.Log)
			log.Error().Str("retriever", r.Name()).Interface("panic", p).Msg("relevance check panicked")
			ok = false
		}
	}()
	return r.ShouldRetrieve(query, tourContext)
}

func (o *Orchestrator) retrieve(ctx context.Context, r retriever.Retriever, query, tourContext string) (out Outcome) {
	name := r.Name()
	start := time.Now()
	log := logger.Ctx(ctx, o.opt.Log)

	ctx, span := tracer.Start(ctx, "Retrieve", trace.WithAttributes(attribute.String("retriever", name)))
	ctx, cancel := context.WithTimeout(ctx, o.opt.RetrieverTimeout)

	defer func() {
		cancel()
		if p := recover(); p != nil {
			out.Result = retriever.Failed(fmt.Errorf("panic: %v", p))
			log.Error().Str("retriever", name).Str("stack", string(debug.Stack())).Msg("retriever panicked")
		}
		out.Name = name
		out.Duration = time.Since(start)

		kind := out.Result.Kind.String()
		metrics.ObserveRetriever(name, start, kind)
		span.SetAttributes(attribute.String("result", kind))
		if out.Result.Kind == retriever.KindFailed {
			span.RecordError(out.Result.Err)
			span.SetStatus(codes.Error, "retriever failed")
			log.Warn().Err(out.Result.Err).Str("retriever", name).Dur("took", out.Duration).Msg("retriever failed")
		} else {
			log.Debug().Str("retriever", name).Str("result", kind).Dur("took", out.Duration).Msg("retriever done")
		}
		span.End()
	}()

	out.Result = r.Retrieve(ctx, query, tourContext)
	return out
}

// Merge joins fragments with a blank line and caps the result at maxChars
// runes. Fragments are kept whole while they fit; the first one that does not
// is cut and suffixed with "…", and the rest are dropped.
func Merge(fragments []string, maxChars int) string {
	var b strings.Builder
	used := 0
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		sep := 0
		if b.Len() > 0 {
			sep = utf8.RuneCountInString(separator)
		}
		n := utf8.RuneCountInString(f)
		if maxChars <= 0 || used+sep+n <= maxChars {
			if sep > 0 {
				b.WriteString(separator)
			}
			b.WriteString(f)
			used += sep + n
			continue
		}

		room := maxChars - used - sep - utf8.RuneCountInString(ellipsis)
		if room > 0 {
			if sep > 0 {
				b.WriteString(separator)
			}
			b.WriteString(strings.TrimSpace(keyword.TruncateRunes(f, room)))
			b.WriteString(ellipsis)
		}
		break
	}
	return b.String()
}
