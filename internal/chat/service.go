// Package chat answers a tour guide chat turn with an enriched prompt.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tour_guide_rag/internal/metrics"
	"tour_guide_rag/pkg"
	"tour_guide_rag/src/conversation"
	"tour_guide_rag/src/logger"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTimeout = 30 * time.Second

// Chat outcomes, used as metric labels.
const (
	OutcomeOK       = "ok"
	OutcomeDisabled = "disabled"
	OutcomeError    = "error"
	OutcomeEmpty    = "empty"
)

var tracer = otel.Tracer("tour_guide_rag/chat")

// Enricher supplies retrieved reference text for a turn.
type Enricher interface {
	Enrich(ctx context.Context, query, tourContext string, history []pkg.ChatTurn) string
}

type Options struct {
	MaxHistoryTurns int
	Timeout         time.Duration
	Log             zerolog.Logger
}

// turnInput is what flows into the chain for one turn.
type turnInput struct {
	TourContext string
	Enrichment  string
	History     []pkg.ChatTurn
}

// Service is the tour guide chat. A nil model leaves it disabled.
type Service struct {
	chain    compose.Runnable[*turnInput, *schema.Message]
	enricher Enricher
	strategy conversation.ContextStrategy
	timeout  time.Duration
	log      zerolog.Logger
}

// NewService compiles the chain: message builder, then chat model.
func NewService(ctx context.Context, cm einomodel.BaseChatModel, enricher Enricher, opt Options) (*Service, error) {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	s := &Service{
		enricher: enricher,
		strategy: conversation.NewHistoryStrategy(opt.MaxHistoryTurns),
		timeout:  opt.Timeout,
		log:      opt.Log,
	}
	if cm == nil {
		return s, nil
	}

	// Messages are built in a lambda rather than a prompt template so braces
	// in tour context or retrieved text are never parsed as placeholders.
	chain, err := compose.NewChain[*turnInput, *schema.Message]().
		AppendLambda(compose.InvokableLambda(s.buildMessages)).
		AppendChatModel(cm).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating Eino chain: %w", err)
	}
	s.chain = chain
	return s, nil
}

// Enabled reports whether a chat model is wired.
func (s *Service) Enabled() bool {
	return s.chain != nil
}

// Chat answers one turn. It always returns displayable text; failures are
// logged and mapped to fixed messages.
func (s *Service) Chat(ctx context.Context, tourContext string, history []pkg.ChatTurn) pkg.ChatResponse {
	if !s.Enabled() {
		metrics.IncChat(OutcomeDisabled)
		return pkg.ChatResponse{Text: DisabledMessage}
	}

	log := logger.Ctx(ctx, s.log)
	ctx, span := tracer.Start(ctx, "Chat", trace.WithAttributes(
		attribute.Int("history.length", len(history)),
		attribute.Int("tour_context.length", len(tourContext)),
	))
	defer span.End()

	var enrichment string
	if s.enricher != nil {
		enrichment = s.enricher.Enrich(ctx, "", tourContext, history)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	msg, err := s.chain.Invoke(callCtx, &turnInput{
		TourContext: tourContext,
		Enrichment:  enrichment,
		History:     history,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat model call failed")
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("chat model call failed")
		metrics.IncChat(OutcomeError)
		return pkg.ChatResponse{Text: ErrorMessage}
	}

	text := ""
	if msg != nil {
		text = strings.TrimSpace(msg.Content)
	}
	if text == "" {
		metrics.IncChat(OutcomeEmpty)
		span.SetStatus(codes.Ok, "empty answer")
		return pkg.ChatResponse{Text: EmptyMessage}
	}

	log.Info().
		Int("enrichment_chars", len([]rune(enrichment))).
		Int("answer_chars", len([]rune(text))).
		Dur("took", time.Since(start)).
		Msg("chat answered")
	metrics.IncChat(OutcomeOK)
	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "")
	return pkg.ChatResponse{Text: text}
}

func (s *Service) buildMessages(ctx context.Context, in *turnInput) ([]*schema.Message, error) {
	history := s.strategy.BuildMessages(in.History)
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(SystemMessage(in.TourContext, in.Enrichment)))
	messages = append(messages, history...)

	if s.log.GetLevel() <= zerolog.DebugLevel {
		log := logger.Ctx(ctx, s.log)
		log.Debug().Str("messages", conversation.Transcript(messages)).Msg("chat prompt")
	}
	return messages, nil
}
