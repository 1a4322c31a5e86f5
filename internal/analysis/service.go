// Package analysis orchestrates a token analysis: market-data lookup, prompt
// construction and model inference. The service holds no per-call state.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/irfndi/tokenscope/internal/llm"
	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/marketdata"
	"github.com/irfndi/tokenscope/internal/models"
	"github.com/irfndi/tokenscope/internal/telemetry"
	"github.com/irfndi/tokenscope/internal/utils"
)

// MarketData looks up the live trading pair for a token.
type MarketData interface {
	LookupToken(ctx context.Context, address string) (models.MarketSnapshot, error)
}

// Inference runs a single system and user chat completion.
type Inference interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analyzer is implemented by Service and consumed by the HTTP handler.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Service is the analysis orchestrator. It never retries; retry policy
// belongs to the caller.
type Service struct {
	market          MarketData
	model           Inference
	modelConfigured bool
	logger          logrus.FieldLogger
}

// NewService creates the orchestrator. modelConfigured reflects whether the
// model credential was present at startup.
func NewService(market MarketData, model Inference, modelConfigured bool, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		market:          market,
		model:           model,
		modelConfigured: modelConfigured,
		logger:          logging.WithComponent(logger, "analysis"),
	}
}

// ModelConfigured reports whether inference can be attempted.
func (s *Service) ModelConfigured() bool {
	return s.modelConfigured
}

// Analyze validates the request, fetches the market snapshot and asks the
// model for a narrative. Failures are returned as *Error.
func (s *Service) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetAnalysisTracer(), "analysis.analyze")
	defer span.End()

	start := time.Now()
	result, err := s.analyze(ctx, req)

	log := logging.WithOperation(s.logger, "analyze").WithFields(logrus.Fields{
		"token":       logging.ShortToken(strings.TrimSpace(req.TokenIdentifier)),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		kind := KindOf(err)
		span.SetAttributes(telemetry.StringAttribute("analysis.error_kind", string(kind)))
		telemetry.RecordError(span, err)
		entry := log.WithField("kind", kind).WithError(err)
		switch kind {
		case KindInvalidInput, KindNotFound, KindCancelled:
			entry.Info("Analysis rejected")
		default:
			entry.Error("Analysis failed")
		}
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	log.WithField("symbol", result.Snapshot.Symbol).Info("Analysis completed")
	return result, nil
}

func (s *Service) analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	address, err := utils.ValidateTokenAddress(req.TokenIdentifier)
	if err != nil {
		return nil, invalidInput(err)
	}
	if !s.modelConfigured {
		return nil, misconfigured()
	}

	snapshot, err := s.lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	userMessage, err := BuildUserMessage(snapshot, req.UserPrompt)
	if err != nil {
		return nil, inferenceFailed(llm.ProviderName, err)
	}

	narrative, err := s.infer(ctx, userMessage)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisResult{
		NarrativeText: narrative,
		Snapshot:      snapshot,
	}, nil
}

func (s *Service) lookup(ctx context.Context, address string) (models.MarketSnapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetExternalTracer(), "marketdata.lookup",
		telemetry.StringAttribute("token", logging.ShortToken(address)))
	defer span.End()

	snapshot, err := s.market.LookupToken(ctx, address)
	if err == nil {
		span.SetAttributes(telemetry.StringAttribute("token.symbol", snapshot.Symbol))
		return snapshot, nil
	}
	telemetry.RecordError(span, err)

	var statusErr *marketdata.StatusError
	switch {
	case isCancellation(ctx, err):
		return models.MarketSnapshot{}, cancelled(err)
	case errors.Is(err, marketdata.ErrNoPairs):
		return models.MarketSnapshot{}, notFound(err)
	case errors.As(err, &statusErr):
		span.SetAttributes(telemetry.Int64Attribute("http.status_code", int64(statusErr.StatusCode)))
		return models.MarketSnapshot{}, upstreamUnavailable(marketdata.ProviderName, statusErr.StatusCode, err)
	default:
		return models.MarketSnapshot{}, upstreamUnavailable(marketdata.ProviderName, 0, err)
	}
}

func (s *Service) infer(ctx context.Context, userMessage string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetExternalTracer(), "llm.complete")
	defer span.End()

	text, err := s.model.Complete(ctx, SystemPrompt, userMessage)
	if err != nil {
		telemetry.RecordError(span, err)
		if isCancellation(ctx, err) {
			return "", cancelled(err)
		}
		return "", inferenceFailed(llm.ProviderName, err)
	}

	if strings.TrimSpace(text) == "" {
		span.SetAttributes(telemetry.BoolAttribute("llm.fallback", true))
		return FallbackNarrative, nil
	}
	return text, nil
}
