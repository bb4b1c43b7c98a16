package safety

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/llm"
	"github.com/xaenox/mind-coach/internal/metrics"
	"github.com/xaenox/mind-coach/internal/models"
	"github.com/xaenox/mind-coach/internal/parser"
)

const (
	prefilterConfidence = 0.9
	keywordFloor        = models.SeverityHigh
)

const systemPrompt = `You are a clinical safety screener for a coaching product. You do not coach.
Assess the user's message for risk of harm to self or others and for acute mental health crises.

Respond with ONLY a JSON object, no prose, matching exactly:
{
  "riskLevel": "none" | "low" | "medium" | "high" | "immediate",
  "confidence": number between 0 and 1,
  "indicators": [short strings naming each risk you detected, e.g. "suicidal ideation", "self-harm", "substance abuse", "domestic violence", "psychosis", "severe depression", "panic"],
  "recommendedAction": "continue" | "escalate" | "emergency",
  "crisisResources": [strings],
  "rationale": "one sentence"
}

Rules:
- "immediate" means an active plan, intent or means for self-harm or harm to others.
- "high" means explicit ideation without an immediate plan.
- "medium" means significant distress with indirect risk language.
- "low" means ordinary stress or frustration.
- When uncertain between two levels, choose the higher one.`

type classification struct {
	RiskLevel         string   `json:"riskLevel" validate:"required,oneof=none low medium high immediate"`
	Confidence        float64  `json:"confidence" validate:"gte=0,lte=1"`
	Indicators        []string `json:"indicators"`
	RecommendedAction string   `json:"recommendedAction"`
	CrisisResources   []string `json:"crisisResources"`
	Rationale         string   `json:"rationale"`
}

// Assessment is the safety decision for one message.
type Assessment struct {
	models.CrisisIndicators
	ShouldProceed bool     `json:"shouldProceed"`
	Response      string   `json:"response,omitempty"`
	KeywordHits   []string `json:"keywordHits,omitempty"`
	Rationale     string   `json:"rationale,omitempty"`
	Resources     []string `json:"crisisResources,omitempty"`
}

type Config struct {
	Keywords    []string
	Temperature float32
	MaxTokens   int
}

// Screen gates every message before any coaching logic runs.
type Screen struct {
	backend  llm.Backend
	keywords []string
	opts     llm.Options
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewScreen(backend llm.Backend, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Screen {
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = normalize(k); k != "" {
			normalized = append(normalized, k)
		}
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.1
	}
	return &Screen{
		backend:  backend,
		keywords: normalized,
		opts:     llm.Options{Temperature: temperature, MaxTokens: cfg.MaxTokens, JSON: true},
		metrics:  m,
		logger:   logger.With(zap.String("component", "safety")),
	}
}

// Assess screens msg. It never returns an error: every failure blocks the
// turn with a counselor referral.
func (s *Screen) Assess(ctx context.Context, msg models.CoachingMessage) (result Assessment) {
	text := normalize(msg.Message)
	hits := matchKeywords(text, s.keywords)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Safety screen panicked", zap.Any("panic", r), zap.String("user_id", msg.UserID))
			result = s.failClosed(hits, llm.FailureBackend)
		}
	}()

	if len(hits) == 0 && !msg.Urgency().Elevated() && !hasIntensityMarker(text) {
		s.metrics.ObserveSafety(string(models.SeverityNone), "prefilter")
		return Assessment{
			CrisisIndicators: models.CrisisIndicators{
				Severity:          models.SeverityNone,
				Confidence:        prefilterConfidence,
				RecommendedAction: models.ActionContinue,
			},
			ShouldProceed: true,
		}
	}

	c, err := s.classify(ctx, msg.Message)
	if err != nil {
		kind := llm.Classify(err)
		s.logger.Warn("Safety classification failed, blocking turn",
			zap.Error(err),
			zap.String("failure", string(kind)),
			zap.String("user_id", msg.UserID),
			zap.Int("keyword_hits", len(hits)))
		return s.failClosed(hits, kind)
	}

	indicators := models.CrisisIndicators{
		Severity:   models.Severity(c.RiskLevel),
		Confidence: c.Confidence,
	}
	applyIndicators(&indicators, c.Indicators)
	if len(hits) > 0 {
		applyIndicators(&indicators, hits)
		indicators.Severity = indicators.Severity.Max(keywordFloor)
	}
	// An emergency call from the classifier outranks its own risk level.
	if models.RecommendedAction(c.RecommendedAction) == models.ActionEmergency {
		indicators.Severity = indicators.Severity.Max(models.SeverityImmediate)
	}
	indicators.RecommendedAction = recommendedAction(indicators.Severity)

	result = Assessment{
		CrisisIndicators: indicators,
		ShouldProceed:    proceeds(indicators.Severity),
		KeywordHits:      hits,
		Rationale:        c.Rationale,
		Resources:        c.CrisisResources,
	}
	if !result.ShouldProceed {
		result.Response = crisisResponse(indicators.Severity)
	}

	s.metrics.ObserveSafety(string(indicators.Severity), "classifier")
	if !result.ShouldProceed {
		s.logger.Warn("Safety screen blocked turn",
			zap.String("user_id", msg.UserID),
			zap.String("severity", string(indicators.Severity)),
			zap.Float64("confidence", indicators.Confidence),
			zap.Strings("keyword_hits", hits))
	}
	return result
}

func (s *Screen) classify(ctx context.Context, message string) (classification, error) {
	raw, err := s.backend.Complete(ctx, systemPrompt, []llm.Message{{Role: llm.RoleUser, Content: message}}, s.opts)
	if err != nil {
		return classification{}, fmt.Errorf("safety classification: %w", err)
	}
	return parser.Parse[classification](raw, "safety")
}

// failurePolicy is the severity assigned for each failure kind before the keyword floor.
var failurePolicy = map[llm.FailureKind]models.Severity{
	llm.FailureBackend: models.SeverityMedium,
	llm.FailureTimeout: models.SeverityMedium,
	llm.FailureParse:   models.SeverityMedium,
}

func (s *Screen) failClosed(hits []string, kind llm.FailureKind) Assessment {
	severity, ok := failurePolicy[kind]
	if !ok {
		severity = models.SeverityMedium
	}
	indicators := models.CrisisIndicators{Severity: severity}
	if len(hits) > 0 {
		applyIndicators(&indicators, hits)
		indicators.Severity = indicators.Severity.Max(keywordFloor)
	}
	indicators.RecommendedAction = recommendedAction(indicators.Severity)

	s.metrics.ObserveSafety(string(indicators.Severity), "fail_closed")
	s.metrics.ObserveFallback("safety", string(kind))
	return Assessment{
		CrisisIndicators: indicators,
		ShouldProceed:    false,
		Response:         failClosedResponse,
		KeywordHits:      hits,
	}
}

func proceeds(s models.Severity) bool {
	return s == models.SeverityNone || s == models.SeverityLow
}
