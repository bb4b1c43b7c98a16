package diagnostic

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
	historyLimit     = 6
	fallbackResponse = "Thank you for sharing that with me. I'd like to understand a little more. " +
		"What feels most important to you about this right now?"
)

// Result is the assessor's answer for one turn.
type Result struct {
	Response            string                         `json:"response"`
	Type                string                         `json:"type"`
	Strategy            string                         `json:"strategy"`
	Confidence          float64                        `json:"confidence"`
	AssessmentInsights  models.PsychologicalAssessment `json:"assessmentInsights"`
	FollowUpSuggestions []string                       `json:"followUpSuggestions"`
}

type assessmentOutput struct {
	Autonomy             *float64           `json:"autonomy" validate:"omitempty,gte=1,lte=5"`
	Competence           *float64           `json:"competence" validate:"omitempty,gte=1,lte=5"`
	Relatedness          *float64           `json:"relatedness" validate:"omitempty,gte=1,lte=5"`
	MindsetScore         *float64           `json:"mindsetScore" validate:"omitempty,gte=1,lte=5"`
	LocusScore           *float64           `json:"locusScore" validate:"omitempty,gte=1,lte=5"`
	RegulatoryFocusScore *float64           `json:"regulatoryFocusScore" validate:"omitempty,gte=1,lte=5"`
	RiskFactors          map[string]float64 `json:"riskFactors"`
	ChangeReadiness      string             `json:"changeReadiness" validate:"omitempty,oneof=precontemplation contemplation preparation action maintenance"`
}

type output struct {
	Type                string           `json:"type" validate:"required,oneof=diagnostic_question reflection_prompt assessment_summary"`
	Response            string           `json:"response" validate:"required"`
	Strategy            string           `json:"strategy" validate:"required"`
	Confidence          float64          `json:"confidence" validate:"gte=0,lte=1"`
	Assessment          assessmentOutput `json:"assessment"`
	FollowUpSuggestions []string         `json:"followUpSuggestions"`
}

type Config struct {
	Temperature float32
	MaxTokens   int
}

// Assessor produces a psychological assessment delta from a message, the
// stored profile and recent history. It never writes to the profile.
type Assessor struct {
	backend llm.Backend
	opts    llm.Options
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAssessor(backend llm.Backend, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Assessor {
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	return &Assessor{
		backend: backend,
		opts:    llm.Options{Temperature: temperature, MaxTokens: cfg.MaxTokens, JSON: true},
		metrics: m,
		logger:  logger.With(zap.String("component", "diagnostic")),
	}
}

// Assess never fails; backend and parse problems degrade to a fixed empathetic reply.
func (a *Assessor) Assess(ctx context.Context, message string, profile *models.UserProfile, history []string) Result {
	messages := append(llm.History(history, historyLimit), llm.Message{Role: llm.RoleUser, Content: message})

	raw, err := a.backend.Complete(ctx, buildSystemPrompt(profile), messages, a.opts)
	if err != nil {
		return a.fallback(fmt.Errorf("diagnostic completion: %w", err))
	}
	out, err := parser.Parse[output](raw, "diagnostic", parser.WithRepair())
	if err != nil {
		return a.fallback(err)
	}

	return Result{
		Response:            out.Response,
		Type:                out.Type,
		Strategy:            out.Strategy,
		Confidence:          out.Confidence,
		AssessmentInsights:  toAssessment(out.Assessment),
		FollowUpSuggestions: out.FollowUpSuggestions,
	}
}

func toAssessment(o assessmentOutput) models.PsychologicalAssessment {
	a := models.PsychologicalAssessment{
		MindsetScore:         o.MindsetScore,
		LocusScore:           o.LocusScore,
		RegulatoryFocusScore: o.RegulatoryFocusScore,
		RiskFactors:          o.RiskFactors,
		ChangeReadiness:      models.ChangeReadiness(o.ChangeReadiness),
	}
	if o.Autonomy != nil && o.Competence != nil && o.Relatedness != nil {
		a.Motivation = &models.Motivation{
			Autonomy:    *o.Autonomy,
			Competence:  *o.Competence,
			Relatedness: *o.Relatedness,
		}
	}
	return a
}

var fallbackPolicy = map[llm.FailureKind]func() Result{
	llm.FailureBackend: empatheticFallback,
	llm.FailureTimeout: empatheticFallback,
	llm.FailureParse:   empatheticFallback,
}

func empatheticFallback() Result {
	return Result{
		Response:   fallbackResponse,
		Type:       "diagnostic_question",
		Strategy:   "empathetic_fallback",
		Confidence: 0.5,
		FollowUpSuggestions: []string{
			"What would you most like to change?",
			"What has been on your mind lately?",
		},
	}
}

func (a *Assessor) fallback(err error) Result {
	kind := llm.Classify(err)
	a.logger.Warn("Diagnostic assessment failed, using fallback",
		zap.Error(err),
		zap.String("failure", string(kind)))
	a.metrics.ObserveFallback("diagnostic", string(kind))

	build, ok := fallbackPolicy[kind]
	if !ok {
		build = empatheticFallback
	}
	return build()
}
