package intervention

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/llm"
	"github.com/xaenox/mind-coach/internal/metrics"
	"github.com/xaenox/mind-coach/internal/models"
	"github.com/xaenox/mind-coach/internal/parser"
)

const microHabitCount = 5

type Config struct {
	Temperature float32
	MaxTokens   int
}

// Prescriber turns an assessment into a concrete plan and keeps it current as
// the user reports back.
type Prescriber struct {
	backend llm.Backend
	opts    llm.Options
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewPrescriber(backend llm.Backend, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Prescriber {
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	return &Prescriber{
		backend: backend,
		opts:    llm.Options{Temperature: temperature, MaxTokens: cfg.MaxTokens, JSON: true},
		metrics: m,
		logger:  logger.With(zap.String("component", "intervention")),
	}
}

// Prescribe selects and tailors one intervention. The model picks the category.
func (p *Prescriber) Prescribe(ctx context.Context, message string, profile *models.UserProfile, assessment models.PsychologicalAssessment, goals []models.Goal) models.Intervention {
	user := buildPrescribeContext(message, profile, assessment, goals)
	out, err := complete[models.Intervention](ctx, p, "intervention", prescribePrompt, user)
	if err != nil {
		kind := p.recordFailure("prescribe", err)
		return prescribeFallbacks[kind](goalFor(message, goals))
	}
	return out
}

// Adapt revises previous in the requested direction. On any failure the
// original intervention is returned as is.
func (p *Prescriber) Adapt(ctx context.Context, previous models.Intervention, feedback string, direction models.AdaptationDirection) models.Intervention {
	if !direction.Valid() {
		direction = models.DirectionDifferentApproach
	}
	user := buildAdaptContext(previous, feedback, direction)
	out, err := complete[models.Intervention](ctx, p, "adaptation", adaptPrompt, user)
	if err != nil {
		p.recordFailure("adapt", err)
		return previous
	}
	return out
}

type microHabitsOutput struct {
	Habits []string `json:"habits" validate:"min=5,dive,required"`
}

// MicroHabits returns exactly five sub-two-minute habits for goal.
func (p *Prescriber) MicroHabits(ctx context.Context, goal string, profile *models.UserProfile) []string {
	out, err := complete[microHabitsOutput](ctx, p, "micro habits", microHabitsPrompt, buildMicroHabitsContext(goal, profile))
	if err != nil {
		p.recordFailure("micro_habits", err)
		return append([]string(nil), defaultMicroHabits...)
	}
	habits := make([]string, 0, microHabitCount)
	for _, h := range out.Habits[:microHabitCount] {
		habits = append(habits, strings.TrimSpace(h))
	}
	return habits
}

type reflectionOutput struct {
	NextTask        models.Microtask `json:"nextTask"`
	MomentumMirror  string           `json:"momentumMirror" validate:"required"`
	DashboardTeaser string           `json:"dashboardTeaser" validate:"required"`
}

// Reflect closes a reflection cycle: it adapts the previous task and writes the
// momentum mirror and dashboard teaser.
func (p *Prescriber) Reflect(ctx context.Context, previous models.Microtask, reflection string, direction models.AdaptationDirection, profile *models.UserProfile, reflectionID string) models.ReflectionResult {
	if !direction.Valid() {
		direction = InferDirection(reflection)
	}
	out, err := complete[reflectionOutput](ctx, p, "reflection", reflectPrompt, buildReflectContext(previous, reflection, direction, profile))
	if err != nil {
		kind := p.recordFailure("reflect", err)
		result := reflectFallbacks[kind](previous)
		result.ReflectionID = reflectionID
		return result
	}
	return models.ReflectionResult{
		ReflectionID:    reflectionID,
		NextTask:        out.NextTask,
		MomentumMirror:  out.MomentumMirror,
		DashboardTeaser: out.DashboardTeaser,
	}
}

// FirstStep turns the first micro-habit into the user's current task.
func FirstStep(goal string, habits []string) models.Microtask {
	task := defaultMicroHabits[0]
	if len(habits) > 0 && habits[0] != "" {
		task = habits[0]
	}
	rationale := "Starting with a step this small makes it easy to begin today and build momentum."
	if goal != "" {
		rationale = fmt.Sprintf("A step this small makes it easy to start on %q today and build momentum.", goal)
	}
	return models.Microtask{Rationale: rationale, Task: task}
}

var (
	struggleMarkers = regexp.MustCompile(`\b(didn'?t|did not|couldn'?t|could not|wasn'?t|was not|isn'?t|never|not (?:done|finished|completed|easy)|too hard|too much|struggled|forgot|skipped|gave up|abandoned|no time)\b`)
	successMarkers  = regexp.MustCompile(`\b(too easy|easy|done|completed|finished|did it|nailed)\b`)
)

// InferDirection guesses how to adjust the next task from the user's
// reflection. Struggle wins over success so negated phrasing reads as easier.
func InferDirection(reflection string) models.AdaptationDirection {
	text := strings.ReplaceAll(strings.ToLower(reflection), "’", "'")
	switch {
	case struggleMarkers.MatchString(text):
		return models.DirectionEasier
	case successMarkers.MatchString(text):
		return models.DirectionHarder
	}
	return models.DirectionDifferentApproach
}

func complete[T any](ctx context.Context, p *Prescriber, name, systemPrompt, user string) (T, error) {
	var zero T
	raw, err := p.backend.Complete(ctx, systemPrompt, []llm.Message{{Role: llm.RoleUser, Content: user}}, p.opts)
	if err != nil {
		return zero, fmt.Errorf("%s completion: %w", name, err)
	}
	return parser.Parse[T](raw, name, parser.WithRepair())
}

func (p *Prescriber) recordFailure(op string, err error) llm.FailureKind {
	kind := llm.Classify(err)
	p.logger.Warn("Intervention step failed, using fallback",
		zap.String("operation", op),
		zap.String("failure", string(kind)),
		zap.Error(err))
	p.metrics.ObserveFallback("intervention_"+op, string(kind))
	return kind
}

func goalFor(message string, goals []models.Goal) string {
	if len(goals) > 0 && goals[0].Title != "" {
		return goals[0].Title
	}
	return message
}
