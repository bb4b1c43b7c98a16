// Package router dispatches a screened coaching message to the stages its
// session type calls for. It keeps no per-user state of its own.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/diagnostic"
	"github.com/xaenox/mind-coach/internal/intervention"
	"github.com/xaenox/mind-coach/internal/models"
	"github.com/xaenox/mind-coach/internal/snapshot"
	"github.com/xaenox/mind-coach/internal/storage"
)

// Outcome is what a route produced. Update, when set, is merged into the
// user's profile by the caller.
type Outcome struct {
	Type       string
	Content    string
	Strategy   string
	Confidence float64
	Chain      string
	Payload    any
	Update     *models.ProfileUpdate
}

// InterventionPayload is returned for the intervention route.
type InterventionPayload struct {
	Intervention models.Intervention            `json:"intervention"`
	Assessment   models.PsychologicalAssessment `json:"assessment"`
}

// HabitsPayload is returned for the goal setting route.
type HabitsPayload struct {
	Goal      string           `json:"goal"`
	Habits    []string         `json:"habits"`
	FirstStep models.Microtask `json:"firstStep"`
}

type Router struct {
	assessor   *diagnostic.Assessor
	prescriber *intervention.Prescriber
	store      storage.Store
	now        func() time.Time
	logger     *zap.Logger
}

func New(assessor *diagnostic.Assessor, prescriber *intervention.Prescriber, store storage.Store, logger *zap.Logger) *Router {
	return &Router{
		assessor:   assessor,
		prescriber: prescriber,
		store:      store,
		now:        time.Now,
		logger:     logger.With(zap.String("component", "router")),
	}
}

// Validate checks the context a route needs before anything is called or
// written on the user's behalf.
func (r *Router) Validate(msg models.CoachingMessage) error {
	c := msg.Context
	switch msg.SessionType() {
	case models.SessionOnboardingDiagnostic:
		if c == nil || c.OnboardingAnswers == nil {
			return models.NewValidationError("onboardingAnswers are required for onboarding_diagnostic")
		}
	case models.SessionReflection:
		if c == nil || c.PreviousTask == nil || strings.TrimSpace(c.PreviousTask.Task) == "" {
			return models.NewValidationError("previousTask is required for reflection")
		}
		if strings.TrimSpace(c.ReflectionID) == "" {
			return models.NewValidationError("reflectionId is required for reflection")
		}
	}
	return nil
}

// Dispatch runs the route for msg's session type. The message must already
// have passed validation and the safety screen.
func (r *Router) Dispatch(ctx context.Context, msg models.CoachingMessage, profile *models.UserProfile) (Outcome, error) {
	if err := r.Validate(msg); err != nil {
		return Outcome{}, err
	}
	switch msg.SessionType() {
	case models.SessionOnboardingDiagnostic:
		return r.onboarding(ctx, msg, profile)
	case models.SessionSnapshotGeneration:
		return r.snapshot(ctx, msg.UserID)
	case models.SessionDiagnostic:
		return r.diagnostic(ctx, msg, profile), nil
	case models.SessionIntervention:
		return r.intervention(ctx, msg, profile), nil
	case models.SessionGoalSetting:
		return r.goalSetting(ctx, msg, profile)
	case models.SessionReflection:
		return r.reflection(ctx, msg, profile)
	}
	return Outcome{}, models.NewValidationError(fmt.Sprintf("unknown sessionType %q", msg.SessionType()))
}

func (r *Router) onboarding(ctx context.Context, msg models.CoachingMessage, profile *models.UserProfile) (Outcome, error) {
	answers := *msg.Context.OnboardingAnswers

	data := snapshot.Generate(answers, profile)
	stored := models.StoredSnapshot{SnapshotData: data, GeneratedAt: r.now().UTC()}
	if err := storage.PutJSON(ctx, r.store, storage.SnapshotKey(msg.UserID), stored); err != nil {
		return Outcome{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := storage.PutJSON(ctx, r.store, storage.OnboardingKey(msg.UserID), answers); err != nil {
		return Outcome{}, fmt.Errorf("failed to save onboarding answers: %w", err)
	}

	r.logger.Info("Generated onboarding snapshot",
		zap.String("user_id", msg.UserID),
		zap.String("archetype", data.Archetype))

	return Outcome{
		Type:       models.ResponseSnapshot,
		Content:    data.NarrativeSummary,
		Strategy:   "onboarding_snapshot",
		Confidence: 1,
		Chain:      string(models.SessionOnboardingDiagnostic),
		Payload:    stored,
		Update:     &models.ProfileUpdate{PsychologicalProfile: profileFromAnswers(answers)},
	}, nil
}

func (r *Router) snapshot(ctx context.Context, userID string) (Outcome, error) {
	stored, err := storage.GetJSON[models.StoredSnapshot](ctx, r.store, storage.SnapshotKey(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return Outcome{}, models.NewNotFoundError("no snapshot found, complete onboarding first")
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return Outcome{
		Type:       models.ResponseSnapshot,
		Content:    stored.NarrativeSummary,
		Strategy:   "stored_snapshot",
		Confidence: 1,
		Chain:      string(models.SessionSnapshotGeneration),
		Payload:    stored,
	}, nil
}

func (r *Router) diagnostic(ctx context.Context, msg models.CoachingMessage, profile *models.UserProfile) Outcome {
	res := r.assessor.Assess(ctx, msg.Message, profile, msg.History())
	out := Outcome{
		Type:       res.Type,
		Content:    res.Response,
		Strategy:   res.Strategy,
		Confidence: res.Confidence,
		Chain:      string(models.SessionDiagnostic),
		Payload:    res,
	}
	if m := res.AssessmentInsights.Motivation; m != nil {
		motivation := *m
		out.Update = &models.ProfileUpdate{PsychologicalProfile: &models.PsychologicalProfile{Motivation: &motivation}}
	}
	return out
}

func (r *Router) intervention(ctx context.Context, msg models.CoachingMessage, profile *models.UserProfile) Outcome {
	if msg.Context != nil && msg.Context.PreviousIntervention != nil {
		return r.adapt(ctx, msg)
	}
	res := r.assessor.Assess(ctx, msg.Message, profile, msg.History())
	var goals []models.Goal
	if msg.Context != nil {
		goals = msg.Context.Goals
		if len(goals) == 0 && msg.Context.CurrentGoal != "" {
			goals = []models.Goal{{Title: msg.Context.CurrentGoal}}
		}
	}
	plan := r.prescriber.Prescribe(ctx, msg.Message, profile, res.AssessmentInsights, goals)
	return Outcome{
		Type:       models.ResponseIntervention,
		Content:    plan.Content,
		Strategy:   plan.Strategy,
		Confidence: plan.Confidence,
		Chain:      "diagnostic+intervention",
		Payload:    InterventionPayload{Intervention: plan, Assessment: res.AssessmentInsights},
	}
}

// adapt revises a plan the user already has, treating the message as feedback.
func (r *Router) adapt(ctx context.Context, msg models.CoachingMessage) Outcome {
	c := msg.Context
	direction := c.AdaptationDirection
	if !direction.Valid() {
		direction = intervention.InferDirection(msg.Message)
	}
	plan := r.prescriber.Adapt(ctx, *c.PreviousIntervention, msg.Message, direction)
	return Outcome{
		Type:       models.ResponseIntervention,
		Content:    plan.Content,
		Strategy:   plan.Strategy,
		Confidence: plan.Confidence,
		Chain:      "intervention_adaptation",
		Payload:    InterventionPayload{Intervention: plan},
	}
}

func (r *Router) goalSetting(ctx context.Context, msg models.CoachingMessage, profile *models.UserProfile) (Outcome, error) {
	goal := strings.TrimSpace(msg.Message)
	if msg.Context != nil && strings.TrimSpace(msg.Context.CurrentGoal) != "" {
		goal = strings.TrimSpace(msg.Context.CurrentGoal)
	}

	habits := r.prescriber.MicroHabits(ctx, goal, profile)
	first := intervention.FirstStep(goal, habits)
	if err := storage.PutJSON(ctx, r.store, storage.NextTaskKey(msg.UserID), first); err != nil {
		return Outcome{}, fmt.Errorf("failed to save first step: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are five tiny habits for %q:", goal)
	for i, h := range habits {
		fmt.Fprintf(&b, "\n%d. %s", i+1, h)
	}
	fmt.Fprintf(&b, "\n\nStart with this one today: %s", first.Task)

	return Outcome{
		Type:       models.ResponseMicroHabits,
		Content:    b.String(),
		Strategy:   "micro_habits",
		Confidence: 0.8,
		Chain:      string(models.SessionGoalSetting),
		Payload:    HabitsPayload{Goal: goal, Habits: habits, FirstStep: first},
	}, nil
}

func (r *Router) reflection(ctx context.Context, msg models.CoachingMessage, profile *models.UserProfile) (Outcome, error) {
	c := msg.Context
	res := r.prescriber.Reflect(ctx, *c.PreviousTask, msg.Message, c.AdaptationDirection, profile, c.ReflectionID)

	if err := storage.PutJSON(ctx, r.store, storage.NextTaskKey(msg.UserID), res.NextTask); err != nil {
		return Outcome{}, fmt.Errorf("failed to save next task: %w", err)
	}
	if err := r.store.Put(ctx, storage.MomentumMirrorKey(msg.UserID), res.MomentumMirror); err != nil {
		return Outcome{}, fmt.Errorf("failed to save momentum mirror: %w", err)
	}
	if err := r.store.Put(ctx, storage.DashboardTeaserKey(msg.UserID), res.DashboardTeaser); err != nil {
		return Outcome{}, fmt.Errorf("failed to save dashboard teaser: %w", err)
	}

	return Outcome{
		Type:       models.ResponseReflection,
		Content:    res.MomentumMirror,
		Strategy:   "reflection_adaptation",
		Confidence: 0.8,
		Chain:      string(models.SessionReflection),
		Payload:    res,
	}, nil
}

// CurrentTask returns the task the user is working on, if any.
func (r *Router) CurrentTask(ctx context.Context, userID string) (models.Microtask, error) {
	task, err := storage.GetJSON[models.Microtask](ctx, r.store, storage.NextTaskKey(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return task, models.NewNotFoundError("no current task, set a goal first")
	}
	if err != nil {
		return task, fmt.Errorf("failed to load current task: %w", err)
	}
	return task, nil
}

func profileFromAnswers(a models.OnboardingAnswers) *models.PsychologicalProfile {
	p := &models.PsychologicalProfile{
		Mindset:         a.NormalizedMindset(),
		Locus:           a.NormalizedLocus(),
		RegulatoryFocus: a.NormalizedFocus(),
	}
	if a.Conscientiousness != 0 || a.Extraversion != 0 || a.Neuroticism != 0 {
		p.Personality = &models.Personality{
			Conscientiousness: float64(a.Conscientiousness),
			Extraversion:      float64(a.Extraversion),
			Neuroticism:       float64(a.Neuroticism),
		}
	}
	return p
}
