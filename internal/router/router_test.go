package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/diagnostic"
	"github.com/xaenox/mind-coach/internal/intervention"
	"github.com/xaenox/mind-coach/internal/llm/llmtest"
	"github.com/xaenox/mind-coach/internal/models"
	"github.com/xaenox/mind-coach/internal/storage"
)

type countingStore struct {
	storage.Store
	puts atomic.Int32
}

func (s *countingStore) Put(ctx context.Context, key, value string, opts ...storage.PutOption) error {
	s.puts.Add(1)
	return s.Store.Put(ctx, key, value, opts...)
}

func newRouter(fake *llmtest.Fake) (*Router, *countingStore) {
	store := &countingStore{Store: storage.NewMemoryStorage()}
	logger := zap.NewNop()
	r := New(
		diagnostic.NewAssessor(fake, diagnostic.Config{}, nil, logger),
		intervention.NewPrescriber(fake, intervention.Config{}, nil, logger),
		store,
		logger,
	)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return r, store
}

func message(sessionType models.SessionType, text string) models.CoachingMessage {
	return models.CoachingMessage{
		Message: text,
		UserID:  "u1",
		Context: &models.CoachingContext{SessionType: sessionType},
	}
}

func TestReflectionWithoutPreviousTaskFailsBeforeAnySideEffect(t *testing.T) {
	fake := llmtest.New(`{}`)
	r, store := newRouter(fake)

	msg := message(models.SessionReflection, "I did it")
	msg.Context.ReflectionID = "r-1"

	_, err := r.Dispatch(context.Background(), msg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, fake.CallCount())
	assert.Equal(t, int32(0), store.puts.Load())
}

func TestReflectionWithoutReflectionIDFails(t *testing.T) {
	fake := llmtest.New(`{}`)
	r, store := newRouter(fake)

	msg := message(models.SessionReflection, "I did it")
	msg.Context.PreviousTask = &models.Microtask{Rationale: "r", Task: "walk"}

	_, err := r.Dispatch(context.Background(), msg, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, fake.CallCount())
	assert.Equal(t, int32(0), store.puts.Load())
}

func TestReflectionPersistsResult(t *testing.T) {
	fake := llmtest.New(`{"nextTask":{"rationale":"keep going","task":"Walk ten minutes"},"momentumMirror":"You kept your word.","dashboardTeaser":"2 of 7 days"}`)
	r, store := newRouter(fake)

	msg := message(models.SessionReflection, "done, it was easy")
	msg.Context.PreviousTask = &models.Microtask{Rationale: "start", Task: "Walk five minutes"}
	msg.Context.ReflectionID = "r-9"

	out, err := r.Dispatch(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseReflection, out.Type)
	assert.Equal(t, "You kept your word.", out.Content)

	ctx := context.Background()
	task, err := r.CurrentTask(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Walk ten minutes", task.Task)

	mirror, err := store.Get(ctx, storage.MomentumMirrorKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "You kept your word.", mirror)
	teaser, err := store.Get(ctx, storage.DashboardTeaserKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "2 of 7 days", teaser)
}

func TestOnboardingStoresSnapshotAndAnswers(t *testing.T) {
	fake := llmtest.New()
	r, store := newRouter(fake)

	msg := message(models.SessionOnboardingDiagnostic, "done with onboarding")
	msg.Context.OnboardingAnswers = &models.OnboardingAnswers{
		Mindset:           "developed",
		Locus:             "internal",
		RegulatoryFocus:   "promotion",
		Conscientiousness: 4,
		FinalFocus:        "career growth",
	}

	out, err := r.Dispatch(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fake.CallCount())
	assert.Equal(t, models.ResponseSnapshot, out.Type)
	assert.Contains(t, out.Content, "career growth")

	stored, err := storage.GetJSON[models.StoredSnapshot](context.Background(), store, storage.SnapshotKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "Visionary Achiever", stored.Archetype)

	answers, err := storage.GetJSON[models.OnboardingAnswers](context.Background(), store, storage.OnboardingKey("u1"))
	require.NoError(t, err)
	assert.Equal(t, "career growth", answers.FinalFocus)

	require.NotNil(t, out.Update)
	require.NotNil(t, out.Update.PsychologicalProfile)
	assert.Equal(t, "growth", out.Update.PsychologicalProfile.Mindset)
	assert.Equal(t, "internal", out.Update.PsychologicalProfile.Locus)
	assert.Equal(t, "promotion", out.Update.PsychologicalProfile.RegulatoryFocus)
	require.NotNil(t, out.Update.PsychologicalProfile.Personality)
	assert.Equal(t, 4.0, out.Update.PsychologicalProfile.Personality.Conscientiousness)
}

func TestOnboardingRequiresAnswers(t *testing.T) {
	r, store := newRouter(llmtest.New())
	_, err := r.Dispatch(context.Background(), message(models.SessionOnboardingDiagnostic, "hi"), nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, int32(0), store.puts.Load())
}

func TestSnapshotGenerationReadsStoredSnapshot(t *testing.T) {
	r, _ := newRouter(llmtest.New())
	ctx := context.Background()

	_, err := r.Dispatch(ctx, message(models.SessionSnapshotGeneration, "show me"), nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	onboard := message(models.SessionOnboardingDiagnostic, "done")
	onboard.Context.OnboardingAnswers = &models.OnboardingAnswers{Mindset: "stable", Locus: "external", RegulatoryFocus: "prevention", FinalFocus: "less stress"}
	_, err = r.Dispatch(ctx, onboard, nil)
	require.NoError(t, err)

	out, err := r.Dispatch(ctx, message(models.SessionSnapshotGeneration, "show me"), nil)
	require.NoError(t, err)
	stored, ok := out.Payload.(models.StoredSnapshot)
	require.True(t, ok)
	assert.Equal(t, "Careful Navigator", stored.Archetype)
	assert.Equal(t, r.now(), stored.GeneratedAt)
}

func TestDiagnosticIsTheDefaultRoute(t *testing.T) {
	fake := llmtest.New(`{"type":"diagnostic_question","response":"What matters most?","strategy":"open_question","confidence":0.7,"assessment":{"autonomy":2,"competence":3,"relatedness":4}}`)
	r, store := newRouter(fake)

	out, err := r.Dispatch(context.Background(), models.CoachingMessage{Message: "hi", UserID: "u1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "diagnostic_question", out.Type)
	assert.Equal(t, "What matters most?", out.Content)
	assert.Equal(t, 1, fake.CallCount())
	assert.Equal(t, int32(0), store.puts.Load())

	require.NotNil(t, out.Update)
	assert.Equal(t, &models.Motivation{Autonomy: 2, Competence: 3, Relatedness: 4}, out.Update.PsychologicalProfile.Motivation)
}

func TestInterventionRunsAssessorThenPrescriber(t *testing.T) {
	fake := llmtest.New(
		`{"type":"assessment_summary","response":"ok","strategy":"summary","confidence":0.6,"assessment":{"changeReadiness":"action"}}`,
		`{"interventionType":"behavioral","strategy":"habit_stacking","content":"Stack it on coffee.","actionSteps":["After coffee, stretch"],"confidence":0.7}`,
	)
	r, store := newRouter(fake)

	msg := message(models.SessionIntervention, "I want to stretch daily")
	msg.Context.CurrentGoal = "Stretch daily"
	out, err := r.Dispatch(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseIntervention, out.Type)
	assert.Equal(t, "habit_stacking", out.Strategy)
	assert.Equal(t, 2, fake.CallCount())
	assert.Contains(t, fake.Calls()[1].Messages[0].Content, "action")
	assert.Contains(t, fake.Calls()[1].Messages[0].Content, "Stretch daily")
	assert.Nil(t, out.Update)
	assert.Equal(t, int32(0), store.puts.Load())
}

func TestGoalSettingPersistsFirstStep(t *testing.T) {
	fake := llmtest.New(`{"habits":["Fill a water bottle","b","c","d","e"]}`)
	r, _ := newRouter(fake)

	msg := message(models.SessionGoalSetting, "I want to drink more water")
	out, err := r.Dispatch(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseMicroHabits, out.Type)

	payload, ok := out.Payload.(HabitsPayload)
	require.True(t, ok)
	assert.Len(t, payload.Habits, 5)

	task, err := r.CurrentTask(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Fill a water bottle", task.Task)
}

func TestGoalSettingFallbackStillPersists(t *testing.T) {
	r, store := newRouter(llmtest.Failing(errors.New("down")))
	out, err := r.Dispatch(context.Background(), message(models.SessionGoalSetting, "sleep"), nil)
	require.NoError(t, err)
	assert.Len(t, out.Payload.(HabitsPayload).Habits, 5)
	assert.Equal(t, int32(1), store.puts.Load())
}

func TestCurrentTaskNotFound(t *testing.T) {
	r, _ := newRouter(llmtest.New())
	_, err := r.CurrentTask(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestValidateRouteContext(t *testing.T) {
	r, _ := newRouter(llmtest.New())

	onboarding := message(models.SessionOnboardingDiagnostic, "done")
	assert.ErrorIs(t, r.Validate(onboarding), models.ErrValidation)
	onboarding.Context.OnboardingAnswers = &models.OnboardingAnswers{Mindset: "growth"}
	assert.NoError(t, r.Validate(onboarding))

	reflection := message(models.SessionReflection, "went fine")
	assert.ErrorIs(t, r.Validate(reflection), models.ErrValidation)
	reflection.Context.PreviousTask = &models.Microtask{Task: "   "}
	reflection.Context.ReflectionID = "r-1"
	assert.ErrorIs(t, r.Validate(reflection), models.ErrValidation)
	reflection.Context.PreviousTask.Task = "walk"
	assert.NoError(t, r.Validate(reflection))

	assert.NoError(t, r.Validate(models.CoachingMessage{Message: "hi", UserID: "u1"}))
}

func TestInterventionAdaptsPreviousPlan(t *testing.T) {
	fake := llmtest.New(`{"interventionType":"behavioral","strategy":"tiny_habit","content":"Just put your shoes on.","actionSteps":["Put shoes on after breakfast"],"confidence":0.75}`)
	r, store := newRouter(fake)

	msg := message(models.SessionIntervention, "It was too hard to find the time")
	msg.Context.PreviousIntervention = &models.Intervention{
		InterventionType: models.InterventionBehavioral,
		Strategy:         "activity_scheduling",
		Content:          "Run for thirty minutes every morning.",
		ActionSteps:      []string{"Run at 7am"},
		Confidence:       0.7,
	}

	out, err := r.Dispatch(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseIntervention, out.Type)
	assert.Equal(t, "tiny_habit", out.Strategy)
	assert.Equal(t, "intervention_adaptation", out.Chain)
	require.Equal(t, 1, fake.CallCount())
	assert.Contains(t, fake.Calls()[0].Messages[0].Content, "Direction: easier")
	assert.Contains(t, fake.Calls()[0].Messages[0].Content, "activity_scheduling")
	assert.Equal(t, int32(0), store.puts.Load())
}
