package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mind-coach/internal/llm"
	"github.com/xaenox/mind-coach/internal/llm/llmtest"
	"github.com/xaenox/mind-coach/internal/models"
)

const validOutput = `{
  "type": "diagnostic_question",
  "response": "What makes mornings feel hard for you right now?",
  "strategy": "open_question",
  "confidence": 0.82,
  "assessment": {"autonomy": 3, "competence": 2, "relatedness": 4, "changeReadiness": "preparation", "riskFactors": {"stress": 0.4}},
  "followUpSuggestions": ["What time do you go to bed?"]
}`

func newAssessor(f *llmtest.Fake) *Assessor {
	return NewAssessor(f, Config{}, nil, zap.NewNop())
}

func TestAssessParsesModelOutput(t *testing.T) {
	fake := llmtest.New("```json\n" + validOutput + "\n```")
	a := newAssessor(fake)

	got := a.Assess(context.Background(), "I keep hitting snooze", nil, nil)
	assert.Equal(t, "diagnostic_question", got.Type)
	assert.Equal(t, "open_question", got.Strategy)
	assert.Equal(t, 0.82, got.Confidence)
	require.NotNil(t, got.AssessmentInsights.Motivation)
	assert.Equal(t, models.Motivation{Autonomy: 3, Competence: 2, Relatedness: 4}, *got.AssessmentInsights.Motivation)
	assert.Equal(t, models.ReadinessPreparation, got.AssessmentInsights.ChangeReadiness)
	assert.Equal(t, 0.4, got.AssessmentInsights.RiskFactors["stress"])
	assert.Equal(t, []string{"What time do you go to bed?"}, got.FollowUpSuggestions)
}

func TestAssessFallsBackOnBackendError(t *testing.T) {
	for _, err := range []error{errors.New("boom"), fmt.Errorf("wrapped: %w", context.DeadlineExceeded)} {
		a := newAssessor(llmtest.Failing(err))

		got := a.Assess(context.Background(), "hello", nil, nil)
		assert.Equal(t, 0.5, got.Confidence)
		assert.NotEmpty(t, got.Response)
		assert.True(t, got.AssessmentInsights.Empty())
	}
}

func TestAssessFallsBackOnParseError(t *testing.T) {
	for _, raw := range []string{
		"Sure! Let's talk about your goals.",
		`{"type":"lecture","response":"x","strategy":"y","confidence":0.3}`,
		`{"type":"reflection_prompt","response":"x","strategy":"y","confidence":0.3,"assessment":{"autonomy":9}}`,
	} {
		a := newAssessor(llmtest.New(raw))
		got := a.Assess(context.Background(), "hello", nil, nil)
		assert.Equal(t, 0.5, got.Confidence, raw)
		assert.Equal(t, fallbackResponse, got.Response, raw)
	}
}

func TestAssessPartialMotivationIsDropped(t *testing.T) {
	a := newAssessor(llmtest.New(`{"type":"reflection_prompt","response":"ok","strategy":"reflect","confidence":0.6,"assessment":{"autonomy":4}}`))
	got := a.Assess(context.Background(), "hello", nil, nil)
	assert.Nil(t, got.AssessmentInsights.Motivation)
}

func TestAssessUsesLastThreeExchanges(t *testing.T) {
	fake := llmtest.New(validOutput)
	a := newAssessor(fake)

	history := []string{"u1", "a1", "u2", "a2", "u3", "a3", "u4", "a4"}
	a.Assess(context.Background(), "latest", nil, history)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	msgs := calls[0].Messages
	require.Len(t, msgs, 7)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "u2"}, msgs[0])
	assert.Equal(t, llm.RoleAssistant, msgs[5].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "latest"}, msgs[6])
	assert.True(t, calls[0].Options.JSON)
}

func TestSystemPromptIncludesProfile(t *testing.T) {
	fake := llmtest.New(validOutput)
	a := newAssessor(fake)

	profile := &models.UserProfile{
		Preferences: models.Preferences{CoachingStyle: "direct"},
		PsychologicalProfile: &models.PsychologicalProfile{
			Mindset:    "growth",
			Locus:      "internal",
			Motivation: &models.Motivation{Autonomy: 4, Competence: 3, Relatedness: 2},
		},
	}
	a.Assess(context.Background(), "hi", profile, nil)

	prompt := fake.Calls()[0].SystemPrompt
	assert.Contains(t, prompt, "Self-Determination Theory")
	assert.Contains(t, prompt, "mindset: growth")
	assert.Contains(t, prompt, "autonomy 4.0")
	assert.Contains(t, prompt, "preferred coaching style: direct")
}

func TestQuestionSequence(t *testing.T) {
	for _, topic := range Topics() {
		qs, ok := QuestionSequence(topic)
		require.True(t, ok, topic)
		assert.Len(t, qs, 5, topic)
		for _, q := range qs {
			assert.NotEmpty(t, q)
		}
	}
	assert.Len(t, Topics(), 5)

	_, ok := QuestionSequence("astrology")
	assert.False(t, ok)

	qs, _ := QuestionSequence(TopicGoals)
	qs[0] = "mutated"
	again, _ := QuestionSequence(TopicGoals)
	assert.NotEqual(t, "mutated", again[0])
}
