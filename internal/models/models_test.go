package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoachingMessageValidate(t *testing.T) {
	valid := CoachingMessage{Message: "hello", UserID: "u1"}
	require.NoError(t, valid.Validate())

	cases := map[string]CoachingMessage{
		"empty message":    {Message: "   ", UserID: "u1"},
		"too long":         {Message: strings.Repeat("é", MaxMessageLength+1), UserID: "u1"},
		"missing user":     {Message: "hi"},
		"bad session type": {Message: "hi", UserID: "u1", Context: &CoachingContext{SessionType: "therapy"}},
		"bad urgency":      {Message: "hi", UserID: "u1", Context: &CoachingContext{UrgencyLevel: "extreme"}},
		"bad direction":    {Message: "hi", UserID: "u1", Context: &CoachingContext{AdaptationDirection: "sideways"}},
	}
	for name, msg := range cases {
		err := msg.Validate()
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	exact := CoachingMessage{Message: strings.Repeat("é", MaxMessageLength), UserID: "u1"}
	assert.NoError(t, exact.Validate())
}

func TestSessionTypeDefaults(t *testing.T) {
	assert.Equal(t, SessionDiagnostic, CoachingMessage{}.SessionType())
	assert.Equal(t, SessionDiagnostic, CoachingMessage{Context: &CoachingContext{}}.SessionType())
	assert.Equal(t, SessionReflection, CoachingMessage{Context: &CoachingContext{SessionType: SessionReflection}}.SessionType())
}

func TestRequiresEntitlement(t *testing.T) {
	for _, st := range []SessionType{SessionDiagnostic, SessionIntervention, SessionReflection, SessionGoalSetting} {
		assert.True(t, st.RequiresEntitlement(), st)
	}
	for _, st := range []SessionType{SessionOnboardingDiagnostic, SessionSnapshotGeneration} {
		assert.False(t, st.RequiresEntitlement(), st)
	}
}

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityNone.Rank(), SeverityLow.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityImmediate.Rank())
	assert.Equal(t, SeverityMedium.Rank(), Severity("unknown").Rank())
	assert.Equal(t, SeverityHigh, SeverityLow.Max(SeverityHigh))
	assert.Equal(t, SeverityImmediate, SeverityImmediate.Max(SeverityHigh))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("route: %w", NewNotFoundError("no snapshot"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)

	var modelErr *Error
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, KindNotFound, modelErr.Kind)
	assert.Equal(t, "not_found: no snapshot", modelErr.Error())
}

func TestOnboardingNormalization(t *testing.T) {
	a := OnboardingAnswers{Mindset: " Developed ", Locus: "EXTERNAL", RegulatoryFocus: "prevention"}
	assert.Equal(t, "growth", a.NormalizedMindset())
	assert.Equal(t, "external", a.NormalizedLocus())
	assert.Equal(t, "prevention", a.NormalizedFocus())

	assert.Equal(t, "fixed", OnboardingAnswers{Mindset: "stable"}.NormalizedMindset())
	assert.Empty(t, OnboardingAnswers{Mindset: "curious"}.NormalizedMindset())
}

func TestProfileMergeIsShallow(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewUserProfile("u1", created)
	p.PsychologicalProfile = &PsychologicalProfile{
		Mindset:    "growth",
		Motivation: &Motivation{Autonomy: 3, Competence: 3, Relatedness: 3},
	}

	later := created.Add(time.Hour)
	p.Merge(ProfileUpdate{PsychologicalProfile: &PsychologicalProfile{Locus: "internal"}}, later)
	assert.Equal(t, "growth", p.PsychologicalProfile.Mindset)
	assert.Equal(t, "internal", p.PsychologicalProfile.Locus)
	assert.NotNil(t, p.PsychologicalProfile.Motivation)
	assert.Equal(t, "supportive", p.Preferences.CoachingStyle)
	assert.Equal(t, later, p.UpdatedAt)
	assert.Equal(t, created, p.CreatedAt)

	p.Merge(ProfileUpdate{Preferences: &Preferences{Theme: "dark"}}, later)
	assert.Equal(t, Preferences{Theme: "dark"}, p.Preferences)
}
