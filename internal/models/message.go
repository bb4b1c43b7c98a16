package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type SessionType string

const (
	SessionDiagnostic           SessionType = "diagnostic"
	SessionIntervention         SessionType = "intervention"
	SessionReflection           SessionType = "reflection"
	SessionGoalSetting          SessionType = "goal_setting"
	SessionOnboardingDiagnostic SessionType = "onboarding_diagnostic"
	SessionSnapshotGeneration   SessionType = "snapshot_generation"
)

// Valid reports whether t is one of the declared session types.
func (t SessionType) Valid() bool {
	switch t {
	case SessionDiagnostic, SessionIntervention, SessionReflection, SessionGoalSetting,
		SessionOnboardingDiagnostic, SessionSnapshotGeneration:
		return true
	}
	return false
}

// RequiresEntitlement reports whether the session type is part of paid ongoing coaching.
// Onboarding and reading the snapshot stay open to everyone.
func (t SessionType) RequiresEntitlement() bool {
	switch t {
	case SessionOnboardingDiagnostic, SessionSnapshotGeneration:
		return false
	}
	return true
}

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyCrisis UrgencyLevel = "crisis"
)

func (u UrgencyLevel) Elevated() bool {
	return u == UrgencyHigh || u == UrgencyCrisis
}

type AdaptationDirection string

const (
	DirectionEasier            AdaptationDirection = "easier"
	DirectionHarder            AdaptationDirection = "harder"
	DirectionDifferentApproach AdaptationDirection = "different_approach"
)

func (d AdaptationDirection) Valid() bool {
	return d == DirectionEasier || d == DirectionHarder || d == DirectionDifferentApproach
}

const MaxMessageLength = 2000

// Goal is an active goal the user is working towards.
type Goal struct {
	Title    string  `json:"title"`
	Progress float64 `json:"progress"`
}

// CoachingContext is the optional context attached to a coaching message.
// PreviousIntervention on an intervention turn asks for that plan to be
// revised with the message as feedback.
type CoachingContext struct {
	PreviousMessages     []string            `json:"previousMessages,omitempty"`
	CurrentGoal          string              `json:"currentGoal,omitempty"`
	Goals                []Goal              `json:"goals,omitempty"`
	UrgencyLevel         UrgencyLevel        `json:"urgencyLevel,omitempty"`
	SessionType          SessionType         `json:"sessionType,omitempty"`
	OnboardingAnswers    *OnboardingAnswers  `json:"onboardingAnswers,omitempty"`
	PreviousTask         *Microtask          `json:"previousTask,omitempty"`
	ReflectionID         string              `json:"reflectionId,omitempty"`
	AdaptationDirection  AdaptationDirection `json:"adaptationDirection,omitempty"`
	PreviousIntervention *Intervention       `json:"previousIntervention,omitempty"`
}

// CoachingMessage is one turn of user input. Stages only read it.
type CoachingMessage struct {
	Message   string           `json:"message"`
	UserID    string           `json:"userId"`
	SessionID string           `json:"sessionId,omitempty"`
	Context   *CoachingContext `json:"context,omitempty"`
}

// SessionType returns the declared session type, defaulting to diagnostic.
func (m CoachingMessage) SessionType() SessionType {
	if m.Context == nil || m.Context.SessionType == "" {
		return SessionDiagnostic
	}
	return m.Context.SessionType
}

func (m CoachingMessage) Urgency() UrgencyLevel {
	if m.Context == nil {
		return ""
	}
	return m.Context.UrgencyLevel
}

func (m CoachingMessage) History() []string {
	if m.Context == nil {
		return nil
	}
	return m.Context.PreviousMessages
}

// Validate checks the fields every route depends on.
func (m CoachingMessage) Validate() error {
	if strings.TrimSpace(m.Message) == "" {
		return NewValidationError("message is required")
	}
	if utf8.RuneCountInString(m.Message) > MaxMessageLength {
		return NewValidationError(fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	}
	if strings.TrimSpace(m.UserID) == "" {
		return NewValidationError("userId is required")
	}
	if m.Context == nil {
		return nil
	}
	if m.Context.SessionType != "" && !m.Context.SessionType.Valid() {
		return NewValidationError(fmt.Sprintf("unknown sessionType %q", m.Context.SessionType))
	}
	switch m.Context.UrgencyLevel {
	case "", UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCrisis:
	default:
		return NewValidationError(fmt.Sprintf("unknown urgencyLevel %q", m.Context.UrgencyLevel))
	}
	if d := m.Context.AdaptationDirection; d != "" && !d.Valid() {
		return NewValidationError(fmt.Sprintf("unknown adaptationDirection %q", d))
	}
	return nil
}
