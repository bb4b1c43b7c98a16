package models

import (
	"strings"
	"time"
)

// OnboardingAnswers is the result of the onboarding questionnaire.
type OnboardingAnswers struct {
	Mindset           string `json:"mindset"`
	Locus             string `json:"locus"`
	RegulatoryFocus   string `json:"regulatory_focus"`
	Conscientiousness int    `json:"conscientiousness,omitempty"`
	Extraversion      int    `json:"extraversion,omitempty"`
	Neuroticism       int    `json:"neuroticism,omitempty"`
	FinalFocus        string `json:"final_focus"`
}

// NormalizedMindset maps questionnaire wording onto growth/fixed.
// Unknown values come back empty.
func (a OnboardingAnswers) NormalizedMindset() string {
	switch strings.ToLower(strings.TrimSpace(a.Mindset)) {
	case "growth", "developed":
		return "growth"
	case "fixed", "stable":
		return "fixed"
	}
	return ""
}

func (a OnboardingAnswers) NormalizedLocus() string {
	switch l := strings.ToLower(strings.TrimSpace(a.Locus)); l {
	case "internal", "external":
		return l
	}
	return ""
}

func (a OnboardingAnswers) NormalizedFocus() string {
	switch f := strings.ToLower(strings.TrimSpace(a.RegulatoryFocus)); f {
	case "promotion", "prevention":
		return f
	}
	return ""
}

type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	CoachingStyle string `json:"coachingStyle"`
}

// Personality holds five-factor scores on a 1-5 scale. Zero means unknown.
type Personality struct {
	Openness          float64 `json:"openness,omitempty"`
	Conscientiousness float64 `json:"conscientiousness,omitempty"`
	Extraversion      float64 `json:"extraversion,omitempty"`
	Agreeableness     float64 `json:"agreeableness,omitempty"`
	Neuroticism       float64 `json:"neuroticism,omitempty"`
}

// Motivation is the Self-Determination Theory triple, each 1-5.
type Motivation struct {
	Autonomy    float64 `json:"autonomy" validate:"gte=1,lte=5"`
	Competence  float64 `json:"competence" validate:"gte=1,lte=5"`
	Relatedness float64 `json:"relatedness" validate:"gte=1,lte=5"`
}

type PsychologicalProfile struct {
	Mindset         string       `json:"mindset,omitempty"`
	Locus           string       `json:"locus,omitempty"`
	RegulatoryFocus string       `json:"regulatoryFocus,omitempty"`
	Personality     *Personality `json:"personality,omitempty"`
	Motivation      *Motivation  `json:"motivation,omitempty"`
}

type UserProfile struct {
	ID                   string                `json:"id"`
	DisplayName          string                `json:"displayName,omitempty"`
	Preferences          Preferences           `json:"preferences"`
	PsychologicalProfile *PsychologicalProfile `json:"psychologicalProfile,omitempty"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// NewUserProfile returns the profile a user gets on first contact.
func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		ID: userID,
		Preferences: Preferences{
			Theme:         "system",
			Notifications: true,
			CoachingStyle: "supportive",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProfileUpdate carries the sub-objects to replace. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName          *string
	Preferences          *Preferences
	PsychologicalProfile *PsychologicalProfile
}

// Merge applies u onto p. Each sub-object is merged one level deep: non-empty
// fields of the update win, everything else is kept.
func (p *UserProfile) Merge(u ProfileUpdate, now time.Time) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Preferences != nil {
		p.Preferences = *u.Preferences
	}
	if u.PsychologicalProfile != nil {
		if p.PsychologicalProfile == nil {
			p.PsychologicalProfile = &PsychologicalProfile{}
		}
		in := u.PsychologicalProfile
		cur := p.PsychologicalProfile
		if in.Mindset != "" {
			cur.Mindset = in.Mindset
		}
		if in.Locus != "" {
			cur.Locus = in.Locus
		}
		if in.RegulatoryFocus != "" {
			cur.RegulatoryFocus = in.RegulatoryFocus
		}
		if in.Personality != nil {
			cur.Personality = in.Personality
		}
		if in.Motivation != nil {
			cur.Motivation = in.Motivation
		}
	}
	p.UpdatedAt = now
}
