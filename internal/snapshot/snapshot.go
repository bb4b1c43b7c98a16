// Package snapshot maps onboarding answers to an archetype, three insights
// and a narrative summary. Everything here is pure and deterministic.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/xaenox/mind-coach/internal/models"
)

const DefaultArchetype = "Thoughtful Planner"

// defaultTraits stand in for incomplete answers and map to DefaultArchetype.
var defaultTraits = traits{mindset: "fixed", locus: "internal", focus: "prevention"}

type traits struct {
	mindset string // growth | fixed
	locus   string // internal | external
	focus   string // promotion | prevention
}

func (t traits) complete() bool {
	return t.mindset != "" && t.locus != "" && t.focus != ""
}

var archetypes = map[traits]string{
	{"growth", "internal", "promotion"}:  "Visionary Achiever",
	{"growth", "internal", "prevention"}: "Steady Builder",
	{"growth", "external", "promotion"}:  "Collaborative Explorer",
	{"growth", "external", "prevention"}: "Adaptive Learner",
	{"fixed", "internal", "promotion"}:   "Determined Striver",
	{"fixed", "internal", "prevention"}:  "Thoughtful Planner",
	{"fixed", "external", "promotion"}:   "Opportunity Seeker",
	{"fixed", "external", "prevention"}:  "Careful Navigator",
}

// Generate builds the snapshot for a completed onboarding. Missing answers fall
// back to the stored psychological profile when there is one.
func Generate(answers models.OnboardingAnswers, profile *models.UserProfile) models.SnapshotData {
	t := resolveTraits(answers, profile)
	if !t.complete() {
		t = defaultTraits
	}
	archetype := Archetype(t.mindset, t.locus, t.focus)
	goal := strings.TrimSpace(answers.FinalFocus)

	return models.SnapshotData{
		Archetype:        archetype,
		Insights:         insights(t),
		UserGoal:         goal,
		NarrativeSummary: narrative(archetype, goal),
	}
}

// Archetype looks up the archetype for normalized traits.
func Archetype(mindset, locus, focus string) string {
	t := traits{mindset: mindset, locus: locus, focus: focus}
	if !t.complete() {
		return DefaultArchetype
	}
	if name, ok := archetypes[t]; ok {
		return name
	}
	return DefaultArchetype
}

func resolveTraits(a models.OnboardingAnswers, profile *models.UserProfile) traits {
	t := traits{
		mindset: a.NormalizedMindset(),
		locus:   a.NormalizedLocus(),
		focus:   a.NormalizedFocus(),
	}
	if profile == nil || profile.PsychologicalProfile == nil {
		return t
	}
	stored := models.OnboardingAnswers{
		Mindset:         profile.PsychologicalProfile.Mindset,
		Locus:           profile.PsychologicalProfile.Locus,
		RegulatoryFocus: profile.PsychologicalProfile.RegulatoryFocus,
	}
	if t.mindset == "" {
		t.mindset = stored.NormalizedMindset()
	}
	if t.locus == "" {
		t.locus = stored.NormalizedLocus()
	}
	if t.focus == "" {
		t.focus = stored.NormalizedFocus()
	}
	return t
}

func insights(t traits) []models.Insight {
	agency := models.Insight{
		Type:   models.VisualizationSpectrum,
		Title:  "Personal Agency",
		Labels: [2]string{"Focus on Circumstance", "Focus on Action"},
	}
	if t.locus == "internal" {
		agency.UserScore = 4.2
		agency.Description = "You tend to see your own actions as the main driver of what happens next. " +
			"That sense of agency is a reliable engine for change, especially when it is paired with small, concrete steps."
	} else {
		agency.UserScore = 2.3
		agency.Description = "You currently pay close attention to circumstances and the people around you. " +
			"This is a common and understandable pattern, and it provides a clear starting point: " +
			"noticing the parts of a situation you can influence, one step at a time."
	}

	mindset := models.Insight{
		Type:   models.VisualizationBalance,
		Title:  "Growth Mindset",
		Labels: [2]string{"Growth Belief", "Current Fixed Belief"},
	}
	if t.mindset == "growth" {
		mindset.UserScore = 4.5
		mindset.Description = "You believe abilities grow with effort and practice. " +
			"That belief makes setbacks easier to treat as information rather than as a final word."
	} else {
		mindset.UserScore = 2.0
		mindset.Description = "Right now you tend to see some abilities as fairly settled. " +
			"Many people start here, and it gives you a clear place to begin experimenting with small stretches " +
			"and noticing what shifts."
	}

	orientation := models.Insight{
		Type:   models.VisualizationRing,
		Title:  "Achievement Orientation",
		Labels: [2]string{"Promotion Focus", "Prevention Focus"},
	}
	if t.focus == "promotion" {
		orientation.UserScore = 4.0
		orientation.Description = "You are energized by progress and new possibilities. " +
			"Goals framed as something to move toward will likely feel the most motivating."
	} else {
		orientation.UserScore = 2.5
		orientation.Description = "You currently focus on protecting what matters and avoiding missteps. " +
			"That carefulness is a real strength, and goals framed around security and steady progress will suit you well."
	}

	return []models.Insight{agency, mindset, orientation}
}

var narratives = map[string]string{
	"Visionary Achiever": "As a Visionary Achiever, you pair a belief that you can keep growing with a strong sense that your actions shape your results. " +
		"You are drawn toward new possibilities, which gives you momentum when a goal feels meaningful.",
	"Steady Builder": "As a Steady Builder, you believe you can improve with practice and you trust your own effort to move things forward. " +
		"You like to protect the progress you make, so steady, well-planned steps suit you best.",
	"Collaborative Explorer": "As a Collaborative Explorer, you are open to growth and energized by new opportunities. " +
		"You notice how people and circumstances shape outcomes, which makes support and shared momentum especially useful to you.",
	"Adaptive Learner": "As an Adaptive Learner, you believe skills can be developed and you stay attentive to the situation around you. " +
		"You value safety and stability, so learning in small, low-risk steps lets your growth compound.",
	"Determined Striver": "As a Determined Striver, you rely on your own effort and reach for ambitious outcomes. " +
		"You currently see some abilities as fairly settled, and experimenting with small stretches is a clear place to begin.",
	"Thoughtful Planner": "As a Thoughtful Planner, you take ownership of your choices and prefer to prepare carefully before acting. " +
		"That combination of responsibility and caution gives you a reliable base to build on.",
	"Opportunity Seeker": "As an Opportunity Seeker, you are motivated by what could go right and you read your environment closely. " +
		"Your current tendency to see abilities as settled is a natural starting point for trying small experiments.",
	"Careful Navigator": "As a Careful Navigator, you pay close attention to circumstances and value keeping things on track. " +
		"This is an understandable way to move through uncertainty, and it provides a steady starting point for small, safe changes.",
}

func narrative(archetype, goal string) string {
	body, ok := narratives[archetype]
	if !ok {
		body = narratives[DefaultArchetype]
	}
	if goal == "" {
		return body + " Together we can shape this into a goal that matters to you."
	}
	closing := fmt.Sprintf(" That gives you a strong foundation for what you said matters most right now: %s", goal)
	if !strings.HasSuffix(goal, ".") && !strings.HasSuffix(goal, "!") && !strings.HasSuffix(goal, "?") {
		closing += "."
	}
	return body + closing
}
