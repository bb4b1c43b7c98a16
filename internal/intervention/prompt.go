package intervention

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xaenox/mind-coach/internal/models"
)

const prescribePrompt = `You are an evidence-based behaviour change coach. Design ONE concrete, personalised intervention.

Pick exactly one category:
- "behavioral": implementation intentions, habit stacking, environment design, activity scheduling.
- "cognitive": reframing, thought records, self-compassion, decatastrophising.
- "motivational": values clarification, future self, autonomy-supportive choice, progress reflection.
- "goal_setting": specific, moderately difficult goals with a feedback loop.

Use the profile below to tailor the plan. People with an external locus of control benefit from very small
controllable steps; prevention-focused people respond to framing around safety and consistency;
promotion-focused people respond to gains and progress. Anticipate realistic obstacles and explain how the
plan adapts to the person's personality.

Respond with ONLY a JSON object:
{
  "interventionType": "behavioral" | "cognitive" | "motivational" | "goal_setting",
  "strategy": "name of the technique",
  "content": "2-4 sentences addressed to the user",
  "actionSteps": ["ordered, concrete steps"],
  "timeframe": "e.g. next 7 days",
  "successMetrics": ["observable signs of success"],
  "obstacles": ["likely obstacles"],
  "adaptations": ["how this plan is tailored to the user"],
  "confidence": number between 0 and 1
}`

const adaptPrompt = `You are an evidence-based behaviour change coach revising an intervention after user feedback.
Keep what worked, change what did not, and follow the requested direction:
- "easier": shrink the steps until they take under five minutes and cannot fail.
- "harder": add one meaningful stretch while keeping the structure.
- "different_approach": switch to a different technique or category that fits the feedback.

Respond with ONLY a JSON object in exactly the same shape as the original intervention.`

const microHabitsPrompt = `You design micro-habits: actions that take less than two minutes, need no preparation and can be
attached to an existing routine. Respond with ONLY a JSON object: {"habits": ["five habit suggestions"]}.
Return exactly five items.`

const reflectPrompt = `You are a supportive coach closing a reflection cycle. The user tried a small task and is telling you how it went.
1. Propose the next microtask: one action that takes under ten minutes, adjusted in the requested direction
   ("easier", "harder" or "different_approach").
2. Write a "momentum mirror": 2-3 sentences that reflect the user's effort and progress back to them,
   honest and warm, never judgmental.
3. Write a one-sentence dashboard teaser that previews what comes next.

Respond with ONLY a JSON object:
{
  "nextTask": {"rationale": "why this step", "task": "the step"},
  "momentumMirror": "text",
  "dashboardTeaser": "text"
}`

func describeProfile(b *strings.Builder, profile *models.UserProfile) {
	if profile == nil || profile.PsychologicalProfile == nil {
		b.WriteString("\n- no psychological profile on file")
		return
	}
	p := profile.PsychologicalProfile
	if p.Mindset != "" {
		fmt.Fprintf(b, "\n- mindset: %s", p.Mindset)
	}
	if p.Locus != "" {
		fmt.Fprintf(b, "\n- locus of control: %s", p.Locus)
	}
	if p.RegulatoryFocus != "" {
		fmt.Fprintf(b, "\n- regulatory focus: %s", p.RegulatoryFocus)
	}
	if pe := p.Personality; pe != nil {
		fmt.Fprintf(b, "\n- personality (1-5): openness %.1f, conscientiousness %.1f, extraversion %.1f, agreeableness %.1f, neuroticism %.1f",
			pe.Openness, pe.Conscientiousness, pe.Extraversion, pe.Agreeableness, pe.Neuroticism)
	}
}

func describeAssessment(b *strings.Builder, a models.PsychologicalAssessment) {
	if m := a.Motivation; m != nil {
		fmt.Fprintf(b, "\n- SDT scores (1-5): autonomy %.1f, competence %.1f, relatedness %.1f",
			m.Autonomy, m.Competence, m.Relatedness)
	}
	if a.ChangeReadiness != "" {
		fmt.Fprintf(b, "\n- stage of change: %s", a.ChangeReadiness)
	}
}

func buildPrescribeContext(message string, profile *models.UserProfile, assessment models.PsychologicalAssessment, goals []models.Goal) string {
	var b strings.Builder
	b.WriteString("User profile:")
	describeProfile(&b, profile)
	describeAssessment(&b, assessment)
	if len(goals) > 0 {
		b.WriteString("\n\nActive goals:")
		for _, g := range goals {
			fmt.Fprintf(&b, "\n- %s (%.0f%% complete)", g.Title, g.Progress)
		}
	}
	fmt.Fprintf(&b, "\n\nUser message:\n%s", message)
	return b.String()
}

func buildAdaptContext(previous models.Intervention, feedback string, direction models.AdaptationDirection) string {
	original, _ := json.MarshalIndent(previous, "", "  ")
	return fmt.Sprintf("Original intervention:\n%s\n\nUser feedback:\n%s\n\nDirection: %s", original, feedback, direction)
}

func buildMicroHabitsContext(goal string, profile *models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n\nUser profile:", goal)
	describeProfile(&b, profile)
	return b.String()
}

func buildReflectContext(previous models.Microtask, reflection string, direction models.AdaptationDirection, profile *models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Previous task: %s\nWhy it was chosen: %s\n\nUser reflection:\n%s\n\nDirection: %s\n\nUser profile:",
		previous.Task, previous.Rationale, reflection, direction)
	describeProfile(&b, profile)
	return b.String()
}
