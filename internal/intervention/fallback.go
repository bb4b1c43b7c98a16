package intervention

import (
	"fmt"

	"github.com/xaenox/mind-coach/internal/llm"
	"github.com/xaenox/mind-coach/internal/models"
)

var defaultMicroHabits = []string{
	"After you pour your morning drink, write down one thing you want to move forward today.",
	"Before opening your laptop, take three slow breaths.",
	"After lunch, spend two minutes tidying the space where you work on your goal.",
	"When you brush your teeth at night, name one small win from the day.",
	"Put a sticky note with your goal where you will see it first thing tomorrow.",
}

var prescribeFallbacks = map[llm.FailureKind]func(goal string) models.Intervention{
	llm.FailureBackend: microGoal,
	llm.FailureTimeout: microGoal,
	llm.FailureParse:   microGoal,
}

var reflectFallbacks = map[llm.FailureKind]func(previous models.Microtask) models.ReflectionResult{
	llm.FailureBackend: smallerStep,
	llm.FailureTimeout: smallerStep,
	llm.FailureParse:   smallerStep,
}

// microGoal is the plan used whenever prescription fails: the smallest action
// the user can take in the next 24 hours.
func microGoal(goal string) models.Intervention {
	content := "Let's start with the smallest possible action you can take in the next 24 hours. " +
		"Small wins build the momentum that bigger changes run on."
	if goal != "" {
		content = fmt.Sprintf("Let's start with the smallest possible action toward %q that you can take in the next 24 hours. "+
			"Small wins build the momentum that bigger changes run on.", goal)
	}
	return models.Intervention{
		InterventionType: models.InterventionGoalSetting,
		Strategy:         "micro_goal",
		Content:          content,
		ActionSteps: []string{
			"Pick the smallest action related to your goal that takes under five minutes.",
			"Decide exactly when and where you will do it in the next 24 hours.",
			"Do it, then note how it felt in one sentence.",
		},
		Timeframe:      "next 24 hours",
		SuccessMetrics: []string{"The action was completed once within 24 hours."},
		Obstacles:      []string{"Forgetting", "Feeling the step is too small to matter"},
		Adaptations:    []string{"If five minutes feels like too much, shrink it to one minute."},
		Confidence:     0.8,
	}
}

func smallerStep(previous models.Microtask) models.ReflectionResult {
	task := "Spend two minutes on the simplest part of your goal."
	if previous.Task != "" {
		task = fmt.Sprintf("Spend just two minutes on this: %s", previous.Task)
	}
	return models.ReflectionResult{
		NextTask: models.Microtask{
			Rationale: "Keeping the next step small makes it easier to stay consistent while momentum builds.",
			Task:      task,
		},
		MomentumMirror: "You took time to reflect on your last step, and that reflection is progress in itself. " +
			"Every honest check-in gives us more to work with.",
		DashboardTeaser: "Your next small step is ready whenever you are.",
	}
}
