package safety

import "github.com/xaenox/mind-coach/internal/models"

const (
	immediateResponse = "I'm really concerned about your safety right now. If you are in immediate danger, " +
		"please call 911 or your local emergency number now. You can also call or text 988 to reach the " +
		"Suicide & Crisis Lifeline any time, day or night, or text HOME to 741741 for the Crisis Text Line. " +
		"You don't have to go through this alone, and reaching out right now is the most important next step."

	highResponse = "It sounds like you're carrying something really heavy, and I'm glad you told me. " +
		"This is a moment where a trained counselor can help more than I can. Please consider calling or " +
		"texting 988 (Suicide & Crisis Lifeline) or texting HOME to 741741. They're available 24/7 and " +
		"you can talk to them about anything you're feeling."

	mediumResponse = "Thank you for sharing this with me. What you're going through matters, and it makes sense " +
		"that it feels like a lot. I'd like to pause our coaching for a moment. If it would help to talk " +
		"to someone now, you can call or text 988 or text HOME to 741741 at any time."

	failClosedResponse = "I want to make sure you get the right support, so let's connect you with a counselor " +
		"who can help. You can call or text 988 to reach the Suicide & Crisis Lifeline, or text HOME to " +
		"741741, any time of day."
)

var tieredResponses = map[models.Severity]string{
	models.SeverityImmediate: immediateResponse,
	models.SeverityHigh:      highResponse,
	models.SeverityMedium:    mediumResponse,
}

// crisisResponse returns the resource message for a blocking severity.
func crisisResponse(severity models.Severity) string {
	if msg, ok := tieredResponses[severity]; ok {
		return msg
	}
	return failClosedResponse
}

func recommendedAction(severity models.Severity) models.RecommendedAction {
	switch severity {
	case models.SeverityImmediate:
		return models.ActionEmergency
	case models.SeverityMedium, models.SeverityHigh:
		return models.ActionEscalate
	default:
		return models.ActionContinue
	}
}
