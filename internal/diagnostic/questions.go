package diagnostic

import "sort"

type Topic string

const (
	TopicAutonomy    Topic = "autonomy"
	TopicCompetence  Topic = "competence"
	TopicRelatedness Topic = "relatedness"
	TopicGoals       Topic = "goals"
	TopicBarriers    Topic = "barriers"
)

var questionBank = map[Topic][]string{
	TopicAutonomy: {
		"When you think about this goal, how much of it feels like your own choice?",
		"What would you do differently if nobody else's expectations mattered here?",
		"Which parts of your day feel most in your control right now?",
		"How does it feel when someone else decides how you should approach this?",
		"What value of yours does this goal connect to?",
	},
	TopicCompetence: {
		"What is one thing you've already done that moved you closer to this goal?",
		"Where do you feel most capable in your life right now?",
		"What skill would make the biggest difference if it improved a little?",
		"How do you usually know when you're making progress?",
		"What did you learn the last time something didn't go as planned?",
	},
	TopicRelatedness: {
		"Who in your life knows about this goal?",
		"How do the people around you respond when you try something new?",
		"Who would you like to share a small win with this week?",
		"What kind of support feels most helpful to you?",
		"When have you felt most connected while working toward something?",
	},
	TopicGoals: {
		"What would success look like for you in one month?",
		"Why does this goal matter to you now, rather than later?",
		"How will you know you're on the right track after one week?",
		"On a scale of 1 to 10, how committed do you feel to this goal today?",
		"What is the smallest version of this goal you could start with?",
	},
	TopicBarriers: {
		"What usually gets in the way when you try to make this change?",
		"When during the day is it hardest to follow through?",
		"What thoughts show up right before you put something off?",
		"What has helped you get past a similar obstacle before?",
		"If this barrier disappeared tomorrow, what would you do first?",
	},
}

// QuestionSequence returns the five hand-authored questions for topic. The
// second return is false for an unknown topic.
func QuestionSequence(topic Topic) ([]string, bool) {
	qs, ok := questionBank[topic]
	if !ok {
		return nil, false
	}
	return append([]string(nil), qs...), true
}

func Topics() []Topic {
	out := make([]Topic, 0, len(questionBank))
	for t := range questionBank {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
