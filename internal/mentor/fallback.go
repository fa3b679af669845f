package mentor

import "strings"

type topicResponses struct {
	keywords  []string
	responses []string
}

// Topics are checked in order; the first keyword hit wins.
var topics = []topicResponses{
	{
		keywords: []string{"math", "calculate", "solve", "equation"},
		responses: []string{
			"Great math question! Remember to break down the problem step by step. What specific part are you working on?",
			"Math is like navigating through space - one calculation at a time! Show me what you've tried so far.",
			"Let's solve this together! First, identify what the problem is asking for.",
		},
	},
	{
		keywords: []string{"science", "biology", "chemistry", "physics"},
		responses: []string{
			"Science is fascinating! Like exploring new planets, each discovery leads to more questions. What would you like to explore?",
			"Great scientific thinking! Remember the scientific method: observe, hypothesize, test, and conclude.",
			"Science helps us understand our universe. What specific concept are you curious about?",
		},
	},
	{
		keywords: []string{"help", "stuck", "confused", "don't understand"},
		responses: []string{
			"No worries, every star explorer gets stuck sometimes! Let's work through this together. What's the specific challenge?",
			"I'm here to help! Break down the problem into smaller pieces - what's the first part you understand?",
			"Getting stuck is part of learning! What subject are we working with?",
		},
	},
}

var defaultResponses = []string{
	"That's an interesting question! Can you tell me more about what you'd like to learn?",
	"Keep up the stellar work! What subject would you like to explore today?",
	"Your curiosity is out of this world! How can I help you on your learning journey?",
}

func fallbackFor(message string) []string {
	lower := strings.ToLower(message)
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.responses
			}
		}
	}
	return defaultResponses
}
