package mockapi

import "strings"

// Reply is what the backend answers to one user message.
type Reply struct {
	Text            string
	Emotion         string
	Confidence      float64
	NeedsEscalation bool
}

// Responder produces replies. Implementations must be safe for concurrent use.
type Responder interface {
	Respond(message string) Reply
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(message string) Reply

func (f ResponderFunc) Respond(message string) Reply { return f(message) }

type keywordRule struct {
	words   []string
	emotion string
	reply   string
}

var keywordRules = []keywordRule{
	{[]string{"kill myself", "suicide", "end it all", "hurt myself"}, "Crisis",
		"I'm really concerned about what you're sharing. You don't have to go through this alone. Please reach out to a crisis line or someone you trust right now."},
	{[]string{"anxious", "anxiety", "worried", "panic", "nervous"}, "Anxiety",
		"It sounds like a lot is weighing on you. Let's take a slow breath together. What feels most pressing right now?"},
	{[]string{"sad", "down", "depressed", "cry"}, "Sadness",
		"I'm sorry you're feeling this way. I'm here to listen. Would you like to tell me more?"},
	{[]string{"angry", "furious", "mad", "annoyed"}, "Anger",
		"That sounds really frustrating. What happened?"},
	{[]string{"lonely", "alone", "isolated"}, "Loneliness",
		"Feeling alone is hard. I'm glad you reached out. Who do you usually feel closest to?"},
	{[]string{"overwhelmed", "too much", "can't cope"}, "Overwhelm",
		"That's a lot to carry at once. Could we break it into smaller pieces?"},
	{[]string{"confused", "don't understand", "lost"}, "Confusion",
		"Let's untangle it together. What part feels most unclear?"},
	{[]string{"love", "grateful", "thankful"}, "Love",
		"That's lovely to hear. What makes it feel that way?"},
	{[]string{"hope", "looking forward", "excited"}, "Hope",
		"I love that sense of possibility. What are you hoping for?"},
	{[]string{"happy", "great", "good", "glad"}, "Happiness",
		"That's wonderful! What made today feel good?"},
}

// KeywordResponder maps a few keywords to canned empathetic replies.
type KeywordResponder struct{}

func (KeywordResponder) Respond(message string) Reply {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return Reply{
					Text:            rule.reply,
					Emotion:         rule.emotion,
					Confidence:      0.81,
					NeedsEscalation: rule.emotion == "Crisis",
				}
			}
		}
	}
	return Reply{
		Text:       "Thank you for sharing. Tell me more about how you're feeling.",
		Emotion:    "Neutral",
		Confidence: 0.55,
	}
}
