package domain

import (
	"fmt"
	"math"
)

// Emotion is the label/confidence annotation attached to a bot reply.
type Emotion struct {
	Label      string
	Confidence float64
}

var emotionIcons = map[string]string{
	"Happiness":  "😊",
	"Sadness":    "😢",
	"Anger":      "😠",
	"Anxiety":    "😰",
	"Love":       "❤️",
	"Loneliness": "😔",
	"Confusion":  "😕",
	"Hope":       "🌟",
	"Overwhelm":  "😫",
	"Crisis":     "🚨",
	"Neutral":    "😐",
}

// Icon returns the emoji for the label, or a generic thought bubble.
func (e Emotion) Icon() string {
	if icon, ok := emotionIcons[e.Label]; ok {
		return icon
	}
	return "💭"
}

// Percent returns the confidence clamped to [0,1] as a rounded percentage.
func (e Emotion) Percent() int {
	c := e.Confidence
	if math.IsNaN(c) || c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return int(math.Round(c * 100))
}

// String renders the indicator text, e.g. "😰 Anxiety (81%)".
func (e Emotion) String() string {
	return fmt.Sprintf("%s %s (%d%%)", e.Icon(), e.Label, e.Percent())
}
