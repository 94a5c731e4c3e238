package mood

import "strings"

// Label is a coarse mood bucket attached to wellness check-ins.
type Label string

const (
	Neutral   Label = "neutral"
	Happy     Label = "happy"
	Sad       Label = "sad"
	Stressed  Label = "stressed"
	Anxious   Label = "anxious"
	Tired     Label = "tired"
	Energized Label = "energized"
)

// Decision 给出情绪识别结果及其得分。
type Decision struct {
	Label Label
	Score int
}

// labelOrder 决定同分时的优先级。
var labelOrder = []Label{Stressed, Anxious, Sad, Tired, Energized, Happy}

var keywordBuckets = map[Label][]string{
	Happy: {
		"happy", "good", "great", "glad", "content", "optimistic", "grateful", "cheerful",
		"calm", "relaxed", "peaceful", "positive", "fine", "better",
	},
	Sad: {
		"sad", "down", "low mood", "lonely", "upset", "hurt", "depressed", "blue", "unhappy",
		"disappointed", "gloomy",
	},
	Stressed: {
		"stress", "overwhelmed", "pressure", "swamped", "frustrated", "burned out", "burnt out",
		"deadline", "busy", "tense",
	},
	Anxious: {
		"anxious", "nervous", "worried", "uneasy", "restless", "panic", "on edge", "scared",
	},
	Tired: {
		"tired", "exhausted", "sleepy", "drained", "fatigued", "worn out", "sluggish", "low energy",
	},
	Energized: {
		"energized", "energetic", "motivated", "excited", "pumped", "productive", "high energy", "focused",
	},
}

// energyHints 把能量描述映射为附加得分。
var energyHints = map[string]Label{
	"low":       Tired,
	"drained":   Tired,
	"exhausted": Tired,
	"high":      Energized,
	"great":     Energized,
}

// Classify 根据用户自述的心情与能量给出一个心情标签。
func Classify(moodText, energyLevel string) Decision {
	scores := scoreText(moodText)

	energy := strings.TrimSpace(strings.ToLower(energyLevel))
	for hint, label := range energyHints {
		if energy == hint || strings.HasPrefix(energy, hint+" ") {
			scores[label]++
		}
	}

	best := Decision{Label: Neutral}
	for _, label := range labelOrder {
		if scores[label] > best.Score {
			best = Decision{Label: label, Score: scores[label]}
		}
	}
	return best
}

func scoreText(text string) map[Label]int {
	scores := make(map[Label]int)
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return scores
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	// "not good" 之类的否定表达按低落处理。
	for _, negated := range []string{"not good", "not great", "not fine", "not happy", "not okay"} {
		if strings.Contains(normalized, negated) {
			scores[Happy] -= 3
			scores[Sad] += 3
		}
	}
	return scores
}
