package persona

// Persona identifiers known to the registry.
const (
	Barista        = "barista"
	Fraud          = "fraud"
	GameMaster     = "gamemaster"
	Grocery        = "grocery"
	SDR            = "sdr"
	Wellness       = "wellness"
	Tutor          = "tutor"
	TutorLearn     = "tutor-learn"
	TutorQuiz      = "tutor-quiz"
	TutorTeachBack = "tutor-teach-back"
)

// Persona captures the profile attributes exposed to the frontend.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Tone        string `json:"tone"`
	OpeningLine string `json:"openingLine"`
	VoiceID     string `json:"voiceId,omitempty"`
	Description string `json:"description,omitempty"`
	// Hidden 为 true 时不在列表中展示（例如导师的子模式，只能通过切换进入）。
	Hidden bool `json:"hidden,omitempty"`
}

// Seed provides the default persona profiles.
func Seed() []Persona {
	return []Persona{
		{
			ID:          Barista,
			Name:        "Brew",
			Title:       "Coffee shop barista",
			Tone:        "warm, upbeat, efficient",
			OpeningLine: "Hi there! Welcome in. What can I get started for you today?",
			VoiceID:     "en-US-matthew",
			Description: "Takes coffee orders one question at a time and saves the finished order.",
		},
		{
			ID:          Fraud,
			Name:        "Aditya",
			Title:       "ICICI Bank fraud department",
			Tone:        "calm, professional, reassuring",
			OpeningLine: "Hello, this is Aditya from the ICICI Bank fraud prevention department. May I have your name, please?",
			VoiceID:     "en-US-matthew",
			Description: "Verifies the caller and reviews a suspicious card transaction with them.",
		},
		{
			ID:          GameMaster,
			Name:        "The Narrator",
			Title:       "Interactive story game master",
			Tone:        "vivid, dramatic, playful",
			OpeningLine: "Your adventure is about to begin. Are you ready?",
			VoiceID:     "en-US-matthew",
			Description: "Runs an interactive story in a fantasy, sci-fi, horror or cyberpunk universe.",
		},
		{
			ID:          Grocery,
			Name:        "FreshMart Assistant",
			Title:       "Grocery ordering assistant",
			Tone:        "friendly, helpful, concise",
			OpeningLine: "Hi! Welcome to FreshMart. What would you like to order today?",
			VoiceID:     "en-US-matthew",
			Description: "Searches the catalog, builds a cart, adds recipe ingredients and places orders.",
		},
		{
			ID:          SDR,
			Name:        "Riya",
			Title:       "Zerodha sales development rep",
			Tone:        "curious, knowledgeable, friendly",
			OpeningLine: "Hi, thanks for stopping by Zerodha! What brings you here today?",
			VoiceID:     "en-US-matthew",
			Description: "Answers product questions from the company FAQ and captures lead details.",
		},
		{
			ID:          Wellness,
			Name:        "Ava",
			Title:       "Daily wellness companion",
			Tone:        "gentle, supportive, grounded",
			OpeningLine: "Hi, it's good to see you. How are you feeling today?",
			VoiceID:     "en-US-matthew",
			Description: "Runs a short daily check-in on mood, energy and goals, and remembers past check-ins.",
		},
		{
			ID:          Tutor,
			Name:        "Active Recall Coach",
			Title:       "Programming tutor",
			Tone:        "encouraging, clear, patient",
			OpeningLine: "Hi! Would you like to learn a concept, take a quiz, or teach it back to me?",
			VoiceID:     "en-US-matthew",
			Description: "Greets the learner and routes them into learn, quiz or teach-back mode.",
		},
		{
			ID:          TutorLearn,
			Name:        "Matthew",
			Title:       "Tutor: learn mode",
			Tone:        "clear, patient",
			OpeningLine: "Let's learn. Which concept would you like me to explain?",
			VoiceID:     "en-US-matthew",
			Description: "Explains concepts in simple terms.",
			Hidden:      true,
		},
		{
			ID:          TutorQuiz,
			Name:        "Alicia",
			Title:       "Tutor: quiz mode",
			Tone:        "energetic, encouraging",
			OpeningLine: "Quiz time! Ready for your first question?",
			VoiceID:     "en-US-alicia",
			Description: "Asks questions and gives feedback on answers.",
			Hidden:      true,
		},
		{
			ID:          TutorTeachBack,
			Name:        "Ken",
			Title:       "Tutor: teach-back mode",
			Tone:        "curious, supportive",
			OpeningLine: "Teach it back to me. Pick a concept and explain it in your own words.",
			VoiceID:     "en-US-ken",
			Description: "Listens to the learner's explanation and gives qualitative feedback.",
			Hidden:      true,
		},
	}
}
