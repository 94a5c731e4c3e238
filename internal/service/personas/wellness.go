package personas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/analysis/mood"
	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/records"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

const wellnessInstructions = `You are a supportive health and wellness companion who conducts daily check-ins with users. Your role is to be warm, empathetic, and grounded, not a therapist or medical professional.

Your approach:
- Have natural, conversational check-ins that feel like talking to a caring friend
- Ask open-ended questions about mood, energy, and daily intentions
- Offer small, practical, actionable suggestions when appropriate
- Never diagnose, prescribe, or give medical advice
- Keep the conversation brief and focused

During each check-in, naturally gather:
1. How they're feeling today (mood and energy level)
2. What's on their mind or causing stress (if anything)
3. Their main objectives or intentions for the day (1-3 things)
4. One small self-care action they might take

Conversation flow:
1. Start with a warm greeting
2. Ask about their current mood and energy
3. Explore what's on their mind today
4. Discuss their intentions for the day
5. Offer a small piece of grounded advice or reflection
6. Recap what you heard and confirm accuracy
7. Once confirmed, use the save_checkin tool to save the session

%s

Remember: Keep responses conversational and natural for voice interaction. Avoid bullet points or complex formatting.`

// WellnessSession is the wellness persona's session state.
type WellnessSession struct {
	History []records.CheckIn
	Current *records.CheckIn
}

// HistoryContext summarizes previous check-ins for the system prompt.
func HistoryContext(history []records.CheckIn, now time.Time) string {
	if len(history) == 0 {
		return "This is your first check-in with this user."
	}

	last := history[len(history)-1]
	var b strings.Builder
	b.WriteString("Previous check-in history:\n")
	fmt.Fprintf(&b, "Last check-in was %s. ", describeAge(last, now))
	lastMood := last.Mood
	if lastMood == "" {
		lastMood = "not recorded"
	}
	fmt.Fprintf(&b, "They reported feeling: %s. ", lastMood)
	if len(last.Objectives) > 0 {
		fmt.Fprintf(&b, "Their goals were: %s. ", strings.Join(last.Objectives, ", "))
	}

	if len(history) > 1 {
		fmt.Fprintf(&b, "\nTotal check-ins completed: %d. ", len(history))
		start := len(history) - 3
		if start < 0 {
			start = 0
		}
		var moods []string
		for _, entry := range history[start:] {
			if entry.Mood != "" {
				moods = append(moods, entry.Mood)
			}
		}
		if len(moods) > 0 {
			fmt.Fprintf(&b, "Recent mood trend: %s. ", strings.Join(moods, ", "))
		}
	}

	b.WriteString("\nReference this history naturally in your conversation to show continuity and care.")
	return b.String()
}

func describeAge(entry records.CheckIn, now time.Time) string {
	ts, ok := entry.Time()
	if !ok {
		return "recently"
	}
	days := int(now.Sub(ts).Hours() / 24)
	switch {
	case days <= 0:
		return "earlier today"
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

type checkInArgs struct {
	Mood           string   `json:"mood"`
	EnergyLevel    string   `json:"energy_level"`
	StressFactors  []string `json:"stress_factors"`
	Objectives     []string `json:"objectives"`
	SelfCareAction string   `json:"self_care_action"`
	AgentSummary   string   `json:"agent_summary"`
}

func newWellness(deps Deps, profile persona.Persona, _ Init) *Definition {
	log := logFor(persona.Wellness)
	history, err := deps.Records.LoadCheckIns()
	if err != nil {
		log.WithError(err).Warn("wellness history unavailable")
		history = nil
	}
	session := &WellnessSession{History: history}

	saveCheckIn := tools.New("save_checkin",
		"Save the completed wellness check-in. Use this only after confirming the recap with the user.",
		tools.Params{
			"mood":             {Type: schema.String, Desc: "User's self-reported mood (e.g., 'tired but optimistic', 'stressed', 'energized')", Required: true},
			"energy_level":     {Type: schema.String, Desc: "User's energy level (e.g., 'low', 'medium', 'high', or descriptive)", Required: true},
			"stress_factors":   {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Desc: "Things causing stress or on their mind (can be empty)"},
			"objectives":       {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Desc: "1-3 main goals or intentions for the day", Required: true},
			"self_care_action": {Type: schema.String, Desc: "One small self-care or wellness action they plan to take", Required: true},
			"agent_summary":    {Type: schema.String, Desc: "Brief 1-2 sentence summary of the check-in and your reflection", Required: true},
		},
		func(_ context.Context, args checkInArgs) (tools.Result, error) {
			entry := records.CheckIn{
				Timestamp:      deps.Records.Now().Format(time.RFC3339),
				Mood:           args.Mood,
				MoodLabel:      string(mood.Classify(args.Mood, args.EnergyLevel).Label),
				EnergyLevel:    args.EnergyLevel,
				StressFactors:  args.StressFactors,
				Objectives:     args.Objectives,
				SelfCareAction: args.SelfCareAction,
				AgentSummary:   args.AgentSummary,
			}
			if err := deps.Records.AppendCheckIn(entry); err != nil {
				log.WithError(err).Error("save check-in")
				return tools.Say("I'm sorry, I couldn't save today's check-in. Let's try that again in a moment."), nil
			}
			session.Current = &entry

			objectives := args.Objectives
			if len(objectives) > 3 {
				objectives = objectives[:3]
			}
			var stress string
			if len(args.StressFactors) > 0 {
				factors := args.StressFactors
				if len(factors) > 2 {
					factors = factors[:2]
				}
				stress = fmt.Sprintf(" You mentioned feeling stressed about %s.", strings.Join(factors, ", "))
			}
			return tools.Say(fmt.Sprintf(
				"Thank you for checking in today! I've recorded that you're feeling %s with %s energy.%s Your main focus is: %s. And you're planning to %s. I'm here whenever you need to talk. Take care!",
				args.Mood, args.EnergyLevel, stress, strings.Join(objectives, ", "), args.SelfCareAction,
			)), nil
		},
	)

	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(wellnessInstructions, HistoryContext(history, deps.Records.Now())),
		Tools:        tools.NewSet(saveCheckIn),
		State:        session,
	}
}
