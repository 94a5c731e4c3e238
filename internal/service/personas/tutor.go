package personas

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

const tutorGreeterInstructions = `You are a friendly learning assistant.

Available concepts: %s

Greet the user warmly and ask: "Which mode would you like? Say 'learn', 'quiz', or 'teach back'."

When they choose:
- If they say "learn", call switch_to_learn
- If they say "quiz", call switch_to_quiz
- If they say "teach back", call switch_to_teach_back

Keep it simple and friendly!`

const tutorLearnInstructions = `You are Matthew, a patient teacher explaining programming concepts.

Available concepts:
%s

When the user asks about a concept, explain it clearly using the summary.

If they want to switch modes:
- "quiz me", call switch_to_quiz
- "let me teach you", call switch_to_teach_back

Keep explanations simple and encouraging!`

const tutorQuizInstructions = `You are Alicia, an encouraging quiz master.

Available questions:
%s

Ask which concept they want to be quizzed on, then ask the question.
Listen to their answer and give brief positive feedback.

If they want to switch modes:
- "explain it to me", call switch_to_learn
- "let me teach you", call switch_to_teach_back

Be supportive and positive!`

const tutorTeachBackInstructions = `You are Ken, an attentive listener who provides feedback.

Available concepts: %s

Ask which concept they want to teach you.
Listen carefully to their explanation.
Give kind, constructive feedback on what they explained well.

If they want to switch modes:
- "explain it to me", call switch_to_learn
- "quiz me", call switch_to_quiz

Be encouraging!`

// modeSwitches maps each tutor mode to the switch tool that enters it.
var modeSwitches = []struct {
	target string
	tool   string
	desc   string
}{
	{persona.TutorLearn, "switch_to_learn", "Switch to learn mode (Matthew's voice)"},
	{persona.TutorQuiz, "switch_to_quiz", "Switch to quiz mode (Alicia's voice)"},
	{persona.TutorTeachBack, "switch_to_teach_back", "Switch to teach back mode (Ken's voice)"},
}

// switchTools returns the switch tools for every mode except current.
func switchTools(current string) *tools.Set {
	var items []tools.Tool
	for _, mode := range modeSwitches {
		if mode.target == current {
			continue
		}
		mode := mode
		items = append(items, tools.New(mode.tool, mode.desc, nil,
			func(context.Context, struct{}) (tools.Result, error) {
				logFor(current).WithField("target", mode.target).Info("switching tutor mode")
				return tools.Handoff(mode.target, fmt.Sprintf("Switching to %s mode.", modeName(mode.target))), nil
			},
		))
	}
	return tools.NewSet(items...)
}

func modeName(id string) string {
	switch id {
	case persona.TutorLearn:
		return "learn"
	case persona.TutorQuiz:
		return "quiz"
	case persona.TutorTeachBack:
		return "teach back"
	default:
		return id
	}
}

func conceptTitles(concepts []reference.TutorConcept) string {
	titles := make([]string, len(concepts))
	for i, c := range concepts {
		titles[i] = c.Title
	}
	return strings.Join(titles, ", ")
}

func newTutorGreeter(deps Deps, profile persona.Persona, _ Init) *Definition {
	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(tutorGreeterInstructions, conceptTitles(deps.Reference.TutorConcepts)),
		Tools:        switchTools(persona.Tutor),
	}
}

func newTutorLearn(deps Deps, profile persona.Persona, _ Init) *Definition {
	lines := make([]string, len(deps.Reference.TutorConcepts))
	for i, c := range deps.Reference.TutorConcepts {
		lines[i] = fmt.Sprintf("- %s: %s", c.Title, c.Summary)
	}
	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(tutorLearnInstructions, strings.Join(lines, "\n")),
		Tools:        switchTools(persona.TutorLearn),
	}
}

func newTutorQuiz(deps Deps, profile persona.Persona, _ Init) *Definition {
	lines := make([]string, len(deps.Reference.TutorConcepts))
	for i, c := range deps.Reference.TutorConcepts {
		lines[i] = fmt.Sprintf("- %s: %s", c.Title, c.SampleQuestion)
	}
	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(tutorQuizInstructions, strings.Join(lines, "\n")),
		Tools:        switchTools(persona.TutorQuiz),
	}
}

func newTutorTeachBack(deps Deps, profile persona.Persona, _ Init) *Definition {
	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(tutorTeachBackInstructions, conceptTitles(deps.Reference.TutorConcepts)),
		Tools:        switchTools(persona.TutorTeachBack),
	}
}
