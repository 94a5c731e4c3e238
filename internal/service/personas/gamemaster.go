package personas

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

// DefaultUniverse is used when the requested universe is unknown.
const DefaultUniverse = "fantasy"

var universes = map[string]string{
	"fantasy": `You are the Game Master of an epic fantasy adventure. The world is filled with:
- Ancient dragons guarding mountain peaks
- Dense forests hiding mysterious creatures
- Medieval kingdoms with court intrigue
- Powerful magic and forgotten ruins

Start the player in a tavern at the edge of a small town. Introduce hooks for adventure naturally.`,
	"sci-fi": `You are the Game Master of a sci-fi survival adventure. The setting features:
- A derelict space station slowly losing power
- Unknown alien signals from nearby planets
- Advanced technology mixed with malfunctioning systems
- A crew with unclear origins

Start the player waking up in a cryopod with fragmented memories. Begin in the station's main corridor.`,
	"horror": `You are the Game Master of a horror adventure. The world contains:
- Abandoned buildings with dark histories
- Inexplicable supernatural events
- Hints of something ancient and malevolent
- The creeping sense that you're being watched

Start the player in an old mansion on a stormy night, drawn here by mysterious circumstances.`,
	"cyberpunk": `You are the Game Master of a cyberpunk adventure. Navigate:
- Towering megacities with vertical slums
- Rogue AIs and corporate security
- Underground hacker networks
- Augmented humans and digital consciousness

Start the player in a dingy ramen shop in the lower levels where a job offer arrives.`,
}

const gameMasterInstructions = `You are a dynamic Game Master running an interactive %s adventure.

UNIVERSE & TONE:
%s

CORE GM RESPONSIBILITIES:
1. Describe scenes vividly but concisely (2-3 sentences per scene)
2. Make the world feel alive by introducing NPCs, challenges, and consequences
3. Remember every detail the player mentions: locations, character names, items
4. Build tension and pacing, alternating between action, exploration, and dialogue
5. Honor player choices, your story adapts based on what they do

CONVERSATION STRUCTURE:
- Describe the current scene and the player's situation
- Present 1-3 realistic options or open-ended possibilities
- Ask "What do you do?" to prompt the player's action
- React dynamically to their choice, updating the world state
- When the player wraps up, call log_session with a title and a short summary

Remember: You're speaking to one player via voice. Keep responses natural, conversational, and under 150 words per turn.`

// ResolveUniverse returns universe if known, otherwise DefaultUniverse.
func ResolveUniverse(universe string) string {
	if _, ok := universes[universe]; ok {
		return universe
	}
	return DefaultUniverse
}

// GameSession is the game master's session state.
type GameSession struct {
	Universe string
	Turns    int
}

// GameLog is the persisted session record.
type GameLog struct {
	Timestamp string `json:"timestamp"`
	Universe  string `json:"universe"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Turns     int    `json:"turns"`
}

type logSessionArgs struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func newGameMaster(deps Deps, profile persona.Persona, init Init) *Definition {
	universe := ResolveUniverse(init.Universe)
	game := &GameSession{Universe: universe}
	log := logFor(persona.GameMaster).WithField("universe", universe)

	logSession := tools.New("log_session",
		"Save a session log for record-keeping.",
		tools.Params{
			"title":   {Type: schema.String, Desc: "Title of the gaming session", Required: true},
			"summary": {Type: schema.String, Desc: "Brief summary of what happened", Required: true},
		},
		func(_ context.Context, args logSessionArgs) (tools.Result, error) {
			record := GameLog{
				Timestamp: deps.Records.Now().Format(time.RFC3339),
				Universe:  game.Universe,
				Title:     args.Title,
				Summary:   args.Summary,
				Turns:     game.Turns,
			}
			if _, err := deps.Records.SaveGameSession(args.Title, record); err != nil {
				log.WithError(err).Error("save game session")
				return tools.Say("The chronicle could not be written just now. Let's try saving again in a moment."), nil
			}
			return tools.Say(fmt.Sprintf("Session saved! You completed '%s' in %d turns.", args.Title, game.Turns)), nil
		},
	)

	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(gameMasterInstructions, universe, universes[universe]),
		Tools:        tools.NewSet(logSession),
		State:        game,
		OnUserTurn: func(string) {
			game.Turns++
		},
	}
}
