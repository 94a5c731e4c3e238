// Package personas builds the runtime definition of every assistant persona:
// its instructions, its tool set and the per-session state those tools mutate.
package personas

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/service/records"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

// Definition is a persona ready to run in a session.
type Definition struct {
	Profile      persona.Persona
	Instructions string
	Tools        *tools.Set
	// State is the persona specific session state, exposed for inspection.
	State interface{}
	// OnUserTurn, when set, is called once for every user utterance.
	OnUserTurn func(text string)
}

// ID returns the persona id.
func (d *Definition) ID() string {
	return d.Profile.ID
}

// Voice returns the TTS voice the persona speaks with.
func (d *Definition) Voice() string {
	return d.Profile.VoiceID
}

// Init carries session start parameters.
type Init struct {
	Universe string `json:"universe"`
	Room     string `json:"-"`
}

// ParseMetadata reads room metadata. Anything unparseable is ignored.
func ParseMetadata(raw string) Init {
	var init Init
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return init
	}
	if err := sonic.UnmarshalString(raw, &init); err != nil {
		logger.Component("personas").WithError(err).Debug("ignoring malformed room metadata")
		return Init{}
	}
	init.Universe = strings.ToLower(strings.TrimSpace(init.Universe))
	return init
}

// Deps are the shared collaborators persona tools work against.
type Deps struct {
	Reference reference.Data
	Records   *records.Store
	Fraud     fraud.Store
}

type factory func(deps Deps, profile persona.Persona, init Init) *Definition

// Registry is the dispatch table from persona id to constructor.
type Registry struct {
	deps      Deps
	profiles  persona.Store
	factories map[string]factory
}

// NewRegistry wires every known persona.
func NewRegistry(profiles persona.Store, deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		profiles: profiles,
		factories: map[string]factory{
			persona.Barista:        newBarista,
			persona.Fraud:          newFraud,
			persona.GameMaster:     newGameMaster,
			persona.Grocery:        newGrocery,
			persona.SDR:            newSDR,
			persona.Wellness:       newWellness,
			persona.Tutor:          newTutorGreeter,
			persona.TutorLearn:     newTutorLearn,
			persona.TutorQuiz:      newTutorQuiz,
			persona.TutorTeachBack: newTutorTeachBack,
		},
	}
}

// Has reports whether id can be built.
func (r *Registry) Has(id string) bool {
	_, ok := r.factories[id]
	if !ok {
		return false
	}
	_, ok = r.profiles.FindByID(id)
	return ok
}

// Build constructs a fresh definition with empty state.
func (r *Registry) Build(id string, init Init) (*Definition, bool) {
	build, ok := r.factories[id]
	if !ok {
		return nil, false
	}
	profile, ok := r.profiles.FindByID(id)
	if !ok {
		return nil, false
	}
	return build(r.deps, profile, init), true
}

// Profiles exposes the backing profile store.
func (r *Registry) Profiles() persona.Store {
	return r.profiles
}

func logFor(personaID string) *logrus.Entry {
	return logger.Component("personas").WithField("persona", personaID)
}
