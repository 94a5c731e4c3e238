// Package tools holds the tool-calling plumbing shared by every persona: the
// schema advertised to the model, typed argument binding, and a dispatcher
// that turns failures into something the assistant can say out loud.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/voicedesk/backend/pkg/logger"
)

// Result is what a tool hands back to the conversation shell.
type Result struct {
	// Text is spoken back to the model as the tool output.
	Text string
	// SwitchTo, when set, names the persona that takes over the session.
	SwitchTo string
}

// Say continues with the current persona.
func Say(text string) Result {
	return Result{Text: text}
}

// Handoff transfers the session to another persona.
func Handoff(personaID, text string) Result {
	return Result{Text: text, SwitchTo: personaID}
}

// Params is shorthand for a tool's parameter table.
type Params map[string]*schema.ParameterInfo

// Tool couples the advertised schema with its handler.
type Tool struct {
	Info *schema.ToolInfo
	run  func(ctx context.Context, arguments string) (Result, error)
}

// New builds a tool whose JSON arguments are decoded into T before fn runs.
func New[T any](name, desc string, params Params, fn func(ctx context.Context, args T) (Result, error)) Tool {
	info := &schema.ToolInfo{Name: name, Desc: desc}
	if len(params) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	}

	return Tool{
		Info: info,
		run: func(ctx context.Context, arguments string) (Result, error) {
			var args T
			if raw := strings.TrimSpace(arguments); raw != "" && raw != "null" {
				if err := sonic.UnmarshalString(raw, &args); err != nil {
					return Result{}, &ArgumentError{Tool: name, Err: err}
				}
			}
			return fn(ctx, args)
		},
	}
}

// ArgumentError reports tool arguments that could not be decoded.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool %s: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Spoken fallbacks used when a call cannot be completed.
const (
	unknownToolReply = "Sorry, I can't do that right now."
	badArgsReply     = "Sorry, I didn't catch all the details for that. Could you say it again?"
	failedToolReply  = "I apologize, something went wrong on my side. Let's try that again in a moment."
)

// Set is an ordered collection of tools available to one persona.
type Set struct {
	order []string
	byKey map[string]Tool
}

// NewSet indexes the given tools by name. Later duplicates replace earlier ones.
func NewSet(items ...Tool) *Set {
	set := &Set{byKey: make(map[string]Tool, len(items))}
	for _, item := range items {
		if _, exists := set.byKey[item.Info.Name]; !exists {
			set.order = append(set.order, item.Info.Name)
		}
		set.byKey[item.Info.Name] = item
	}
	return set
}

// Infos returns the schemas in registration order.
func (s *Set) Infos() []*schema.ToolInfo {
	if s == nil {
		return nil
	}
	infos := make([]*schema.ToolInfo, 0, len(s.order))
	for _, name := range s.order {
		infos = append(infos, s.byKey[name].Info)
	}
	return infos
}

// Names lists the tool names in registration order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Has reports whether a tool is registered.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byKey[name]
	return ok
}

// Dispatch runs one tool call. It never fails: unknown tools, undecodable
// arguments and tool errors are logged and converted into an apology.
func (s *Set) Dispatch(ctx context.Context, call schema.ToolCall) Result {
	log := logger.Component("tools").WithFields(logrus.Fields{
		"tool":   call.Function.Name,
		"callId": call.ID,
	})

	if s == nil {
		log.Warn("no tools registered")
		return Say(unknownToolReply)
	}

	item, ok := s.byKey[call.Function.Name]
	if !ok {
		log.Warn("unknown tool requested")
		return Say(unknownToolReply)
	}

	result, err := item.run(ctx, call.Function.Arguments)
	if err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			log.WithError(err).Warn("tool arguments rejected")
			return Say(badArgsReply)
		}
		log.WithError(err).Error("tool failed")
		return Say(failedToolReply)
	}

	log.WithField("switchTo", result.SwitchTo).Debug("tool completed")
	return result
}
