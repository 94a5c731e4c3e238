package personas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

const sdrInstructions = `You are a friendly and professional Sales Development Representative (SDR) for %s.

Company Overview:
%s

Key features:
%s

Your Role:
You help potential customers understand how %s can solve their needs. You're knowledgeable, helpful, and focused on understanding the customer's requirements.

Conversation Flow:
1. Start with a warm greeting and ask what brought them here today
2. Listen to their needs and ask clarifying questions
3. Answer their questions using the answer_faq tool
4. Naturally collect lead information during the conversation with update_lead_info: name, company, email, role, use_case, team_size (1, 2-10, 11-50, 50+, or N/A), timeline (now, within 1 month, within 3 months, just exploring)
5. When the user indicates they're done, give a brief summary and use the save_lead_summary tool

Guidelines:
- Be conversational and natural, you're speaking via voice
- Ask for information gradually, don't interrogate
- If you don't know something that's not in the FAQ, be honest and offer to connect them with the team
- Always confirm email addresses by spelling them out`

// Lead is the SDR persona's session state and the persisted lead record.
type Lead struct {
	Name              string   `json:"name"`
	Company           string   `json:"company"`
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	UseCase           string   `json:"use_case"`
	TeamSize          string   `json:"team_size"`
	Timeline          string   `json:"timeline"`
	ConversationNotes []string `json:"conversation_notes"`
	Timestamp         string   `json:"timestamp"`
}

// Set updates a single lead field by its spoken key.
func (l *Lead) Set(field, value string) bool {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		l.Name = value
	case "company":
		l.Company = value
	case "email":
		l.Email = value
	case "role":
		l.Role = value
	case "use_case":
		l.UseCase = value
	case "team_size":
		l.TeamSize = value
	case "timeline":
		l.Timeline = value
	default:
		return false
	}
	return true
}

const faqMissReply = "I don't have specific information about that in my knowledge base, but I'd be happy to connect you with our team who can provide detailed answers. Could you tell me a bit more about what you're looking for?"

// AnswerFAQ matches question keywords longer than three characters against
// each FAQ question and answer, combining at most two answers.
func AnswerFAQ(faq reference.CompanyFAQ, question string) string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		if len(word) > 3 {
			keywords = append(keywords, word)
		}
	}

	var answers []string
	for _, entry := range faq.FAQs {
		q := strings.ToLower(entry.Question)
		a := strings.ToLower(entry.Answer)
		for _, keyword := range keywords {
			if strings.Contains(q, keyword) || strings.Contains(a, keyword) {
				answers = append(answers, entry.Answer)
				break
			}
		}
	}

	switch len(answers) {
	case 0:
		return faqMissReply
	case 1:
		return answers[0]
	default:
		return "Here's what I can tell you: " + strings.Join(answers[:2], " ")
	}
}

type faqArgs struct {
	UserQuestion string `json:"user_question"`
}

type leadFieldArgs struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type leadSummaryArgs struct {
	SummaryNotes string `json:"summary_notes"`
}

func newSDR(deps Deps, profile persona.Persona, _ Init) *Definition {
	faq := deps.Reference.FAQ
	lead := &Lead{ConversationNotes: []string{}}
	log := logFor(persona.SDR)

	answer := tools.New("answer_faq",
		"Search the FAQ knowledge base for the user's question about the company, product, or pricing.",
		tools.Params{
			"user_question": {Type: schema.String, Desc: "The user's question about the company, product, or pricing", Required: true},
		},
		func(_ context.Context, args faqArgs) (tools.Result, error) {
			return tools.Say(AnswerFAQ(faq, args.UserQuestion)), nil
		},
	)

	update := tools.New("update_lead_info",
		"Update lead information as you collect it during the conversation.",
		tools.Params{
			"field": {
				Type:     schema.String,
				Desc:     "The field to update",
				Enum:     []string{"name", "company", "email", "role", "use_case", "team_size", "timeline"},
				Required: true,
			},
			"value": {Type: schema.String, Desc: "The value for this field", Required: true},
		},
		func(_ context.Context, args leadFieldArgs) (tools.Result, error) {
			if !lead.Set(args.Field, args.Value) {
				return tools.Say("I couldn't update that field."), nil
			}
			log.WithField("field", args.Field).Debug("lead field updated")
			return tools.Say(fmt.Sprintf("Got it, I've noted your %s.", args.Field)), nil
		},
	)

	save := tools.New("save_lead_summary",
		"Save the complete lead information and conversation summary when the call is ending.",
		tools.Params{
			"summary_notes": {Type: schema.String, Desc: "A brief summary of the conversation and the lead's interests and needs", Required: true},
		},
		func(_ context.Context, args leadSummaryArgs) (tools.Result, error) {
			lead.Timestamp = deps.Records.Now().Format(time.RFC3339)
			lead.ConversationNotes = append(lead.ConversationNotes, args.SummaryNotes)

			if _, err := deps.Records.SaveLead(lead.Name, lead); err != nil {
				log.WithError(err).Error("save lead")
				return tools.Say("I'm sorry, I couldn't save your details just now. Our team can still reach out if you share your email again later."), nil
			}

			name := lead.Name
			if name == "" {
				name = "the prospect"
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Perfect! I've captured all the details for %s", name)
			if lead.Company != "" {
				fmt.Fprintf(&b, " from %s", lead.Company)
			}
			b.WriteString(". ")
			if lead.UseCase != "" {
				fmt.Fprintf(&b, "You're interested in %s. ", lead.UseCase)
			}
			if lead.Timeline != "" {
				fmt.Fprintf(&b, "Timeline: %s. ", lead.Timeline)
			}
			b.WriteString("Our team will review your information and reach out shortly. Thanks for your time today!")
			return tools.Say(b.String()), nil
		},
	)

	features := "- " + strings.Join(faq.KeyFeatures, "\n- ")
	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(sdrInstructions, faq.CompanyName, faq.Description, features, faq.CompanyName),
		Tools:        tools.NewSet(answer, update, save),
		State:        lead,
	}
}
