package personas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	model "github.com/zhouzirui/voicedesk/backend/internal/model/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/fraud"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

const fraudInstructions = `You are a professional fraud detection representative for ICICI Bank.
Your name is Aditya and you are calling from the ICICI Bank Fraud Detection Desk.

Your responsibility is to contact customers regarding suspicious or unverified transactions detected on their account.

FRAUD CASE FLOW:
1. Start the call with a warm and professional greeting. Introduce yourself as "Aditya from ICICI Bank's Fraud Detection Department."
2. Ask the customer for their NAME so you can load the fraud case.
3. Once they provide the name, call the load_fraud_case tool to retrieve their case details.
4. Ask for their 5-digit Security Identifier.
5. When the customer provides the Security Identifier, call the verify_security_identifier tool.
6. If verification FAILS, politely say it does not match and offer ONE more attempt. If the second attempt also fails, apologize, explain you cannot proceed, advise them to contact ICICI Bank customer support, and end the call.
7. If verification PASSES, read out the suspicious transaction details from the tool result and ask: "Did you make this transaction?"
8. Based on their answer, call update_fraud_case with "safe" if they confirm the transaction or "fraudulent" if they deny it.
9. End the call professionally and reassure them that ICICI Bank is committed to their account security.

IMPORTANT RULES:
- NEVER ask for full card numbers, PINs, CVV, OTPs, net banking passwords, or any sensitive credentials.
- Maintain a calm, reassuring, and professional tone. Keep responses short, clear, and polite.
- DO NOT proceed to transaction verification until the Security Identifier is successfully verified.
- If the customer requests sensitive information, politely redirect them to official ICICI Bank support channels.`

// CallState is a position in the verification flow.
type CallState string

const (
	StateAwaitingCase CallState = "awaiting_case"
	StateUnverified   CallState = "unverified"
	StateVerified     CallState = "verified"
	StateResolved     CallState = "resolved"
	StateLocked       CallState = "locked"
)

// maxVerifyAttempts failures move the call to StateLocked.
const maxVerifyAttempts = 2

// FraudCall is the fraud persona's session state.
type FraudCall struct {
	State    CallState
	Case     *model.Case
	Attempts int
}

// NormalizeIdentifier strips spaces and dashes from a security identifier.
func NormalizeIdentifier(raw string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(raw)
}

type loadCaseArgs struct {
	UserName string `json:"user_name"`
}

type verifyArgs struct {
	ProvidedIdentifier string `json:"provided_identifier"`
}

type updateCaseArgs struct {
	CaseStatus       string `json:"case_status"`
	CustomerResponse string `json:"customer_response"`
}

func newFraud(deps Deps, profile persona.Persona, _ Init) *Definition {
	call := &FraudCall{State: StateAwaitingCase}
	log := logFor(persona.Fraud)

	loadCase := tools.New("load_fraud_case",
		"Load the pending fraud case for the given customer name.",
		tools.Params{
			"user_name": {Type: schema.String, Desc: "The customer's name to look up their fraud case", Required: true},
		},
		func(ctx context.Context, args loadCaseArgs) (tools.Result, error) {
			switch call.State {
			case StateLocked:
				return tools.Say(lockedReply), nil
			case StateResolved:
				return tools.Say("This case has already been resolved. Is there anything else I can help you with today?"), nil
			case StateUnverified:
				// 已加载的 case 不重新查询，attempts 不清零
				return tools.Say("I already have your account pulled up. To continue, I need to verify your identity. Can you please provide your 5-digit Security Identifier?"), nil
			case StateVerified:
				return tools.Say("I already have your account pulled up and your identity is verified. Did you authorize the transaction we flagged?"), nil
			}

			found, err := deps.Fraud.FindPending(ctx, args.UserName)
			if errors.Is(err, fraud.ErrCaseNotFound) {
				return tools.Say(fmt.Sprintf("I'm sorry, I don't see any pending fraud alerts for %s. Please double-check the name or contact our main customer service line.", args.UserName)), nil
			}
			if err != nil {
				log.WithError(err).Error("load fraud case")
				return tools.Say("I apologize, there was an error accessing your case. Please try again or contact our fraud department directly."), nil
			}

			call.Case = found
			call.State = StateUnverified
			call.Attempts = 0
			log.WithField("caseId", found.ID).Info("fraud case loaded")
			return tools.Say(fmt.Sprintf("Thank you, %s. I've pulled up your account. Before we proceed, I need to verify your identity. Can you please provide your 5-digit Security Identifier?", args.UserName)), nil
		},
	)

	verify := tools.New("verify_security_identifier",
		"Verify if the security identifier provided by the customer matches the one on file.",
		tools.Params{
			"provided_identifier": {Type: schema.String, Desc: "The 5-digit security identifier provided by the customer", Required: true},
		},
		func(_ context.Context, args verifyArgs) (tools.Result, error) {
			switch call.State {
			case StateAwaitingCase:
				return tools.Say("I need to load your account information first. Can you please provide your name?"), nil
			case StateLocked:
				return tools.Say(lockedReply), nil
			case StateVerified, StateResolved:
				return tools.Say("Your identity has already been verified."), nil
			}

			if NormalizeIdentifier(args.ProvidedIdentifier) == NormalizeIdentifier(call.Case.SecurityIdentifier) {
				call.State = StateVerified
				c := call.Case
				log.WithField("caseId", c.ID).Info("security identifier verified")
				return tools.Say(fmt.Sprintf(
					"Thank you, your identity has been verified. Now, regarding the suspicious transaction: We detected a charge from %s on your card ending in %s at %s, categorized as %s via %s. Did you authorize this transaction?",
					c.TransactionName, c.CardEnding, c.TransactionTime, c.TransactionCategory, c.TransactionSource,
				)), nil
			}

			call.Attempts++
			log.WithField("attempts", call.Attempts).Warn("security identifier mismatch")
			if call.Attempts >= maxVerifyAttempts {
				call.State = StateLocked
				return tools.Say(lockedReply), nil
			}
			return tools.Say("I'm sorry, but the Security Identifier you provided doesn't match our records. For your security, would you like to try again, or would you prefer to call our fraud department directly?"), nil
		},
	)

	update := tools.New("update_fraud_case",
		"Record the customer's answer about the suspicious transaction. Only call this after the identity has been verified.",
		tools.Params{
			"case_status":       {Type: schema.String, Desc: "'safe' if the customer made the transaction, 'fraudulent' otherwise", Required: true},
			"customer_response": {Type: schema.String, Desc: "Short note of what the customer said", Required: true},
		},
		func(ctx context.Context, args updateCaseArgs) (tools.Result, error) {
			switch call.State {
			case StateAwaitingCase:
				return tools.Say("I need to load your account information first. Can you please provide your name?"), nil
			case StateUnverified:
				return tools.Say("Before I can update anything, I need to verify your identity. Can you please provide your 5-digit Security Identifier?"), nil
			case StateLocked:
				return tools.Say(lockedReply), nil
			case StateResolved:
				return tools.Say("This case has already been resolved. Is there anything else I can help you with today?"), nil
			}

			c := call.Case
			// 原样记录来电者给出的状态，只有精确的 "safe" 视为合法交易
			status := strings.TrimSpace(args.CaseStatus)
			safe := status == model.StatusSafe

			if err := deps.Fraud.Resolve(ctx, c.ID, status, args.CustomerResponse); err != nil {
				log.WithError(err).WithField("caseId", c.ID).Error("update fraud case")
				return tools.Say("I apologize, there was an issue updating your case. Please contact our fraud department directly at 1-800-SECURE."), nil
			}

			c.Status = status
			c.Outcome = args.CustomerResponse
			c.VerificationStatus = model.VerificationVerified
			call.State = StateResolved
			log.WithFields(logrus.Fields{"caseId": c.ID, "status": status}).Info("fraud case resolved")

			if safe {
				return tools.Say(fmt.Sprintf("Perfect, %s. I've marked this transaction as legitimate. No further action is needed. Your card ending in %s remains active. Thank you for confirming, and have a great day!", c.UserName, c.CardEnding)), nil
			}
			return tools.Say(fmt.Sprintf("I understand, %s. I've marked this as fraudulent. Your card ending in %s has been blocked for your protection, and we'll issue you a new card within 5-7 business days. We'll also open a dispute for this transaction. Is there anything else I can help you with today?", c.UserName, c.CardEnding)), nil
		},
	)

	return &Definition{
		Profile:      profile,
		Instructions: fraudInstructions,
		Tools:        tools.NewSet(loadCase, verify, update),
		State:        call,
	}
}

const lockedReply = "I'm sorry, but I'm unable to verify your identity, so I can't proceed with this call. Please contact ICICI Bank customer support for further assistance."
