package personas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

const baristaInstructions = `You are a friendly barista at Sunrise Coffee Co, a cozy neighborhood coffee shop known for exceptional drinks and warm service.

Your job is to take the customer's coffee order via voice conversation. Be warm, enthusiastic, and helpful!

You need to collect the following information for each order:
1. Drink type (e.g., latte, cappuccino, americano, cold brew, mocha)
2. Size (small, medium, or large)
3. Milk preference (whole, skim, oat, almond, soy, or none for black coffee)
4. Any extras (e.g., extra shot, vanilla syrup, caramel drizzle, whipped cream)
5. Customer's name for the order

Guidelines:
- Start by greeting the customer warmly and asking what they'd like to order
- Ask clarifying questions one at a time to make the conversation natural
- If the customer mentions multiple items at once, acknowledge them and ask about any missing details
- Confirm the order before finalizing
- Once you have all the information, use the save_order tool to save it
- If a customer asks for recommendations, suggest popular items

Remember: You're speaking to customers via voice, so keep it natural and conversational without complex formatting.`

// CoffeeOrder is the barista's session state and the persisted order record.
type CoffeeOrder struct {
	DrinkType string   `json:"drinkType"`
	Size      string   `json:"size"`
	Milk      string   `json:"milk"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name"`
	Timestamp string   `json:"timestamp,omitempty"`
}

type saveOrderArgs struct {
	DrinkType string   `json:"drink_type"`
	Size      string   `json:"size"`
	Milk      string   `json:"milk"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name"`
}

func newBarista(deps Deps, profile persona.Persona, _ Init) *Definition {
	state := &CoffeeOrder{Extras: []string{}}
	log := logFor(persona.Barista)

	saveOrder := tools.New("save_order",
		"Save the completed coffee order. Use this only when you have collected all order details from the customer.",
		tools.Params{
			"drink_type": {Type: schema.String, Desc: "The type of coffee drink ordered", Required: true},
			"size":       {Type: schema.String, Desc: "The size of the drink (small, medium, or large)", Required: true},
			"milk":       {Type: schema.String, Desc: "The type of milk or 'none' for black coffee", Required: true},
			"extras":     {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}, Desc: "List of any extras or modifications"},
			"name":       {Type: schema.String, Desc: "Customer's name for the order", Required: true},
		},
		func(_ context.Context, args saveOrderArgs) (tools.Result, error) {
			extras := args.Extras
			if extras == nil {
				extras = []string{}
			}
			*state = CoffeeOrder{
				DrinkType: args.DrinkType,
				Size:      args.Size,
				Milk:      args.Milk,
				Extras:    extras,
				Name:      args.Name,
				Timestamp: deps.Records.Now().Format(time.RFC3339),
			}

			if _, err := deps.Records.SaveOrder(args.Name, state); err != nil {
				log.WithError(err).Error("save coffee order")
				return tools.Say("I'm sorry, I couldn't save your order just now. Could we try that once more?"), nil
			}

			var milk, extra string
			if !strings.EqualFold(strings.TrimSpace(args.Milk), "none") {
				milk = fmt.Sprintf(" with %s milk", args.Milk)
			}
			if len(extras) > 0 {
				extra = " with " + strings.Join(extras, ", ")
			}
			return tools.Say(fmt.Sprintf(
				"Perfect! I've got your order saved: %s %s%s%s for %s. Your order will be ready in just a few minutes!",
				args.Size, args.DrinkType, milk, extra, args.Name,
			)), nil
		},
	)

	return &Definition{
		Profile:      profile,
		Instructions: baristaInstructions,
		Tools:        tools.NewSet(saveOrder),
		State:        state,
	}
}
