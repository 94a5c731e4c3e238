package personas

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
	"github.com/zhouzirui/voicedesk/backend/internal/service/tools"
)

const groceryInstructions = `You are a friendly and helpful Food & Grocery Ordering Assistant for FreshMart, your local grocery and quick commerce store.

Your job is to take customer orders via voice conversation. Be warm, enthusiastic, and helpful!

When helping customers:
1. Greet them warmly and explain you can help them order groceries and prepared food
2. Understand what they want: specific items, quantities, or ingredients for a recipe
3. For recipe requests, use the add_recipe_to_cart tool, it adds every needed item
4. For specific items, use the add_to_cart tool with the item name and quantity
5. Use available_items to search if the customer asks about what's available
6. Show them their cart when they ask or after major additions
7. When they're done, use the place_order tool to save their order

Guidelines:
- Ask clarifying questions one at a time
- Common recipes: %s
- Confirm items before adding to cart
- When the customer says "that's all", "I'm done", "place my order", or similar, finalize the order
- Always confirm the final order before saving
- Keep responses short and conversational, no lists or complex formatting`

const maxSearchResults = 5

// CartLine is one item line in the shopping cart.
type CartLine struct {
	Name     string  `json:"name"`
	ItemID   string  `json:"item_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
}

// Cart is the grocery persona's session state.
type Cart struct {
	Lines []CartLine
}

// Add merges quantity into the line for item, creating it if needed, and
// returns the resulting line.
func (c *Cart) Add(item reference.CatalogItem, quantity int) (CartLine, bool) {
	for i := range c.Lines {
		if c.Lines[i].ItemID == item.ID {
			c.Lines[i].Quantity += quantity
			c.Lines[i].Total = c.Lines[i].Price * float64(c.Lines[i].Quantity)
			return c.Lines[i], true
		}
	}
	line := CartLine{
		Name:     item.Name,
		ItemID:   item.ID,
		Quantity: quantity,
		Price:    item.Price,
		Total:    item.Price * float64(quantity),
	}
	c.Lines = append(c.Lines, line)
	return line, false
}

// Total sums every line total.
func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Lines {
		total += line.Total
	}
	return total
}

// ItemCount sums line quantities.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// GroceryOrder is the persisted order record.
type GroceryOrder struct {
	CustomerName string     `json:"customer_name"`
	Timestamp    string     `json:"timestamp"`
	Items        []CartLine `json:"items"`
	Total        float64    `json:"total"`
}

// SearchCatalog returns up to five items whose name, category or any tag
// contains the query, case-insensitively.
func SearchCatalog(catalog reference.Catalog, query string) []reference.CatalogItem {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	var out []reference.CatalogItem
	for _, item := range catalog.Items() {
		if len(out) == maxSearchResults {
			break
		}
		if matchesItem(item, needle) {
			out = append(out, item)
		}
	}
	return out
}

func matchesItem(item reference.CatalogItem, needle string) bool {
	if strings.Contains(strings.ToLower(item.Name), needle) || strings.Contains(strings.ToLower(item.Category), needle) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// ResolveItem maps a spoken item name onto a catalog item. An exact
// case-insensitive name wins; otherwise the first item whose name contains
// the query, or is contained in it, in catalog order.
func ResolveItem(catalog reference.Catalog, spoken string) (reference.CatalogItem, bool) {
	needle := strings.ToLower(strings.TrimSpace(spoken))
	if needle == "" {
		return reference.CatalogItem{}, false
	}

	items := catalog.Items()
	for _, item := range items {
		if strings.ToLower(item.Name) == needle {
			return item, true
		}
	}
	for _, item := range items {
		name := strings.ToLower(item.Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return item, true
		}
	}
	return reference.CatalogItem{}, false
}

type searchArgs struct {
	SearchTerm string `json:"search_term"`
}

type addToCartArgs struct {
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type recipeArgs struct {
	RecipeName string `json:"recipe_name"`
}

type placeOrderArgs struct {
	CustomerName string `json:"customer_name"`
}

func newGrocery(deps Deps, profile persona.Persona, _ Init) *Definition {
	catalog := deps.Reference.Catalog
	cart := &Cart{}
	log := logFor(persona.Grocery)

	search := tools.New("available_items",
		"Search for available items in the catalog by name, category or tag.",
		tools.Params{
			"search_term": {Type: schema.String, Desc: "Item name or category to search for", Required: true},
		},
		func(_ context.Context, args searchArgs) (tools.Result, error) {
			found := SearchCatalog(catalog, args.SearchTerm)
			if len(found) == 0 {
				return tools.Say(fmt.Sprintf("Sorry, I couldn't find '%s' in our catalog.", args.SearchTerm)), nil
			}
			var b strings.Builder
			b.WriteString("Here's what I found:\n")
			for _, item := range found {
				fmt.Fprintf(&b, "- %s (%s) - $%.2f (%s)\n", item.Name, item.Brand, item.Price, item.Size)
			}
			return tools.Say(b.String()), nil
		},
	)

	addToCart := tools.New("add_to_cart",
		"Add an item to the customer's cart by name.",
		tools.Params{
			"item_name": {Type: schema.String, Desc: "The name of the item to add (e.g., 'milk', 'bread', 'pasta')", Required: true},
			"quantity":  {Type: schema.Integer, Desc: "Quantity to add, defaults to 1"},
		},
		func(_ context.Context, args addToCartArgs) (tools.Result, error) {
			item, ok := ResolveItem(catalog, args.ItemName)
			if !ok {
				return tools.Say(fmt.Sprintf("Sorry, I couldn't find '%s' in our catalog. Would you like me to search for similar items?", args.ItemName)), nil
			}
			quantity := args.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			line, merged := cart.Add(item, quantity)
			if merged {
				return tools.Say(fmt.Sprintf("Updated! Now you have %d of %s in your cart.", line.Quantity, item.Name)), nil
			}
			return tools.Say(fmt.Sprintf("Added %d %s to your cart for $%.2f.", quantity, item.Name, line.Total)), nil
		},
	)

	viewCart := tools.New("view_cart",
		"Show the customer what's currently in their cart.",
		nil,
		func(context.Context, struct{}) (tools.Result, error) {
			if len(cart.Lines) == 0 {
				return tools.Say("Your cart is empty!"), nil
			}
			var b strings.Builder
			b.WriteString("Here's what's in your cart:\n")
			for _, line := range cart.Lines {
				fmt.Fprintf(&b, "- %dx %s - $%.2f\n", line.Quantity, line.Name, line.Total)
			}
			fmt.Fprintf(&b, "\nTotal: $%.2f", cart.Total())
			return tools.Say(b.String()), nil
		},
	)

	addRecipe := tools.New("add_recipe_to_cart",
		"Add all items needed for a recipe to the cart automatically.",
		tools.Params{
			"recipe_name": {Type: schema.String, Desc: "Name of the recipe or dish (e.g., 'peanut butter sandwich', 'pasta dinner')", Required: true},
		},
		func(_ context.Context, args recipeArgs) (tools.Result, error) {
			key := reference.RecipeKey(args.RecipeName)
			recipe, ok := catalog.Recipes[key]
			if !ok {
				return tools.Say(fmt.Sprintf("I don't have a specific recipe for '%s'. Try: %s.", args.RecipeName, recipeSuggestions(catalog))), nil
			}
			title := recipe.Name
			if title == "" {
				title = strings.ReplaceAll(key, "_", " ")
			}

			var added []string
			for _, id := range recipe.Items {
				item, ok := catalog.ItemByID(id)
				if !ok {
					log.WithField("itemId", id).Warn("recipe references unknown item")
					continue
				}
				cart.Add(item, 1)
				added = append(added, item.Name)
			}
			if len(added) == 0 {
				return tools.Say(fmt.Sprintf("Couldn't add items for %s. Please try again.", title)), nil
			}
			return tools.Say(fmt.Sprintf("Perfect! I've added all ingredients for %s: %s. Your cart has been updated!", title, strings.Join(added, ", "))), nil
		},
	)

	placeOrder := tools.New("place_order",
		"Place the order and save it.",
		tools.Params{
			"customer_name": {Type: schema.String, Desc: "Customer's name for the order", Required: true},
		},
		func(_ context.Context, args placeOrderArgs) (tools.Result, error) {
			if len(cart.Lines) == 0 {
				return tools.Say("Your cart is empty! Please add items before placing an order."), nil
			}
			order := GroceryOrder{
				CustomerName: args.CustomerName,
				Timestamp:    deps.Records.Now().Format(time.RFC3339),
				Items:        append([]CartLine(nil), cart.Lines...),
				Total:        cart.Total(),
			}
			if _, err := deps.Records.SaveOrder(args.CustomerName, order); err != nil {
				log.WithError(err).Error("save grocery order")
				return tools.Say("I'm sorry, I couldn't place your order just now. Your cart is still saved, so let's try again in a moment."), nil
			}

			count := cart.ItemCount()
			cart.Lines = nil
			return tools.Say(fmt.Sprintf(
				"Perfect! Your order for %d items totaling $%.2f has been placed and saved. Thank you for shopping at FreshMart, %s!",
				count, order.Total, args.CustomerName,
			)), nil
		},
	)

	return &Definition{
		Profile:      profile,
		Instructions: fmt.Sprintf(groceryInstructions, recipeSuggestions(catalog)),
		Tools:        tools.NewSet(search, addToCart, viewCart, addRecipe, placeOrder),
		State:        cart,
	}
}

// recipeSuggestions lists recipe names, "a, b, or c".
func recipeSuggestions(catalog reference.Catalog) string {
	keys := make([]string, 0, len(catalog.Recipes))
	for key := range catalog.Recipes {
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return "peanut butter sandwich, pasta dinner, or breakfast"
	}
	sort.Strings(keys)

	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = strings.ReplaceAll(key, "_", " ")
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
}
