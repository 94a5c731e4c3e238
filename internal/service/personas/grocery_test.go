package personas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/voicedesk/backend/internal/model/persona"
	"github.com/zhouzirui/voicedesk/backend/internal/model/reference"
)

func TestSearchCatalogMatchesNameCategoryOrTag(t *testing.T) {
	catalog := reference.DefaultCatalog()

	for _, query := range []string{"pasta", "PANTRY", "vegan", "spread"} {
		found := SearchCatalog(catalog, query)
		require.NotEmpty(t, found, query)
		require.LessOrEqual(t, len(found), 5)
		needle := strings.ToLower(query)
		for _, item := range found {
			require.True(t, matchesItem(item, needle), "%s should match %s", item.ID, query)
		}
	}

	require.Empty(t, SearchCatalog(catalog, "caviar"))
}

func TestSearchToolReportsMiss(t *testing.T) {
	f := newFixture(t)
	def := f.build(t, persona.Grocery, Init{})

	result := invoke(def, "available_items", `{"search_term":"caviar"}`)
	require.Equal(t, "Sorry, I couldn't find 'caviar' in our catalog.", result.Text)

	result = invoke(def, "available_items", `{"search_term":"milk"}`)
	require.Equal(t, "Here's what I found:\n- Whole Milk (Horizon) - $4.29 (1 gallon)\n", result.Text)
}

func TestAddToCartMergesLines(t *testing.T) {
	f := newFixture(t)
	def := f.build(t, persona.Grocery, Init{})
	cart := def.State.(*Cart)

	first := invoke(def, "add_to_cart", `{"item_name":"whole milk"}`)
	require.Equal(t, "Added 1 Whole Milk to your cart for $4.29.", first.Text)

	second := invoke(def, "add_to_cart", `{"item_name":"Whole Milk","quantity":2}`)
	require.Equal(t, "Updated! Now you have 3 of Whole Milk in your cart.", second.Text)

	require.Len(t, cart.Lines, 1)
	require.Equal(t, 3, cart.Lines[0].Quantity)
	require.InDelta(t, 4.29*3, cart.Lines[0].Total, 1e-9)

	miss := invoke(def, "add_to_cart", `{"item_name":"dragon fruit"}`)
	require.Equal(t, "Sorry, I couldn't find 'dragon fruit' in our catalog. Would you like me to search for similar items?", miss.Text)
}

func TestResolveItemPrefersExactName(t *testing.T) {
	catalog := reference.Catalog{Categories: map[string][]reference.CatalogItem{
		"a": {{ID: "pb_cookies", Name: "Peanut Butter Cookies", Price: 3}},
		"b": {{ID: "pb", Name: "Peanut Butter", Price: 4}},
	}}

	item, ok := ResolveItem(catalog, "peanut butter")
	require.True(t, ok)
	require.Equal(t, "pb", item.ID)

	item, ok = ResolveItem(catalog, "cookies")
	require.True(t, ok)
	require.Equal(t, "pb_cookies", item.ID)

	item, ok = ResolveItem(catalog, "two jars of peanut butter please")
	require.True(t, ok)
	require.Equal(t, "pb", item.ID)
}

func TestRecipeExpansionMergesWithCart(t *testing.T) {
	f := newFixture(t)
	def := f.build(t, persona.Grocery, Init{})
	cart := def.State.(*Cart)

	invoke(def, "add_to_cart", `{"item_name":"Whole Wheat Bread"}`)
	result := invoke(def, "add_recipe_to_cart", `{"recipe_name":"Peanut Butter Sandwich"}`)
	require.Equal(t, "Perfect! I've added all ingredients for Peanut Butter Sandwich: Whole Wheat Bread, Creamy Peanut Butter, Strawberry Jam. Your cart has been updated!", result.Text)

	quantities := map[string]int{}
	for _, line := range cart.Lines {
		quantities[line.ItemID] = line.Quantity
	}
	require.Equal(t, map[string]int{"bread_whole_wheat": 2, "peanut_butter": 1, "jam_strawberry": 1}, quantities)

	miss := invoke(def, "add_recipe_to_cart", `{"recipe_name":"lasagna"}`)
	require.True(t, strings.HasPrefix(miss.Text, "I don't have a specific recipe for 'lasagna'. Try: "))
	require.Len(t, cart.Lines, 3)
}

func TestViewCart(t *testing.T) {
	f := newFixture(t)
	def := f.build(t, persona.Grocery, Init{})

	require.Equal(t, "Your cart is empty!", invoke(def, "view_cart", "{}").Text)

	invoke(def, "add_to_cart", `{"item_name":"Spaghetti Pasta","quantity":2}`)
	require.Equal(t, "Here's what's in your cart:\n- 2x Spaghetti Pasta - $3.98\n\nTotal: $3.98", invoke(def, "view_cart", "").Text)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	def := f.build(t, persona.Grocery, Init{})
	ordersDir := filepath.Join(f.dir, "orders")

	empty := invoke(def, "place_order", `{"customer_name":"Sam Lee"}`)
	require.Equal(t, "Your cart is empty! Please add items before placing an order.", empty.Text)
	require.Empty(t, filesIn(t, ordersDir))

	invoke(def, "add_recipe_to_cart", `{"recipe_name":"pasta dinner"}`)
	invoke(def, "add_to_cart", `{"item_name":"pasta","quantity":1}`)
	placed := invoke(def, "place_order", `{"customer_name":"Sam Lee"}`)
	require.Equal(t, "Perfect! Your order for 4 items totaling $16.26 has been placed and saved. Thank you for shopping at FreshMart, Sam Lee!", placed.Text)

	files := filesIn(t, ordersDir)
	require.Len(t, files, 1)
	require.Equal(t, "order_sam_lee_20251124_093000.json", filepath.Base(files[0]))

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var order GroceryOrder
	require.NoError(t, sonic.Unmarshal(raw, &order))
	require.Equal(t, "Sam Lee", order.CustomerName)
	require.Len(t, order.Items, 3)
	require.InDelta(t, 16.26, order.Total, 1e-9)

	require.Empty(t, def.State.(*Cart).Lines)
}
