package reference

import (
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// CatalogItem is a single sellable grocery item.
type CatalogItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Category string   `json:"category"`
	Size     string   `json:"size,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Recipe maps a dish to the catalog item ids it needs.
type Recipe struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// UnmarshalJSON accepts both {"name":..,"items":[..]} and a bare id list.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := sonic.Unmarshal(data, &ids); err != nil {
			return err
		}
		r.Items = ids
		return nil
	}

	type plain Recipe
	var decoded plain
	if err := sonic.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Recipe(decoded)
	return nil
}

// Catalog is the grocery catalog file: items grouped by category plus recipes.
type Catalog struct {
	Categories map[string][]CatalogItem `json:"catalog"`
	Recipes    map[string]Recipe        `json:"recipes"`
}

// CategoryNames returns the category keys in sorted order so lookups are
// deterministic regardless of map iteration.
func (c Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Items walks every item in deterministic order.
func (c Catalog) Items() []CatalogItem {
	var out []CatalogItem
	for _, name := range c.CategoryNames() {
		for _, item := range c.Categories[name] {
			if item.Category == "" {
				item.Category = name
			}
			out = append(out, item)
		}
	}
	return out
}

// ItemByID finds an item by its catalog id.
func (c Catalog) ItemByID(id string) (CatalogItem, bool) {
	for _, item := range c.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// RecipeKey normalizes a spoken recipe name into its catalog key.
func RecipeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// DefaultCatalog is used when no catalog file is available.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: map[string][]CatalogItem{
			"bakery": {
				{ID: "bread_whole_wheat", Name: "Whole Wheat Bread", Price: 3.49, Category: "bakery", Size: "1 loaf", Brand: "Nature's Own", Tags: []string{"bread", "vegan"}},
			},
			"dairy": {
				{ID: "milk_whole", Name: "Whole Milk", Price: 4.29, Category: "dairy", Size: "1 gallon", Brand: "Horizon", Tags: []string{"milk", "vegetarian"}},
				{ID: "eggs_large", Name: "Large Eggs", Price: 3.99, Category: "dairy", Size: "12 count", Brand: "Eggland's Best", Tags: []string{"eggs", "protein"}},
			},
			"pantry": {
				{ID: "peanut_butter", Name: "Creamy Peanut Butter", Price: 4.49, Category: "pantry", Size: "16 oz", Brand: "Jif", Tags: []string{"spread", "protein"}},
				{ID: "jam_strawberry", Name: "Strawberry Jam", Price: 3.79, Category: "pantry", Size: "18 oz", Brand: "Smucker's", Tags: []string{"spread", "fruit"}},
				{ID: "pasta_spaghetti", Name: "Spaghetti Pasta", Price: 1.99, Category: "pantry", Size: "16 oz", Brand: "Barilla", Tags: []string{"pasta", "vegan"}},
				{ID: "pasta_sauce", Name: "Marinara Sauce", Price: 3.29, Category: "pantry", Size: "24 oz", Brand: "Rao's", Tags: []string{"sauce", "vegan"}},
				{ID: "olive_oil", Name: "Extra Virgin Olive Oil", Price: 8.99, Category: "pantry", Size: "500 ml", Brand: "Bertolli", Tags: []string{"oil", "vegan"}},
			},
		},
		Recipes: map[string]Recipe{
			"peanut_butter_sandwich": {Name: "Peanut Butter Sandwich", Items: []string{"bread_whole_wheat", "peanut_butter", "jam_strawberry"}},
			"pasta_dinner":           {Name: "Pasta Dinner", Items: []string{"pasta_spaghetti", "pasta_sauce", "olive_oil"}},
			"breakfast":              {Name: "Breakfast", Items: []string{"bread_whole_wheat", "eggs_large", "milk_whole"}},
		},
	}
}
