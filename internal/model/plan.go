package model

import "time"

// ShoppingListItem is one line of a meal plan's shopping list. Price is
// rewritten by the comparison engine once a comparison completes.
type ShoppingListItem struct {
	Item  string  `json:"item"`
	Qty   string  `json:"qty"`
	Price float64 `json:"price"`
}

// PlanData is the JSON document stored per meal plan.
type PlanData struct {
	PriceComparison   *ComparisonResult  `json:"priceComparison,omitempty"`
	ShoppingList      []ShoppingListItem `json:"shoppingList"`
	TotalCost         float64            `json:"totalCost"`
	ShoppingListStale bool               `json:"shoppingListStale,omitempty"`
}

// MealPlan is a stored weekly plan owning a shopping list.
type MealPlan struct {
	CreatedAt time.Time
	UserID    string
	Data      PlanData
	ID        int64
}

// RecomputeTotalCost sums the shopping-list item prices into TotalCost.
func (p *PlanData) RecomputeTotalCost() {
	total := 0.0
	for _, item := range p.ShoppingList {
		total += item.Price
	}
	p.TotalCost = total
}
