// Package estimate provides static market-rate price estimates used
// when no captured price exists for an item.
package estimate

import (
	"math"
	"sort"
	"strings"

	"github.com/bachat-dev/bachat/internal/model"
)

// defaultRate is the fallback when no category keyword matches.
const defaultRate = 75

// marketRates maps category keywords to typical market prices in INR.
// Grains, vegetables, dals and oils are per kg/litre; spices per 100g;
// eggs per dozen.
var marketRates = map[string]float64{
	// Grains & flours
	"atta": 45, "wheat": 45, "flour": 45, "maida": 40,
	"rice": 60, "basmati": 120, "brown rice": 80, "idli rice": 55,
	"rava": 50, "sooji": 50, "semolina": 50,
	"poha": 60, "beaten rice": 60,

	// Vegetables
	"potato": 30, "onion": 40, "tomato": 40, "carrot": 50,
	"cabbage": 35, "cauliflower": 45, "peas": 80,
	"okra": 60, "ladyfinger": 60, "brinjal": 50, "eggplant": 50,
	"capsicum": 80, "bell pepper": 80, "shimla mirch": 80,
	"beans": 60, "french beans": 60, "spinach": 40,
	"coriander": 40, "cilantro": 40, "mint": 30, "pudina": 30,
	"curry leaves": 20, "kadhi patta": 20,
	"ginger": 80, "garlic": 100,
	"green chilli": 60, "hari mirch": 60,
	"bottle gourd": 40, "lauki": 40, "ridge gourd": 50, "turai": 50,
	"bitter gourd": 60, "karela": 60, "pumpkin": 35, "kaddu": 35,

	// Cooking oils & fats
	"oil": 180, "sunflower": 180, "refined": 180,
	"mustard oil": 200, "sarson": 200,
	"groundnut": 220, "peanut": 220,
	"ghee": 500, "clarified butter": 500, "butter": 450,

	// Dairy
	"milk": 60, "curd": 60, "yogurt": 60,
	"paneer": 350, "cottage cheese": 350,
	"cheese": 400, "cream": 200, "malai": 200,

	// Pulses & lentils
	"dal": 110, "lentil": 110,
	"toor": 120, "arhar": 120, "pigeon pea": 120,
	"moong": 110, "green gram": 110,
	"masoor": 100, "red lentil": 100,
	"chana": 90, "chickpea": 90, "bengal gram": 90,
	"urad": 120, "black gram": 120,
	"rajma": 130, "kidney beans": 130,

	// Spices
	"salt": 20, "sugar": 45,
	"masala": 120, "spice": 120, "turmeric": 60,
	"chilli": 100, "mirch": 100, "red chilli": 100,
	"cumin": 120, "coriander powder": 80, "dhaniya powder": 80,
	"garam masala": 150, "black pepper": 200, "kali mirch": 200,
	"cardamom": 800, "elaichi": 800, "clove": 600, "laung": 600,
	"cinnamon": 300, "dalchini": 300, "bay leaf": 200, "tej patta": 200,
	"mustard seeds": 100, "rai": 100, "fenugreek": 80, "methi": 80,
	"asafoetida": 400, "hing": 400,

	// Packaged & processed
	"bread": 40, "pav": 30, "biscuit": 50, "cookie": 60,
	"jam": 120, "sauce": 100, "ketchup": 100,
	"pickle": 150, "achar": 150,
	"papad": 60, "vermicelli": 60, "sevai": 60,
	"noodles": 80, "pasta": 100,

	// Eggs, meat & fish
	"egg": 70, "chicken": 200, "fish": 350, "mutton": 600,

	// Beverages
	"tea": 350, "chai": 350, "coffee": 400, "water": 20,
}

// multipliers adjusts the base rate per platform, reflecting observed
// market positioning.
var multipliers = map[model.Platform]float64{
	model.PlatformBigBasket: 1.0,
	model.PlatformBlinkit:   1.15,
	model.PlatformZepto:     1.12,
	model.PlatformInstamart: 1.10,
}

// Table resolves normalized item names to estimated per-platform prices.
type Table struct {
	rates map[string]float64
	keys  []string
}

// NewTable builds a table over the built-in market rates. Keywords are
// scanned longest-first so the most specific category wins ("mustard
// oil" before "oil").
func NewTable() *Table {
	keys := make([]string, 0, len(marketRates))
	for k := range marketRates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &Table{rates: marketRates, keys: keys}
}

// BaseRate returns the market base rate for a normalized item name.
func (t *Table) BaseRate(normalizedName string) float64 {
	for _, key := range t.keys {
		if strings.Contains(normalizedName, key) {
			return t.rates[key]
		}
	}
	return defaultRate
}

// Estimate returns the estimated price for the item on the platform,
// rounded to two decimals. Unknown platforms use a 1.0 multiplier.
func (t *Table) Estimate(normalizedName string, platform model.Platform) float64 {
	mult, ok := multipliers[platform]
	if !ok {
		mult = 1.0
	}
	return math.Round(t.BaseRate(normalizedName)*mult*100) / 100
}

