// Package units parses quantity strings and converts observed prices
// to the price of a requested target quantity.
package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bachat-dev/bachat/internal/model"
)

// Class is the unit class a quantity normalizes to.
type Class string

// Unit classes. Mass normalizes to kilograms, volume to litres, and
// everything else counts as discrete units.
const (
	ClassMass   Class = "kg"
	ClassVolume Class = "l"
	ClassCount  Class = "unit"
)

// Quantity is a parsed quantity string.
type Quantity struct {
	Class Class
	Value float64
}

// Calculated is the price of an observation scaled to a target quantity.
type Calculated struct {
	Price      float64
	IsEstimate bool
}

var numberPattern = regexp.MustCompile(`[\d.]+`)

// ParseQty parses strings like "500g", "1.5 kg", "2 units" or "1
// litre" into a normalized quantity. Missing or unparseable input
// defaults to one count unit; a zero value is treated as one.
func ParseQty(raw string) Quantity {
	if strings.TrimSpace(raw) == "" {
		return Quantity{Value: 1, Class: ClassCount}
	}

	value := 1.0
	if m := numberPattern.FindString(raw); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil && v != 0 {
			value = v
		}
	}

	unit := strings.TrimSpace(strings.ToLower(numberPattern.ReplaceAllString(raw, "")))

	switch unit {
	case "g", "gm", "gram", "grams":
		return Quantity{Value: value / 1000, Class: ClassMass}
	case "ml", "millilitre", "milliliter":
		return Quantity{Value: value / 1000, Class: ClassVolume}
	case "kg", "kilo", "kilogram", "kilograms":
		return Quantity{Value: value, Class: ClassMass}
	case "l", "litre", "liter", "litres", "liters":
		return Quantity{Value: value, Class: ClassVolume}
	}

	return Quantity{Value: value, Class: ClassCount}
}

// CalculateTotal scales an observed price to the target quantity.
// Matching unit classes convert exactly; when one side is a count the
// price is scaled by the raw value ratio as a best effort. Returns nil
// only when the observation carries no price.
func CalculateTotal(obs model.PriceObservation, targetQty string) *Calculated {
	if obs.Price == 0 {
		return nil
	}

	target := ParseQty(targetQty)
	source := ParseQty(obs.Unit)

	finalPrice := obs.Price

	switch {
	case target.Class == source.Class:
		finalPrice = round2(obs.Price / source.Value * target.Value)
	case target.Class == ClassCount || source.Class == ClassCount:
		finalPrice = round2(obs.Price * (target.Value / source.Value))
	}

	return &Calculated{
		Price:      finalPrice,
		IsEstimate: obs.IsEstimate,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
