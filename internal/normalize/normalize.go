// Package normalize cleans free-form grocery item names into stable
// cache keys. Meal generators emit names like "Aashirvaad Atta 5kg" or
// "Tamatar (2 pcs)"; pricing wants "atta" and "tomato".
package normalize

import (
	"regexp"
	"strings"
)

var (
	quantityPattern = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(kg|g|l|ml|gm|litre|liter)\b`)
	brandPattern    = regexp.MustCompile(`(?i)\b(aashirvaad|fortune|tata|india gate|daawat|amul|nestle|britannia|haldiram|mdh|everest|fresho|patanjali)\b`)
	punctPattern    = regexp.MustCompile(`[^\w\s]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// synonyms folds common local-language tokens to their canonical
// English form so "dahi" and "curd" share one cache key.
var synonyms = map[string]string{
	"chawal":  "rice",
	"dahi":    "curd",
	"doodh":   "milk",
	"aloo":    "potato",
	"pyaz":    "onion",
	"tamatar": "tomato",
	"gajar":   "carrot",
	"gobhi":   "cauliflower",
	"bhindi":  "okra",
	"baingan": "brinjal",
	"matar":   "peas",
	"palak":   "spinach",
	"adrak":   "ginger",
	"lahsun":  "garlic",
	"haldi":   "turmeric",
	"jeera":   "cumin",
	"dhaniya": "coriander",
	"namak":   "salt",
	"cheeni":  "sugar",
	"anda":    "egg",
	"makhan":  "butter",
}

// Clean normalizes a raw item name: quantity+unit tokens, known brand
// names, and punctuation are stripped, whitespace is collapsed, the
// result is lowercased, and local-language tokens are folded to their
// canonical form. Clean is idempotent and never fails; input that
// reduces to nothing yields an empty string.
func Clean(raw string) string {
	s := quantityPattern.ReplaceAllString(raw, "")
	s = brandPattern.ReplaceAllString(s, "")
	s = punctPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		if canonical, ok := synonyms[tok]; ok {
			tokens[i] = canonical
		}
	}
	return strings.Join(tokens, " ")
}
