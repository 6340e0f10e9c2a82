package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips quantity and unit",
			input: "Atta 5kg",
			want:  "atta",
		},
		{
			name:  "strips decimal quantity",
			input: "Milk 1.5 l",
			want:  "milk",
		},
		{
			name:  "strips brand names",
			input: "Aashirvaad Atta",
			want:  "atta",
		},
		{
			name:  "strips brand and quantity together",
			input: "Fortune Sunflower Oil 1 litre",
			want:  "sunflower oil",
		},
		{
			name:  "strips punctuation",
			input: "Tomato (Hybrid)",
			want:  "tomato hybrid",
		},
		{
			name:  "folds synonyms",
			input: "Tamatar",
			want:  "tomato",
		},
		{
			name:  "folds synonym inside phrase",
			input: "Fresh Aloo 2kg",
			want:  "fresh potato",
		},
		{
			name:  "lowercases and collapses whitespace",
			input: "  BASMATI   Rice  ",
			want:  "basmati rice",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "reduces to nothing",
			input: "500g",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"Aashirvaad Atta 5kg",
		"Tamatar (2 pcs)",
		"Amul Doodh 500ml",
		"basmati rice",
	}

	for _, input := range inputs {
		once := Clean(input)
		assert.Equal(t, once, Clean(once), "Clean(%q) should be idempotent", input)
	}
}
