package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPreference(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantTerm     string
		wantPolarity Polarity
	}{
		{
			name:         "plain inclusion",
			input:        "high protein",
			wantTerm:     "high protein",
			wantPolarity: PolarityInclude,
		},
		{
			name:         "exclusion with lowercase prefix",
			input:        "no shellfish",
			wantTerm:     "shellfish",
			wantPolarity: PolarityExclude,
		},
		{
			name:         "exclusion with mixed case prefix",
			input:        "No Dairy",
			wantTerm:     "Dairy",
			wantPolarity: PolarityExclude,
		},
		{
			name:         "exclusion with uppercase prefix",
			input:        "NO gluten",
			wantTerm:     "gluten",
			wantPolarity: PolarityExclude,
		},
		{
			name:         "leading whitespace trimmed before prefix test",
			input:        "  no peanuts",
			wantTerm:     "peanuts",
			wantPolarity: PolarityExclude,
		},
		{
			name:         "word starting with no is not an exclusion",
			input:        "non-dairy milk",
			wantTerm:     "non-dairy milk",
			wantPolarity: PolarityInclude,
		},
		{
			name:         "bare no is an inclusion",
			input:        "no",
			wantTerm:     "no",
			wantPolarity: PolarityInclude,
		},
		{
			// Known limitation of the prefix heuristic: a product literally
			// named with a leading "no " token is treated as an exclusion.
			name:         "literal product name starting with no",
			input:        "no name crackers",
			wantTerm:     "name crackers",
			wantPolarity: PolarityExclude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, polarity := ClassifyPreference(tt.input)
			assert.Equal(t, tt.wantTerm, term)
			assert.Equal(t, tt.wantPolarity, polarity)
		})
	}
}

func TestCompilePreferences(t *testing.T) {
	set := CompilePreferences([]string{
		"no shellfish",
		"high protein",
		"organic",
		"No Dairy",
		"",
		"   ",
		"low sugar",
	})

	assert.Equal(t, []string{"shellfish", "Dairy"}, set.Exclusions)
	assert.Equal(t, []string{"high protein", "organic", "low sugar"}, set.Inclusions)
	assert.False(t, set.IsEmpty())
}

func TestCompilePreferencesEmpty(t *testing.T) {
	assert.True(t, CompilePreferences(nil).IsEmpty())
	assert.True(t, CompilePreferences([]string{"", "  "}).IsEmpty())
}

func TestComputeDiscount(t *testing.T) {
	d := Deal{SalePrice: 7.5, RegularPrice: 10}
	assert.InDelta(t, 25.0, d.ComputeDiscount(), 0.001)

	free := Deal{SalePrice: 1, RegularPrice: 0}
	assert.Zero(t, free.ComputeDiscount())
}
