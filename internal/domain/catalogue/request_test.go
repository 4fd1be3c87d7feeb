package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  ", nil},
		{"single", "101", []string{"101"}},
		{"trims and drops blanks", " 101, ,102 ,", []string{"101", "102"}},
		{"keeps invalid tokens", "5,x,-1", []string{"5", "x", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIDList(tt.input))
		})
	}
}

func TestCoercePositiveID(t *testing.T) {
	tests := []struct {
		token string
		want  int64
		ok    bool
	}{
		{"7", 7, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"x", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := CoercePositiveID(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIDs(t *testing.T) {
	t.Run("drops invalid and keeps first-seen order", func(t *testing.T) {
		assert.Equal(t, []int64{5, 7}, NormalizeIDs([]string{"5", "5", "x", "-1", "7"}))
	})

	t.Run("order follows input not value", func(t *testing.T) {
		assert.Equal(t, []int64{9, 3, 4}, NormalizeIDs([]string{"9", "3", "9", "4", "3"}))
	})

	t.Run("all invalid yields empty", func(t *testing.T) {
		assert.Empty(t, NormalizeIDs([]string{"0", "abc", "-3"}))
	})
}

func TestNormalizeCategoryIDs(t *testing.T) {
	assert.Equal(t, []int64{3, 1}, NormalizeCategoryIDs([]int64{3, 0, 1, 3, -2}))
}

func TestGenerationRequest_IsBlank(t *testing.T) {
	assert.True(t, GenerationRequest{}.IsBlank())
	assert.False(t, GenerationRequest{ExplicitIDs: []string{"x"}}.IsBlank())
	assert.False(t, GenerationRequest{CategoryIDs: []int64{1}}.IsBlank())
}

func TestExplicitRequest(t *testing.T) {
	req := ExplicitRequest(101, 102)
	assert.Equal(t, []string{"101", "102"}, req.ExplicitIDs)
	assert.Empty(t, req.CategoryIDs)
}
