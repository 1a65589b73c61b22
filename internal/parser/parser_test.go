package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestExtractFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected *float64
	}{
		{"Price with currency and separator", str("$1,234.56"), float(1234.56)},
		{"Large price", str("$1,299.99"), float(1299.99)},
		{"Millions", str("$1,234,567.00"), float(1234567)},
		{"Plain rating", str("4.5"), float(4.5)},
		{"Rating out of five", str("4.5 out of 5"), float(4.5)},
		{"Rating out of five stars", str("4.5 out of 5 stars"), float(4.5)},
		{"Leading decimal point", str(".99"), float(0.99)},
		{"Whole number", str("$89"), float(89)},
		{"Nil", nil, nil},
		{"Empty", str(""), nil},
		{"Whitespace", str("   "), nil},
		{"Text only", str("abc"), nil},
		{"Lone dot", str("."), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractFloat(tt.input)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.InDelta(t, *tt.expected, *result, 1e-9)
		})
	}
}

func TestExtractInt(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected *int
	}{
		{"Reviews with separator", str("1,024 reviews"), integer(1024)},
		{"Parenthesised", str("(87)"), integer(87)},
		{"Plain", str("12"), integer(12)},
		{"Nil", nil, nil},
		{"Empty", str(""), nil},
		{"Text only", str("no reviews"), nil},
		{"Overflow", str("99999999999999999999999"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractInt(tt.input)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, *tt.expected, *result)
		})
	}
}

func TestCountNumbers(t *testing.T) {
	assert.Equal(t, 0, CountNumbers(""))
	assert.Equal(t, 1, CountNumbers("$1,299.99"))
	assert.Equal(t, 2, CountNumbers("4.5 out of 5 stars"))
}

func TestPriceDisplay(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected *string
	}{
		{
			name:     "Price present",
			html:     `<div><span data-test-id="PriceDisplay"> $249.99 </span></div>`,
			expected: str("$249.99"),
		},
		{
			name: "First price wins",
			html: `<span data-test-id="PriceDisplay">$10.00</span>
				<span data-test-id="PriceDisplay">$12.00</span>`,
			expected: str("$10.00"),
		},
		{
			name:     "No price element",
			html:     `<div><span class="price">$5</span></div>`,
			expected: nil,
		},
		{
			name:     "Empty document",
			html:     ``,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := PriceDisplay(tt.html)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, price)
				return
			}
			require.NotNil(t, price)
			assert.Equal(t, *tt.expected, *price)
		})
	}
}

func float(f float64) *float64 { return &f }

func integer(i int) *int { return &i }
