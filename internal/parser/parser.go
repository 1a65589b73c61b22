package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	thousandsSeparator = regexp.MustCompile(`(\d),(\d{3})`)
	numberToken        = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
	nonDigit           = regexp.MustCompile(`[^\d]`)
)

// ExtractFloat parses the first number in a price or rating string.
// "$1,299.99" yields 1299.99 and "4.5 out of 5 stars" yields 4.5.
// A nil, empty or number-free input yields nil.
func ExtractFloat(text *string) *float64 {
	if text == nil {
		return nil
	}

	tokens := numberTokens(*text)
	if len(tokens) == 0 {
		return nil
	}

	value, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return nil
	}
	return &value
}

// ExtractInt drops every non-digit character and parses the rest,
// so "1,024 reviews" yields 1024. A nil, empty or digit-free input,
// or one that overflows int, yields nil.
func ExtractInt(text *string) *int {
	if text == nil {
		return nil
	}

	digits := nonDigit.ReplaceAllString(*text, "")
	if digits == "" {
		return nil
	}

	value, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &value
}

// CountNumbers reports how many distinct numbers appear in text.
// Callers use it to flag strings like "4.5 out of 5" where only the
// first number is meaningful.
func CountNumbers(text string) int {
	return len(numberTokens(text))
}

func numberTokens(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Applied twice so runs like 1,234,567 collapse fully.
	text = thousandsSeparator.ReplaceAllString(text, "$1$2")
	text = thousandsSeparator.ReplaceAllString(text, "$1$2")

	return numberToken.FindAllString(text, -1)
}
