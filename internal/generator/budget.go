package generator

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Budget counts and trims text in model tokens.
type Budget struct {
	tokenizer *tiktoken.Tiktoken
}

// NewBudget selects a tokenizer for model, falling back to cl100k_base for
// models tiktoken does not know.
func NewBudget(model string) (*Budget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Budget{tokenizer: enc}, nil
}

// Count returns the token count of text. A nil Budget estimates four
// characters per token.
func (b *Budget) Count(text string) int {
	if b == nil || b.tokenizer == nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Truncate cuts text to at most maxTokens tokens and reports whether
// anything was removed.
func (b *Budget) Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return "", text != ""
	}
	if b == nil || b.tokenizer == nil {
		runes := []rune(text)
		if len(runes) <= maxTokens*4 {
			return text, false
		}
		return string(runes[:maxTokens*4]), true
	}
	tokens := b.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return b.tokenizer.Decode(tokens[:maxTokens]), true
}
