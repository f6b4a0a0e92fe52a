package tokens

import (
	"math"
	"unicode/utf8"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// DefaultOutputRatio is the assumed output tokens per input token.
const DefaultOutputRatio = 3.0

// Counter estimates token counts for text.
type Counter interface {
	// Count estimates the number of tokens in the given text.
	Count(text string) int
}

// EstimatingCounter uses a character-to-token ratio for estimation.
type EstimatingCounter struct {
	// CharsPerToken is the average characters per token.
	CharsPerToken float64
}

// NewEstimatingCounter creates a token counter with default settings.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{
		CharsPerToken: DefaultCharsPerToken,
	}
}

// NewEstimatingCounterWithRatio creates a token counter with a custom ratio.
// If charsPerToken is <= 0, the default ratio (4.0) is used.
func NewEstimatingCounterWithRatio(charsPerToken float64) *EstimatingCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &EstimatingCounter{
		CharsPerToken: charsPerToken,
	}
}

// Count estimates the number of tokens in the given text.
// Runes are counted rather than bytes, rounded to the nearest token.
func (c *EstimatingCounter) Count(text string) int {
	runeCount := utf8.RuneCountInString(text)
	tokens := float64(runeCount) / c.CharsPerToken
	return int(tokens + 0.5)
}

// EstimateTokens is a convenience function using the default estimator.
func EstimateTokens(text string) int {
	return NewEstimatingCounter().Count(text)
}

// Estimator derives input and output token counts from a prompt.
type Estimator struct {
	counter     Counter
	outputRatio float64
}

// NewEstimator creates an estimator. A nil counter uses the default
// EstimatingCounter and a ratio <= 0 uses DefaultOutputRatio.
func NewEstimator(counter Counter, outputRatio float64) *Estimator {
	if counter == nil {
		counter = NewEstimatingCounter()
	}
	if outputRatio <= 0 || math.IsNaN(outputRatio) || math.IsInf(outputRatio, 0) {
		outputRatio = DefaultOutputRatio
	}
	return &Estimator{counter: counter, outputRatio: outputRatio}
}

// OutputRatio returns the output:input ratio in use.
func (e *Estimator) OutputRatio() float64 {
	return e.outputRatio
}

// Estimate returns the estimated input tokens of text and the output tokens
// expected in response. Non-empty text counts as at least one input token.
func (e *Estimator) Estimate(text string) (input, output int64) {
	input = int64(e.counter.Count(text))
	if input == 0 && text != "" {
		input = 1
	}
	output = int64(math.Round(float64(input) * e.outputRatio))
	return input, output
}
