package tokens

import (
	"strings"
	"testing"
)

func TestNewEstimatingCounterWithRatio(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		expected float64
	}{
		{name: "custom ratio", ratio: 3.0, expected: 3.0},
		{name: "zero ratio uses default", ratio: 0, expected: DefaultCharsPerToken},
		{name: "negative ratio uses default", ratio: -1, expected: DefaultCharsPerToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEstimatingCounterWithRatio(tt.ratio)
			if c.CharsPerToken != tt.expected {
				t.Errorf("expected CharsPerToken %v, got %v", tt.expected, c.CharsPerToken)
			}
		})
	}
}

func TestEstimatingCounter_Count(t *testing.T) {
	c := NewEstimatingCounter()

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty string", text: "", expected: 0},
		{name: "single character rounds down", text: "a", expected: 0},
		{name: "four characters", text: "test", expected: 1},
		{name: "hello world rounds up", text: "Hello World", expected: 3},
		{name: "runes not bytes", text: "héllo wörld", expected: 3},
		{
			name:     "task description",
			text:     "review this code for security vulnerabilities",
			expected: 11, // 45 runes / 4 = 11.25
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Count(tt.text)
			if result != tt.expected {
				t.Errorf("Count(%q) = %d, expected %d", tt.text, result, tt.expected)
			}
		})
	}
}

func TestEstimateTokens_LargeText(t *testing.T) {
	text := strings.Repeat("Hello World ", 1000)

	result := EstimateTokens(text)
	// 12 chars * 1000 = 12000 chars, / 4 = 3000 tokens
	if result < 2900 || result > 3100 {
		t.Errorf("EstimateTokens for large text = %d, expected ~3000", result)
	}
}

func TestEstimator_Estimate(t *testing.T) {
	tests := []struct {
		name       string
		ratio      float64
		text       string
		wantInput  int64
		wantOutput int64
	}{
		{name: "default ratio", ratio: 0, text: "testtesttest", wantInput: 3, wantOutput: 9},
		{name: "custom ratio", ratio: 2, text: "testtesttest", wantInput: 3, wantOutput: 6},
		{name: "short text counts one token", ratio: 3, text: "a", wantInput: 1, wantOutput: 3},
		{name: "empty text", ratio: 3, text: "", wantInput: 0, wantOutput: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimator(nil, tt.ratio)
			in, out := e.Estimate(tt.text)
			if in != tt.wantInput || out != tt.wantOutput {
				t.Errorf("Estimate(%q) = (%d, %d), expected (%d, %d)",
					tt.text, in, out, tt.wantInput, tt.wantOutput)
			}
		})
	}
}

func TestEstimator_OutputRatio(t *testing.T) {
	if got := NewEstimator(nil, -1).OutputRatio(); got != DefaultOutputRatio {
		t.Errorf("OutputRatio() = %v, expected %v", got, DefaultOutputRatio)
	}
	if got := NewEstimator(NewEstimatingCounterWithRatio(3), 1.5).OutputRatio(); got != 1.5 {
		t.Errorf("OutputRatio() = %v, expected 1.5", got)
	}
}

func TestCounter_Interface(t *testing.T) {
	var _ Counter = (*EstimatingCounter)(nil)
}

func BenchmarkEstimatingCounter_Count(b *testing.B) {
	c := NewEstimatingCounter()
	text := strings.Repeat("Hello World ", 100)

	b.ResetTimer()
	for range b.N {
		c.Count(text)
	}
}
