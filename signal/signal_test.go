package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifierExtract(t *testing.T) {
	kc := NewDefaultClassifier()

	tests := []struct {
		name        string
		description string
		want        []Category
	}{
		{"routine", "read config.json and print the port", []Category{Routine}},
		{"complex", "debug why CI fails but passes locally", []Category{Complex}},
		{"moderate", "write unit tests for this module", []Category{Moderate}},
		{"case insensitive", "DEBUG THE RACE CONDITION", []Category{Complex}},
		{"multi-word keyword", "find file named main.go", []Category{Routine}},
		{"routine and moderate", "read and analyze the logs", []Category{Routine, Moderate}},
		{"all three", "read the code and debug it", []Category{Routine, Moderate, Complex}},
		{"escalation phrase", "still not working after multiple attempts", []Category{Complex}},
		{"previous attempt", "the previous answer was wrong, redo it", []Category{Complex}},
		{"previous model", "The previous model couldn't figure this out", []Category{Complex}},
		{"no match", "do something with the thing", nil},
		{"empty", "", nil},
		{"whitespace", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kc.Extract(tt.description, Flags{})
			assert.Equal(t, tt.want, got.Categories())
			assert.False(t, got.RequiresVision)
		})
	}
}

func TestExtractPassesFlagsThrough(t *testing.T) {
	kc := NewDefaultClassifier()

	s := kc.Extract("", Flags{RequiresVision: true})
	assert.True(t, s.Empty())
	assert.True(t, s.RequiresVision)

	s = kc.Extract("analyze this screenshot for UI bugs", Flags{RequiresVision: true})
	assert.True(t, s.Has(Moderate))
	assert.True(t, s.RequiresVision)
}

func TestExtractIsPure(t *testing.T) {
	kc := NewDefaultClassifier()
	desc := "review this code for security vulnerabilities"

	first := kc.Extract(desc, Flags{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, kc.Extract(desc, Flags{}))
	}
}

func TestSetPredicates(t *testing.T) {
	s := NewSet(Flags{}, Routine)
	assert.True(t, s.Only(Routine))
	assert.False(t, s.Empty())

	s = NewSet(Flags{}, Routine, Moderate)
	assert.False(t, s.Only(Routine))
	assert.False(t, s.Only(Moderate))
	high, ok := s.Highest()
	require.True(t, ok)
	assert.Equal(t, Moderate, high)

	empty := Set{}
	assert.True(t, empty.Empty())
	_, ok = empty.Highest()
	assert.False(t, ok)
	assert.False(t, empty.Has(Category(7)))

	assert.Equal(t, "{routine,moderate}", s.String())
	assert.Equal(t, "{ vision}", NewSet(Flags{RequiresVision: true}).String())
}

func TestDefaultKeywordsAreDisjoint(t *testing.T) {
	require.NoError(t, DefaultKeywords().Validate())
}

func TestNewKeywordClassifierRejectsOverlap(t *testing.T) {
	_, err := NewKeywordClassifier(Keywords{
		Routine:  []string{"read"},
		Moderate: []string{"READ"},
	})
	assert.ErrorIs(t, err, ErrOverlappingKeywords)

	_, err = NewKeywordClassifier(Keywords{Complex: []string{" "}})
	assert.ErrorIs(t, err, ErrOverlappingKeywords)
}

func TestCustomKeywords(t *testing.T) {
	kc, err := NewKeywordClassifier(Keywords{
		Routine: []string{"Tidy"},
		Complex: []string{"incident"},
	})
	require.NoError(t, err)

	assert.Equal(t, []Category{Routine}, kc.Extract("tidy the imports", Flags{}).Categories())
	assert.Equal(t, []Category{Complex}, kc.Extract("Incident review", Flags{}).Categories())
	assert.Equal(t, []string{"incident"}, kc.Matches("Incident review", Complex))
}

func TestParseContext(t *testing.T) {
	tests := []struct {
		in      string
		want    Context
		wantErr bool
	}{
		{"main-session", ContextMainSession, false},
		{"sub_agent", ContextSubAgent, false},
		{"Automated", ContextAutomated, false},
		{"cron", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseContext(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
