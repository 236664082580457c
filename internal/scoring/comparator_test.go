package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCorrectMCQ(t *testing.T) {
	q := Question{ID: 1, Number: 1, Type: KindMCQ, Key: []string{"B"}}

	tests := []struct {
		name      string
		submitted *Value
		want      bool
	}{
		{"exact match", &Value{Kind: KindMCQ, Text: "B"}, true},
		{"case folded", &Value{Kind: KindMCQ, Text: "b"}, true},
		{"padded", &Value{Kind: KindMCQ, Text: " B "}, true},
		{"wrong option", &Value{Kind: KindMCQ, Text: "A"}, false},
		{"empty", &Value{Kind: KindMCQ, Text: ""}, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsCorrect(q, tt.submitted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCorrectGap(t *testing.T) {
	q := Question{ID: 2, Number: 11, Type: KindGap, Key: []string{"mitigate"}}

	got, err := IsCorrect(q, &Value{Kind: KindGap, Text: " Mitigate "})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = IsCorrect(q, &Value{Kind: KindGap, Text: "mitigated"})
	require.NoError(t, err)
	assert.False(t, got, "exact-match gap answers admit no spelling slack")
}

func TestIsCorrectGapVariants(t *testing.T) {
	// Answer keys may carry several accepted spellings; any one matches.
	q := Question{ID: 3, Number: 12, Type: KindGap, Key: []string{"colour", "color"}}

	for _, sub := range []string{"Colour", " color "} {
		got, err := IsCorrect(q, &Value{Kind: KindGap, Text: sub})
		require.NoError(t, err)
		assert.True(t, got, sub)
	}

	got, err := IsCorrect(q, &Value{Kind: KindGap, Text: "couleur"})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestIsCorrectMatch(t *testing.T) {
	q := Question{
		ID:     4,
		Number: 21,
		Type:   KindMatch,
		Pairs:  []Pair{{"1", "A"}, {"2", "B"}},
	}

	tests := []struct {
		name      string
		submitted *Value
		want      bool
	}{
		{"same order", &Value{Kind: KindMatch, Pairs: []Pair{{"1", "A"}, {"2", "B"}}}, true},
		{"reversed order", &Value{Kind: KindMatch, Pairs: []Pair{{"2", "B"}, {"1", "A"}}}, true},
		{"wrong association", &Value{Kind: KindMatch, Pairs: []Pair{{"1", "B"}, {"2", "A"}}}, false},
		{"missing pair", &Value{Kind: KindMatch, Pairs: []Pair{{"1", "A"}}}, false},
		{"extra pair", &Value{Kind: KindMatch, Pairs: []Pair{{"1", "A"}, {"2", "B"}, {"3", "C"}}}, false},
		{"empty", &Value{Kind: KindMatch}, false},
		{"missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsCorrect(q, tt.submitted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCorrectUnknownType(t *testing.T) {
	q := Question{ID: 5, Number: 1, Type: Kind("essay")}

	_, err := IsCorrect(q, &Value{Text: "anything"})
	require.Error(t, err)

	var typeErr *UnknownTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, uint(5), typeErr.QuestionID)
}
