package translation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticProvider_Translate(t *testing.T) {
	provider := NewStaticProvider()

	tests := []struct {
		name     string
		input    string
		target   Language
		expected string
	}{
		{
			name:     "Idiom rule wins over word substitution",
			input:    "I'm on my way",
			target:   Spanish,
			expected: "Voy en camino",
		},
		{
			name:     "Idiom rule matches case-insensitively",
			input:    "VOY EN CAMINO",
			target:   English,
			expected: "I'm on my way",
		},
		{
			name:     "Word by word substitution",
			input:    "need more cement today",
			target:   Spanish,
			expected: "Necesito más cemento hoy",
		},
		{
			name:     "Unknown words pass through",
			input:    "the cement truck",
			target:   Spanish,
			expected: "The cemento camión",
		},
		{
			name:     "Spanish to English",
			input:    "necesito herramientas hoy",
			target:   English,
			expected: "Need tools today",
		},
		{
			name:     "Punctuation preserved",
			input:    "weather, rain!",
			target:   Spanish,
			expected: "Clima, lluvia!",
		},
		{
			name:     "First letter capitalized",
			input:    "tools",
			target:   Spanish,
			expected: "Herramientas",
		},
		{
			name:     "No dictionary hits returns capitalized original",
			input:    "xyzzy plugh",
			target:   Spanish,
			expected: "Xyzzy plugh",
		},
		{
			name:     "Reverse idiom for llámame",
			input:    "llámame por favor",
			target:   English,
			expected: "Call me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			out, err := provider.Translate(context.Background(), tt.input, tt.target)
			req.NoError(err)
			req.Equal(tt.expected, out)
		})
	}
}

// Several English entries share one Spanish word. The reverse table must
// resolve them the same way in every provider instance, not by map
// iteration order.
func TestStaticProvider_Reverse_Table_Is_Stable(t *testing.T) {
	req := require.New(t)

	pinned := map[string]string{
		"equipo":    "Crew",
		"obra":      "Jobsite",
		"terminado": "Done",
		"mañana":    "Tomorrow",
	}

	for i := 0; i < 64; i++ {
		provider := NewStaticProvider()
		for input, expected := range pinned {
			out, err := provider.Translate(context.Background(), input, English)
			req.NoError(err)
			req.Equal(expected, out)
		}
	}
}
