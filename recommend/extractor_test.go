package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}

	return f.response, nil
}

func TestExtract_AllFields(t *testing.T) {
	gen := &fakeGenerator{response: "Intent: find restaurant\nLocation: Koramangala\nCuisine: noodles\nPreferences: spicy"}

	components, err := NewExtractor(gen).Extract(context.Background(), "spicy noodles near Koramangala")

	require.NoError(t, err)
	assert.Equal(t, "find restaurant", components.Intent)
	assert.Equal(t, "Koramangala", components.LocationQuery)
	assert.Equal(t, "noodles", components.Cuisine)
	assert.Equal(t, "spicy", components.Preferences)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "spicy noodles near Koramangala")
}

func TestExtract_NoneIsAbsent(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"lowercase", "Intent: find cafe\nLocation: none\nCuisine: none\nPreferences: none"},
		{"uppercase", "Intent: find cafe\nLocation: NONE\nCuisine: None\nPreferences: nOnE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{response: tt.response}

			components, err := NewExtractor(gen).Extract(context.Background(), "a cafe")

			require.NoError(t, err)
			assert.Equal(t, "find cafe", components.Intent)
			assert.Empty(t, components.LocationQuery)
			assert.Empty(t, components.Cuisine)
			assert.Empty(t, components.Preferences)
		})
	}
}

func TestExtract_UnparseableLinesSkipped(t *testing.T) {
	gen := &fakeGenerator{response: "Sure! Here is the breakdown:\nIntent: find park\nsome stray prose\nLocation: Cubbon area"}

	components, err := NewExtractor(gen).Extract(context.Background(), "park near cubbon")

	require.NoError(t, err)
	assert.Equal(t, "find park", components.Intent)
	assert.Equal(t, "Cubbon area", components.LocationQuery)
}

func TestExtract_DefaultsWhenModelRambles(t *testing.T) {
	gen := &fakeGenerator{response: "I am not going to follow instructions today."}

	components, err := NewExtractor(gen).Extract(context.Background(), "food")

	require.NoError(t, err)
	assert.Equal(t, defaultIntent, components.Intent)
	assert.Empty(t, components.LocationQuery)
}

func TestExtract_GenerationFailureIsAnError(t *testing.T) {
	genErr := errors.New("model unreachable")
	gen := &fakeGenerator{err: genErr}

	components, err := NewExtractor(gen).Extract(context.Background(), "food")

	require.Error(t, err)
	assert.ErrorIs(t, err, genErr)
	assert.Nil(t, components)
}

func TestExtract_FieldLabelsCaseInsensitive(t *testing.T) {
	gen := &fakeGenerator{response: "INTENT: find bar\nlocation: Indiranagar"}

	components, err := NewExtractor(gen).Extract(context.Background(), "bars in indiranagar")

	require.NoError(t, err)
	assert.Equal(t, "find bar", components.Intent)
	assert.Equal(t, "Indiranagar", components.LocationQuery)
}
