package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "minutes only", input: "PT0H30M0S", expected: "30m"},
		{name: "hours and minutes", input: "PT1H30M0S", expected: "1h 30m"},
		{name: "all zero", input: "PT0H0M0S", expected: "0s"},
		{name: "hours and seconds", input: "PT2H0M15S", expected: "2h 15s"},
		{name: "minutes without hours", input: "PT45M", expected: "45m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertDurationInvalid(t *testing.T) {
	for _, input := range []string{"", "PT", "30 Minuten", "P1DT2H"} {
		_, err := ConvertDuration(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestFromDraftDefaults(t *testing.T) {
	d := &Draft{
		Name:               "Käsespätzle",
		URL:                "https://beispiel.de/kaesespaetzle",
		ImageURL:           "https://beispiel.de/bild.jpg",
		Description:        "Deftig",
		RecipeIngredient:   []string{"400g Mehl", "4 Eier"},
		RecipeInstructions: []string{"Teig rühren", "Spätzle schaben"},
		PrepTime:           "PT0H20M0S",
		Keywords:           []string{"schwäbisch", "käse"},
	}

	r := FromDraft(d)

	assert.Equal(t, "http://schema.org", r.Context)
	assert.Equal(t, "Recipe", r.Type)
	assert.Equal(t, "Käsespätzle", r.Name)
	assert.Equal(t, "https://beispiel.de/kaesespaetzle", r.URL)
	assert.Equal(t, "https://beispiel.de/bild.jpg", r.Image)
	assert.Equal(t, "schwäbisch,käse", r.Keywords)
	assert.Equal(t, 1, r.RecipeYield)
	assert.NotNil(t, r.Tool)
	assert.Empty(t, r.Tool)
	assert.NotEmpty(t, r.ID)
	assert.NotEmpty(t, r.DateCreated)
	assert.Equal(t, r.DateCreated, r.DateModified)
}
