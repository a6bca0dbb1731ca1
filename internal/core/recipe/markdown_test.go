package recipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `A\*B\_C`, EscapeMarkdownV2("A*B_C"))
	assert.Equal(t, `1\. Schritt \(kurz\)`, EscapeMarkdownV2("1. Schritt (kurz)"))
	assert.Equal(t, "ohne Sonderzeichen", EscapeMarkdownV2("ohne Sonderzeichen"))
}

func TestToMarkdown(t *testing.T) {
	r := &Recipe{
		Name:               "Käsespätzle",
		RecipeIngredient:   []string{"400g Mehl", "4 Eier"},
		RecipeInstructions: []string{"Teig rühren", "Spätzle schaben"},
	}

	md := ToMarkdown(r)

	assert.True(t, strings.HasPrefix(md, "*Käsespätzle*\n\n*Zutaten*\n"))
	assert.Contains(t, md, `\- 400g Mehl`)
	assert.Contains(t, md, `\- 4 Eier`)
	assert.Contains(t, md, "*Zubereitung*\n")
	assert.Contains(t, md, ` 1\. Teig rühren`)
	assert.Contains(t, md, ` 2\. Spätzle schaben`)
}
