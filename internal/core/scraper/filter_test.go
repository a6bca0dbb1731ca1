package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMarkdownStripsLinks(t *testing.T) {
	input := "Siehe [Rezept](https://beispiel.de/x) hier"
	assert.Equal(t, "Siehe Rezept hier", FilterMarkdown(input))
}

func TestFilterMarkdownStripsTablePipes(t *testing.T) {
	input := "Zutat | Menge"
	filtered := FilterMarkdown(input)
	assert.NotContains(t, filtered, " |")
	assert.Contains(t, filtered, "Zutat")
	assert.Contains(t, filtered, "Menge")
}

func TestFilterMarkdownKeepsPlainText(t *testing.T) {
	input := "400g Mehl mit 4 Eiern verrühren."
	assert.Equal(t, input, FilterMarkdown(input))
}

func TestFilterMarkdownCollapsesBlankLines(t *testing.T) {
	input := "Erster Absatz\n\n\n\n\nZweiter Absatz"
	assert.Equal(t, "Erster Absatz\n\nZweiter Absatz", FilterMarkdown(input))
}
