package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResultPage = `<html><body>
<div class="results">
  <div class="result results_links results_links_deep web-result">
    <div class="links_main links_deep result__body">
      <h2 class="result__title">
        <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fbeispiel.de%2Flasagne&amp;rut=abc">Lasagne Rezept</a>
      </h2>
      <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fbeispiel.de%2Flasagne">Klassische Lasagne mit Hackfleisch.</a>
    </div>
  </div>
  <div class="result results_links result--ad">
    <div class="links_main links_deep result__body">
      <h2 class="result__title">
        <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwerbung.de%2F%3Fad_domain%3Dwerbung.de">Anzeige</a>
      </h2>
      <a class="result__snippet" href="#">Gesponserter Inhalt.</a>
    </div>
  </div>
  <div class="result results_links results_links_deep web-result">
    <div class="links_main links_deep result__body">
      <h2 class="result__title">
        <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fkochwelt.de%2Fnudelauflauf">Nudelauflauf</a>
      </h2>
      <a class="result__snippet" href="#">Schneller Auflauf mit Nudeln.</a>
    </div>
  </div>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	results := parseResults(searchResultPage)

	// 廣告結果透過 ad_domain 參數被過濾掉
	require.Len(t, results, 2)
	assert.Equal(t, "https://beispiel.de/lasagne", results[0].URL)
	assert.Equal(t, "Lasagne Rezept", results[0].Title)
	assert.Equal(t, "Klassische Lasagne mit Hackfleisch.", results[0].Snippet)
	assert.Equal(t, "https://kochwelt.de/nudelauflauf", results[1].URL)
}

func TestParseResultsEmptyPage(t *testing.T) {
	assert.Empty(t, parseResults(`<html><body><p>Keine Treffer</p></body></html>`))
}

func TestExtractURLParameter(t *testing.T) {
	url := extractURLParameter("//duckduckgo.com/l/?uddg=https%3A%2F%2Fbeispiel.de%2Fx&rut=abc", "uddg")
	assert.Equal(t, "https://beispiel.de/x", url)

	assert.Empty(t, extractURLParameter("https://beispiel.de/x", "uddg"))
	assert.Empty(t, extractURLParameter("://kaputt", "uddg"))
}

func TestFormatResults(t *testing.T) {
	results := []SearchResult{
		{URL: "https://a.de/1", Title: "Eins", Snippet: "Erstes Ergebnis"},
		{URL: "https://b.de/2", Title: "Zwei", Snippet: "Zweites Ergebnis"},
	}

	formatted := FormatResults(results)
	assert.Equal(t, "- **[Eins](https://a.de/1)**: Erstes Ergebnis\n- **[Zwei](https://b.de/2)**: Zweites Ergebnis", formatted)

	assert.Empty(t, FormatResults(nil))
}
