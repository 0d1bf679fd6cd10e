package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// articleHTML builds a page with navigation chrome around a body long enough
// for readability to latch onto.
func articleHTML(title string) string {
	var paragraphs strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&paragraphs,
			"<p>Paragraph %d explains how the service discovers every page under the "+
				"configured prefix, extracts the readable region, and folds the results "+
				"into a single consolidated document for downstream consumption.</p>\n", i+1)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<nav><ul><li><a href="/">Home</a></li><li><a href="/docs">Docs</a></li></ul></nav>
<article>
<h1>%s</h1>
%s
</article>
<footer>Copyright notice and footer links</footer>
</body>
</html>`, title, title, paragraphs.String())
}

func TestReadabilityExtractor_ExtractsArticle(t *testing.T) {
	t.Parallel()

	e := NewReadability()
	extraction, err := e.Extract([]byte(articleHTML("Configuring the Service")), "https://example.com/docs/config")
	require.NoError(t, err)

	assert.Contains(t, extraction.Title, "Configuring the Service")
	assert.Contains(t, extraction.ContentHTML, "consolidated document")
	assert.NotContains(t, extraction.ContentHTML, "Copyright notice")
}

func TestReadabilityExtractor_BadURL(t *testing.T) {
	t.Parallel()

	e := NewReadability()
	_, err := e.Extract([]byte("<html></html>"), "://bad")
	require.Error(t, err)
}

func TestTextConverter_RendersText(t *testing.T) {
	t.Parallel()

	c := NewConverter()
	text, err := c.Convert(`<h1>Install</h1><p>Download the binary and place it on your <code>PATH</code>.</p>`)
	require.NoError(t, err)

	assert.Contains(t, text, "Install")
	assert.Contains(t, text, "Download the binary")
	assert.NotContains(t, text, "<p>")
}

func TestTextConverter_RendersTables(t *testing.T) {
	t.Parallel()

	c := NewConverter()
	text, err := c.Convert(`<table>
<tr><th>Flag</th><th>Default</th></tr>
<tr><td>-config</td><td>config.yaml</td></tr>
</table>`)
	require.NoError(t, err)

	assert.Contains(t, text, "Flag")
	assert.Contains(t, text, "-config")
}

func TestPipelineShapedRoundTrip(t *testing.T) {
	t.Parallel()

	extraction, err := NewReadability().Extract([]byte(articleHTML("Quick Start")), "https://example.com/docs")
	require.NoError(t, err)

	text, err := NewConverter().Convert(extraction.ContentHTML)
	require.NoError(t, err)

	assert.Contains(t, text, "consolidated document")
	assert.NotContains(t, text, "<article>")
}
