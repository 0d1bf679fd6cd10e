// Package extract adapts the readability and text-conversion libraries to
// the pipeline's Extractor and Converter contracts.
package extract

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"

	"github.com/docfold/docfold/internal/scrape"
)

// ReadabilityExtractor implements scrape.Extractor using go-readability.
type ReadabilityExtractor struct{}

// NewReadability returns a readability-backed extractor.
func NewReadability() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// Extract pulls the main article region out of the document. An empty
// Extraction (no error) means the page had no usable content.
func (e *ReadabilityExtractor) Extract(body []byte, pageURL string) (scrape.Extraction, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("parse page url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return scrape.Extraction{}, fmt.Errorf("readability parse: %w", err)
	}
	return scrape.Extraction{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
