package scrape

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Pipeline turns one discovered URL into at most one chunk: fetch, extract
// the readable region, convert it to text, attribute it to its source.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	converter Converter
	logger    *zap.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(fetcher Fetcher, extractor Extractor, converter Converter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		converter: converter,
		logger:    logger,
	}
}

// ExtractPage produces the chunk for pageURL, or nil when the page is a dead
// end (non-2xx, non-HTML, or no extractable content). An error means the
// fetch or extraction itself failed; callers treat it as a zero
// contribution, never as fatal for the batch.
func (p *Pipeline) ExtractPage(ctx context.Context, pageURL string) (*Chunk, error) {
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !page.OK() {
		return nil, nil
	}

	extraction, err := p.extractor.Extract(page.Body, page.URL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(extraction.ContentHTML) == "" {
		return nil, nil
	}

	text, err := p.converter.Convert(extraction.ContentHTML)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	return &Chunk{
		SourceURL: pageURL,
		Title:     strings.TrimSpace(extraction.Title),
		Body:      text,
	}, nil
}
