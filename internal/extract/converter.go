package extract

import (
	"fmt"

	"github.com/jaytaylor/html2text"
)

// TextConverter implements scrape.Converter using html2text.
type TextConverter struct{}

// NewConverter returns an html2text-backed converter.
func NewConverter() *TextConverter {
	return &TextConverter{}
}

// Convert renders content HTML as markdown-like plain text.
func (c *TextConverter) Convert(contentHTML string) (string, error) {
	text, err := html2text.FromString(contentHTML, html2text.Options{
		PrettyTables: true,
	})
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return text, nil
}
