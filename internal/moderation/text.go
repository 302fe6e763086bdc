package moderation

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractText strips markup from rich post content. Post content is opaque
// to the rest of the service; only topic scoring needs the plain text. An
// unparseable blob falls back to the raw string.
func extractText(richText string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(richText))
	if err != nil {
		return richText
	}
	return doc.Text()
}
