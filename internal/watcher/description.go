package watcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	descriptionKey     = "description"
	descriptionTextKey = "description_text"
)

// AddDescriptionText walks a decoded JobDetails result and, next to every
// HTML "description" string, stores its plain text under "description_text".
// Maps are modified in place; the (possibly same) value is returned.
func AddDescriptionText(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			x[k] = AddDescriptionText(child)
		}
		if raw, ok := x[descriptionKey].(string); ok && looksLikeHTML(raw) {
			if text, err := htmlToText(raw); err == nil {
				x[descriptionTextKey] = text
			}
		}
		return x
	case []any:
		for i, child := range x {
			x[i] = AddDescriptionText(child)
		}
		return x
	default:
		return v
	}
}

func looksLikeHTML(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}

// htmlToText renders block elements as line breaks and collapses runs of
// whitespace inside each line.
func htmlToText(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	doc.Find("li").PrependHtml("- ")

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}
