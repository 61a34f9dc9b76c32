package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Entities seen in Airbnb notification markup. Used only on the regex
// fallback path; goquery decodes entities itself.
var htmlEntities = map[string]string{
	"&nbsp;":  " ",
	"&amp;":   "&",
	"&lt;":    "<",
	"&gt;":    ">",
	"&quot;":  `"`,
	"&#39;":   "'",
	"&yen;":   "¥",
	"&copy;":  "©",
	"&mdash;": "—",
}

// containsHTML reports whether the body looks like markup rather than plain
// text.
func containsHTML(body string) bool {
	return htmlTagPattern.MatchString(body)
}

// cleanHTML reduces an HTML email body to whitespace-collapsed visible text.
func cleanHTML(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return stripTags(body)
	}

	doc.Find("script, style, head").Remove()
	return collapseWhitespace(doc.Text())
}

// stripTags is the degraded path for markup goquery refuses to parse.
func stripTags(body string) string {
	text := htmlTagPattern.ReplaceAllString(body, " ")
	for entity, replacement := range htmlEntities {
		text = strings.ReplaceAll(text, entity, replacement)
	}
	return collapseWhitespace(text)
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
