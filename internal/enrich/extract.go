package enrich

import (
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minArticleChars is the shortest readability text accepted over the
// page's meta description
const minArticleChars = 100

// ExtractText returns the readable article text of a page, falling back to
// its meta or og:description. Whitespace is collapsed.
func ExtractText(document, pageURL string) string {
	if strings.TrimSpace(document) == "" {
		return ""
	}

	parsed, err := url.Parse(pageURL)
	if err == nil {
		article, err := readability.FromReader(strings.NewReader(document), parsed)
		if err == nil {
			if text := collapseSpace(article.TextContent); utf8.RuneCountInString(text) >= minArticleChars {
				return text
			}
		}
	}
	return collapseSpace(metaDescription(document))
}

// metaDescription returns the first meta description or og:description
func metaDescription(document string) string {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return ""
	}

	var description, og string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, property, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = strings.ToLower(a.Val)
				case "property":
					property = strings.ToLower(a.Val)
				case "content":
					content = a.Val
				}
			}
			if name == "description" && description == "" {
				description = content
			}
			if property == "og:description" && og == "" {
				og = content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if strings.TrimSpace(description) != "" {
		return description
	}
	return og
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts text to at most n runes
func Truncate(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n]))
}
