package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders r as a Markdown document
func Markdown(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Perspective check\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", escapeInline(r.Claim))
	fmt.Fprintf(&b, "**Status:** `%s`", r.Status)
	if !r.CheckedAt.IsZero() {
		fmt.Fprintf(&b, " · checked %s", r.CheckedAt.Format("2006-01-02 15:04 MST"))
	}
	b.WriteString("\n\n")

	if r.Message != "" {
		fmt.Fprintf(&b, "> %s\n", escapeInline(r.Message))
		if r.Details != "" {
			fmt.Fprintf(&b, ">\n> %s\n", escapeInline(r.Details))
		}
		b.WriteString("\n")
	}

	if r.Summary != "" {
		b.WriteString("## Summary\n\n```text\n")
		b.WriteString(strings.ReplaceAll(r.Summary, "```", "'''"))
		b.WriteString("\n```\n\n")
	}

	if len(r.Buckets) > 0 {
		b.WriteString("## Perspectives\n\n")
		for _, bucket := range r.Buckets {
			fmt.Fprintf(&b, "### %s\n\n", escapeInline(bucket.Label))
			if bucket.Description != "" {
				fmt.Fprintf(&b, "_%s_\n\n", escapeInline(bucket.Description))
			}
			fmt.Fprintf(&b, "%d assigned, %d selected.\n\n", bucket.Assigned, len(bucket.Articles))
			if bucket.Error != "" {
				fmt.Fprintf(&b, "Ranking failed: %s\n\n", escapeInline(bucket.Error))
			}
			writeArticleTable(&b, bucket.Articles)
		}
	}

	if len(r.Articles) > 0 {
		fmt.Fprintf(&b, "## Ranked articles (%d of %d retrieved)\n\n", len(r.Articles), r.Retrieved)
		writeArticleTable(&b, r.Articles)
	}

	if len(r.Queries) > 0 {
		b.WriteString("## Queries\n\n")
		for i, q := range r.Queries {
			fmt.Fprintf(&b, "%d. `%s`\n", i+1, strings.ReplaceAll(q, "`", "'"))
		}
		b.WriteString("\n")
	}

	if len(r.Fallbacks) > 0 {
		fmt.Fprintf(&b, "**Degraded stages:** %s\n\n", strings.Join(r.Fallbacks, ", "))
	}

	if len(r.Stages) > 0 {
		b.WriteString("## Timings\n\n| Stage | ms |\n|---|---:|\n")
		for _, s := range r.Stages {
			fmt.Fprintf(&b, "| %s | %.1f |\n", s.Stage, s.Millis)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeArticleTable(b *strings.Builder, articles []Article) {
	if len(articles) == 0 {
		b.WriteString("No articles.\n\n")
		return
	}
	b.WriteString("| # | Title | Source | Similarity | Published |\n|---:|---|---|---:|---|\n")
	for _, a := range articles {
		title := escapeCell(a.Title)
		if a.URL != "" {
			title = fmt.Sprintf("[%s](%s)", title, a.URL)
		}
		fmt.Fprintf(b, "| %d | %s | %s | %.4f | %s |\n", a.Rank, title, escapeCell(a.Source), a.SimilarityScore, escapeCell(a.PublishedAt))
	}
	b.WriteString("\n")
}

var inlineEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;")

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "|", `\|`)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders r as a standalone HTML page via its Markdown form
func HTML(r *Report) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(r)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(r.Claim))
	page.WriteString(`<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #222; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1rem; }
th, td { border: 1px solid #ddd; padding: 0.3rem 0.5rem; font-size: 0.9rem; }
pre { white-space: pre-wrap; background: #f6f8fa; padding: 1rem; }
</style>
</head>
<body>
`)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
