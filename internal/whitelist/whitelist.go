// Package whitelist restricts documents to trusted outlets.
package whitelist

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/ppiankov/perspecta/internal/model"
)

// Whitelist matches URLs against trusted domains. A host matches an entry
// when it equals the entry's domain or is a subdomain of it. Entries with a
// path also require the URL path to start with that path on a segment boundary.
type Whitelist struct {
	// entries grouped by registrable domain (eTLD+1)
	byRegistrable map[string][]entry
	size          int
}

type entry struct {
	domain string
	path   string
}

// New builds a whitelist from domain entries like "bbc.co.uk" or "spiegel.de/international"
func New(domains []string) *Whitelist {
	w := &Whitelist{byRegistrable: make(map[string][]entry)}
	seen := make(map[entry]bool)
	for _, raw := range domains {
		e, ok := parseEntry(raw)
		if !ok || seen[e] {
			continue
		}
		seen[e] = true
		key := registrable(e.domain)
		w.byRegistrable[key] = append(w.byRegistrable[key], e)
		w.size++
	}
	return w
}

// Default returns the built-in whitelist plus extra entries
func Default(extra ...string) *Whitelist {
	all := make([]string, 0, len(DefaultDomains)+len(extra))
	all = append(all, DefaultDomains...)
	all = append(all, extra...)
	return New(all)
}

// Len returns the number of distinct entries
func (w *Whitelist) Len() int {
	return w.size
}

// Allows reports whether rawURL belongs to a whitelisted outlet
func (w *Whitelist) Allows(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return false
	}

	path := u.Path
	for _, e := range w.byRegistrable[registrable(host)] {
		if host != e.domain && !strings.HasSuffix(host, "."+e.domain) {
			continue
		}
		if e.path == "" || path == e.path || strings.HasPrefix(path, e.path+"/") {
			return true
		}
	}
	return false
}

// Filter keeps documents whose URL is allowed, preserving order
func (w *Whitelist) Filter(docs []model.Document) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if w.Allows(d.URL) {
			out = append(out, d)
		}
	}
	return out
}

func parseEntry(raw string) (entry, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")
	raw = strings.TrimPrefix(raw, "www.")
	if raw == "" {
		return entry{}, false
	}
	domain, path, _ := strings.Cut(raw, "/")
	e := entry{domain: strings.TrimSuffix(domain, ".")}
	if path = strings.Trim(path, "/"); path != "" {
		e.path = "/" + path
	}
	return e, e.domain != ""
}

// registrable returns the eTLD+1 of host, or host itself when it has none
func registrable(host string) string {
	if r, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return r
	}
	return host
}
