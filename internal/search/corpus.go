package search

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// maxSnippetLen bounds how much of one result's content enters a corpus so
// a single verbose page cannot crowd out the rest.
const maxSnippetLen = 1500

// socialDomains are link farms that never carry extractable campus contact
// detail; corpus assembly and link scoring skip them.
var socialDomains = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"youtube.com",
	"tiktok.com",
	"pinterest.com",
}

// Corpus is the flattened text handed to a generator, plus the source URLs
// that produced it.
type Corpus struct {
	Text    string
	Sources []string
}

// Empty reports whether no usable content was gathered.
func (c Corpus) Empty() bool { return strings.TrimSpace(c.Text) == "" }

// BuildCorpus flattens search responses into a single annotated text block.
// Duplicate URLs contribute once, blacklisted social domains are dropped,
// and each snippet is capped. Responses may be nil when an upstream query
// failed; those are skipped so a partial fan-out still yields a corpus.
func BuildCorpus(responses ...*Response) Corpus {
	var (
		b    strings.Builder
		seen = make(map[string]bool)
		srcs []string
	)

	for _, resp := range responses {
		if resp == nil {
			continue
		}
		if a := strings.TrimSpace(resp.Answer); a != "" {
			fmt.Fprintf(&b, "Summary for %q: %s\n\n", resp.Query, a)
		}
		for _, r := range resp.Results {
			if r.URL == "" || seen[r.URL] || Blacklisted(r.URL) {
				continue
			}
			seen[r.URL] = true
			srcs = append(srcs, r.URL)

			content := strings.TrimSpace(r.Content)
			if len(content) > maxSnippetLen {
				content = content[:maxSnippetLen]
			}
			fmt.Fprintf(&b, "Source: %s\nTitle: %s\n%s\n\n", r.URL, r.Title, content)
		}
	}

	return Corpus{Text: strings.TrimSpace(b.String()), Sources: srcs}
}

// Blacklisted reports whether the URL lives on a skipped social domain.
func Blacklisted(raw string) bool {
	host := hostOf(raw)
	for _, d := range socialDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// IsEduDomain reports whether the URL is hosted under .edu. University
// pages outrank third-party aggregators when selecting scrape targets.
func IsEduDomain(raw string) bool {
	host := hostOf(raw)
	return strings.HasSuffix(host, ".edu") || strings.Contains(host, ".edu.")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

// RankURLs orders candidate URLs for scraping: .edu hosts first, then by
// descending search score. Blacklisted hosts are removed.
func RankURLs(results []Result) []string {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if r.URL == "" || Blacklisted(r.URL) {
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		ei, ej := IsEduDomain(kept[i].URL), IsEduDomain(kept[j].URL)
		if ei != ej {
			return ei
		}
		return kept[i].Score > kept[j].Score
	})

	urls := make([]string, len(kept))
	for i, r := range kept {
		urls[i] = r.URL
	}
	return urls
}

// GuessDomain derives the likely university web domain from search results,
// preferring the most frequent .edu host. Empty when nothing qualifies.
func GuessDomain(results []Result) string {
	counts := make(map[string]int)
	for _, r := range results {
		host := hostOf(r.URL)
		if strings.HasSuffix(host, ".edu") {
			// Collapse subdomains to the registrable .edu host.
			parts := strings.Split(host, ".")
			if len(parts) >= 2 {
				host = strings.Join(parts[len(parts)-2:], ".")
			}
			counts[host]++
		}
	}
	best, bestN := "", 0
	for host, n := range counts {
		if n > bestN || (n == bestN && host < best) {
			best, bestN = host, n
		}
	}
	return best
}
