package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/krishija/campusintel/internal/metrics"
)

// Scraper fetches a page and returns its visible text. Engines use it for
// targeted reads of contact and staff pages that search snippets truncate.
type Scraper interface {
	Fetch(ctx context.Context, url string) (string, error)
}

const (
	scrapeTimeout  = 20 * time.Second
	maxPageBytes   = 1 << 20 // 1 MiB
	maxScrapedText = 20000
)

// PageFetcher is the default Scraper over plain HTTP.
type PageFetcher struct {
	httpClient *http.Client
	collector  *metrics.Collector
	logger     *slog.Logger
}

// NewPageFetcher builds a Scraper.
func NewPageFetcher(collector *metrics.Collector, logger *slog.Logger) *PageFetcher {
	return &PageFetcher{
		httpClient: &http.Client{Timeout: scrapeTimeout},
		collector:  collector,
		logger:     logger,
	}
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`[ \t]{2,}`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
	mailtoRe = regexp.MustCompile(`(?i)mailto:([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+)`)
)

// Fetch downloads url and strips markup. mailto: targets are preserved in
// the text because they are often the only place an email appears.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	text, err := f.fetch(ctx, url)
	if f.collector != nil {
		f.collector.Record(metrics.OpScrape, time.Since(start), err == nil)
	}
	if err != nil {
		return "", err
	}
	f.logger.Debug("page scraped", "url", url, "chars", len(text))
	return text, nil
}

func (f *PageFetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating scrape request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; campusintel/1.0)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	return StripHTML(string(body)), nil
}

// StripHTML reduces a page to visible text plus any mailto addresses.
func StripHTML(html string) string {
	emails := mailtoRe.FindAllStringSubmatch(html, -1)

	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, "\n")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	for _, m := range emails {
		b.WriteString(m[1])
		b.WriteByte('\n')
	}

	out := blankRe.ReplaceAllString(b.String(), "\n\n")
	if len(out) > maxScrapedText {
		out = out[:maxScrapedText]
	}
	return out
}
