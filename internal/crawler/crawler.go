package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultLimit      = 100
	DefaultCrawlDepth = 3

	maxPageBytes = 5 << 20
	noTitle      = "No Title"
)

// Options control a single crawl.
type Options struct {
	BaseURL             string `json:"baseUrl"`
	Limit               int    `json:"limit"`
	CrawlDepth          int    `json:"crawlDepth"`
	IncludeSubdomains   bool   `json:"includeSubdomains"`
	FollowExternalLinks bool   `json:"followExternalLinks"`
	ExclusionPatterns   string `json:"exclusionPatterns"`
}

// DefaultOptions returns the options used for fields a request leaves out.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, CrawlDepth: DefaultCrawlDepth}
}

// Page is one visited URL. Error is set instead of Title/Content when the
// fetch or parse failed.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`

	links []string
}

// Config tunes the fetcher. A zero RequestsPerSecond disables throttling.
type Config struct {
	RequestsPerSecond float64
	Workers           int
	Timeout           time.Duration
	UserAgent         string
}

// Crawler walks a site breadth first, one depth level at a time.
type Crawler struct {
	client    *http.Client
	limiter   *rate.Limiter
	workers   int
	userAgent string
	logger    *slog.Logger
}

// New creates a Crawler.
func New(cfg Config) *Crawler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "agentrag-crawler/1.0"
	}
	c := &Crawler{
		client:    &http.Client{Timeout: cfg.Timeout},
		workers:   cfg.Workers,
		userAgent: cfg.UserAgent,
		logger:    slog.Default().With("component", "crawler"),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// WithHTTPClient replaces the HTTP client used for fetching.
func (c *Crawler) WithHTTPClient(client *http.Client) *Crawler {
	c.client = client
	return c
}

// Crawl visits up to opts.Limit pages starting at opts.BaseURL. Failed pages
// are reported in the result and count toward the limit.
func (c *Crawler) Crawl(ctx context.Context, opts Options) ([]Page, error) {
	base, err := parseBase(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.CrawlDepth < 0 {
		opts.CrawlDepth = DefaultCrawlDepth
	}

	excludes, err := CompileExclusions(opts.ExclusionPatterns)
	if err != nil {
		return nil, err
	}
	scope := linkScope{
		host:              base.Hostname(),
		includeSubdomains: opts.IncludeSubdomains,
		followExternal:    opts.FollowExternalLinks,
	}

	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl pool: %w", err)
	}
	defer pool.Release()

	visited := make(map[string]bool)
	pages := make([]Page, 0, opts.Limit)
	level := []string{base.String()}

	for depth := 0; depth <= opts.CrawlDepth && len(level) > 0 && len(pages) < opts.Limit; depth++ {
		batch := make([]string, 0, len(level))
		for _, u := range level {
			if len(pages)+len(batch) >= opts.Limit {
				break
			}
			if visited[u] {
				continue
			}
			if excluded(excludes, u) {
				c.logger.Debug("skipping excluded url", "url", u)
				continue
			}
			visited[u] = true
			batch = append(batch, u)
		}

		results, err := c.fetchAll(ctx, pool, batch, depth)
		if err != nil {
			return pages, err
		}

		var next []string
		queued := make(map[string]bool)
		for _, p := range results {
			pages = append(pages, p)
			if depth+1 > opts.CrawlDepth {
				continue
			}
			for _, link := range p.links {
				if visited[link] || queued[link] {
					continue
				}
				u, err := url.Parse(link)
				if err != nil || !scope.allows(u) {
					continue
				}
				queued[link] = true
				next = append(next, link)
			}
		}
		level = next
	}

	return pages, nil
}

// fetchAll fetches a level concurrently and returns pages in input order.
func (c *Crawler) fetchAll(ctx context.Context, pool *ants.Pool, urls []string, depth int) ([]Page, error) {
	results := make([]Page, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			c.logger.Info("crawling", "url", u, "depth", depth)
			results[i] = c.fetch(ctx, u)
		}); err != nil {
			wg.Done()
			results[i] = Page{URL: u, Error: err.Error()}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) Page {
	page := Page{URL: pageURL}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			page.Error = err.Error()
			return page
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		page.Error = fmt.Sprintf("Invalid URL: %v", err)
		return page
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("fetch failed", "url", pageURL, "error", err)
		page.Error = err.Error()
		return page
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		page.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return page
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		page.Error = fmt.Sprintf("unsupported content type %q", ct)
		return page
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		page.Error = fmt.Sprintf("failed to parse page: %v", err)
		return page
	}

	// redirects change the base for relative links
	pageBase := resp.Request.URL
	page.Title, page.Content = readPage(doc)
	page.links = collectLinks(doc, pageBase)
	return page
}

func readPage(doc *goquery.Document) (title, content string) {
	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = noTitle
	}

	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()
	content = strings.Join(strings.Fields(body.Text()), " ")
	return title, content
}

func collectLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := normalizeLink(base, href); ok {
			links = append(links, link)
		}
	})
	return links
}

// normalizeLink resolves href against base, strips the fragment and drops
// anything that is not http(s), which covers mailto: and tel:.
func normalizeLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

func parseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrInvalidCrawlURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("Invalid URL: %s", raw))
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

type linkScope struct {
	host              string
	includeSubdomains bool
	followExternal    bool
}

func (s linkScope) allows(u *url.URL) bool {
	host := u.Hostname()
	sub := strings.HasSuffix(host, "."+s.host)
	sameSite := host == s.host || (s.includeSubdomains && sub)
	external := s.followExternal && host != s.host && !sub
	return sameSite || external
}

// CompileExclusions turns comma or newline separated patterns into regexps.
// A * matches any run of characters; everything else is literal.
func CompileExclusions(patterns string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, p := range strings.FieldsFunc(patterns, func(r rune) bool { return r == ',' || r == '\n' }) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expr := strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, ".*")
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid exclusion pattern", err)
		}
		out = append(out, re)
	}
	return out, nil
}

func excluded(res []*regexp.Regexp, u string) bool {
	for _, re := range res {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}
