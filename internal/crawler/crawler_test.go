package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite serves a small linked site:
//
//	/        -> /a, /b, /a#top, mailto:, tel:
//	/a       -> /c, /private/x
//	/b       -> /
//	/c       -> /d
//	/private/x, /d leaf pages
func newSite(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	pages := map[string]string{
		"/": `<html><head><title> Home </title></head><body>
			<a href="/a">A</a> <a href="b">B</a> <a href="/a#top">A again</a>
			<a href="mailto:hi@example.com">mail</a> <a href="tel:123">call</a>
			<script>var x = 1;</script><p>Welcome   home</p></body></html>`,
		"/a":         `<html><body><h1>Page A</h1><a href="/c">C</a><a href="/private/x">P</a></body></html>`,
		"/b":         `<html><body><a href="/">home</a>plain b</body></html>`,
		"/c":         `<html><head><title>C</title></head><body><a href="/d">D</a></body></html>`,
		"/d":         `<html><head><title>D</title></head><body>deep</body></html>`,
		"/private/x": `<html><head><title>secret</title></head><body>secret</body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func urlsOf(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	return out
}

func TestCrawl_BreadthFirst(t *testing.T) {
	srv, _ := newSite(t)
	c := New(Config{Workers: 2})

	pages, err := c.Crawl(context.Background(), Options{BaseURL: srv.URL + "/", Limit: 100, CrawlDepth: 3})

	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/",
		srv.URL + "/a",
		srv.URL + "/b",
		srv.URL + "/c",
		srv.URL + "/private/x",
		srv.URL + "/d",
	}, urlsOf(pages))

	home := pages[0]
	assert.Equal(t, "Home", home.Title)
	assert.Equal(t, "A B A again mail call Welcome home", home.Content)
	assert.Empty(t, home.Error)
}

func TestCrawl_TitleFallbacks(t *testing.T) {
	srv, _ := newSite(t)
	c := New(Config{Workers: 1})

	pages, err := c.Crawl(context.Background(), Options{BaseURL: srv.URL + "/", Limit: 3, CrawlDepth: 1})

	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "Page A", pages[1].Title)
	assert.Equal(t, "No Title", pages[2].Title)
}

func TestCrawl_DepthLimit(t *testing.T) {
	srv, _ := newSite(t)
	c := New(Config{Workers: 4})

	pages, err := c.Crawl(context.Background(), Options{BaseURL: srv.URL, Limit: 100, CrawlDepth: 1})

	require.NoError(t, err)
	assert.Len(t, pages, 3)
	assert.NotContains(t, urlsOf(pages), srv.URL+"/c")
}

func TestCrawl_PageLimit(t *testing.T) {
	srv, hits := newSite(t)
	c := New(Config{Workers: 4})

	pages, err := c.Crawl(context.Background(), Options{BaseURL: srv.URL + "/", Limit: 2, CrawlDepth: 3})

	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestCrawl_Exclusions(t *testing.T) {
	srv, _ := newSite(t)
	c := New(Config{Workers: 2})

	pages, err := c.Crawl(context.Background(), Options{
		BaseURL:           srv.URL + "/",
		Limit:             100,
		CrawlDepth:        3,
		ExclusionPatterns: "/private/*\n, /d",
	})

	require.NoError(t, err)
	got := urlsOf(pages)
	assert.NotContains(t, got, srv.URL+"/private/x")
	assert.NotContains(t, got, srv.URL+"/d")
	assert.Contains(t, got, srv.URL+"/c")
}

func TestCrawl_ErrorPagesAreReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="/missing">x</a><a href="/file.pdf">pdf</a></body></html>`)
			return
		}
		if r.URL.Path == "/file.pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	pages, err := New(Config{}).Crawl(context.Background(), Options{BaseURL: srv.URL + "/", Limit: 10, CrawlDepth: 1})

	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "HTTP 404", pages[1].Error)
	assert.Contains(t, pages[2].Error, "unsupported content type")
}

func TestCrawl_InvalidBaseURL(t *testing.T) {
	c := New(Config{})

	_, err := c.Crawl(context.Background(), Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidCrawlURL)

	_, err = c.Crawl(context.Background(), Options{BaseURL: "ftp://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid URL")
}

func TestCrawl_CancelledContext(t *testing.T) {
	srv, _ := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Crawl(ctx, Options{BaseURL: srv.URL, Limit: 10, CrawlDepth: 2})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinkScope(t *testing.T) {
	tests := []struct {
		name  string
		scope linkScope
		link  string
		want  bool
	}{
		{"same host", linkScope{host: "example.com"}, "https://example.com/x", true},
		{"subdomain blocked", linkScope{host: "example.com"}, "https://docs.example.com/x", false},
		{"subdomain allowed", linkScope{host: "example.com", includeSubdomains: true}, "https://docs.example.com/x", true},
		{"external blocked", linkScope{host: "example.com"}, "https://other.org/", false},
		{"external allowed", linkScope{host: "example.com", followExternal: true}, "https://other.org/", true},
		{"external flag does not cover subdomains", linkScope{host: "example.com", followExternal: true}, "https://docs.example.com/", false},
		{"lookalike is external", linkScope{host: "example.com"}, "https://notexample.com/", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.scope.allows(u))
		})
	}
}

func TestNormalizeLink(t *testing.T) {
	base, _ := url.Parse("https://example.com/docs/intro")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"guide", "https://example.com/docs/guide", true},
		{"/about#team", "https://example.com/about", true},
		{"#top", "https://example.com/docs/intro", true},
		{"mailto:a@example.com", "", false},
		{"tel:+100", "", false},
		{"javascript:void(0)", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeLink(base, tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		assert.Equal(t, tt.want, got, tt.href)
	}
}

func TestCompileExclusions(t *testing.T) {
	res, err := CompileExclusions("/blog/*, login\n\n ?page=2 ")
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.True(t, excluded(res, "https://example.com/blog/post-1"))
	assert.True(t, excluded(res, "https://example.com/login"))
	assert.True(t, excluded(res, "https://example.com/list?page=2"))
	assert.False(t, excluded(res, "https://example.com/list?page=3"))
	assert.False(t, excluded(res, "https://example.com/blogroll"))
}
