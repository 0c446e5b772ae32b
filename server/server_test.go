package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rbdcsite/shelfeed/config"
	"github.com/rbdcsite/shelfeed/fetcher/types"
)

const diaryURL = "https://letterboxd.example/rss/"
const booksURL = "https://goodreads.example/rss/"

const diaryBody = `<rss><channel>
<item><title>Heat, 1995 - ★★★★★</title><link>https://letterboxd.example/heat/</link><pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate><letterboxd:memberRating>5.0</letterboxd:memberRating></item>
<item><title>Ronin, 1998 - ★★★</title><link>https://letterboxd.example/ronin/</link><letterboxd:memberRating>3.0</letterboxd:memberRating></item>
<item><title>Thief, 1981</title><link>https://letterboxd.example/thief/</link></item>
</channel></rss>`

const booksBody = `<rss><channel>
<item><title><![CDATA[The Hobbit]]></title><link>https://goodreads.example/1</link><description><![CDATA[<img src="https://img/hobbit._SY75_.jpg">]]></description></item>
</channel></rss>`

type stubFetcher struct {
	bodies map[string]string
	err    error
	urls   []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	s.urls = append(s.urls, url)
	if s.err != nil {
		return "", s.err
	}
	return s.bodies[url], nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{
		{Name: types.Diary, FeedURL: diaryURL, Limit: 1, MaxLimit: 2, FilterNames: []string{"good"}},
		{Name: types.Books, FeedURL: booksURL, Limit: 1, MaxLimit: 10},
	}
	cfg.Filters = map[string]config.Filter{"good": {MinRating: 4}}
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, f types.FeedFetcher) http.Handler {
	t.Helper()
	srv, err := New(cfg, f, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHandleFeed_Diary(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{diaryURL: diaryBody}}
	h := newTestServer(t, testConfig(), f)

	rec := get(t, h, "/rss?source=diary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, s-maxage=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected request id header")
	}

	resp := decode[Response](t, rec)
	if resp.Source != types.Diary {
		t.Errorf("source = %q", resp.Source)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	item := resp.Items[0]
	if item.Title != "Heat" || item.Rating == nil || *item.Rating != 5 {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.Cover != nil {
		t.Errorf("expected null cover, got %q", *item.Cover)
	}
	if len(f.urls) != 1 || f.urls[0] != diaryURL {
		t.Errorf("fetched %v, want [%s]", f.urls, diaryURL)
	}
}

func TestHandleFeed_NullFields(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{booksURL: "<item><title>x</title></item>"}}
	h := newTestServer(t, testConfig(), f)

	rec := get(t, h, "/rss?source=books")
	raw := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, rec)
	if len(raw.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(raw.Items))
	}
	item := raw.Items[0]
	for _, key := range []string{"rating", "cover"} {
		v, ok := item[key]
		if !ok || v != nil {
			t.Errorf("expected %s to be null, got %v (present=%v)", key, v, ok)
		}
	}
}

func TestHandleFeed_AliasAndLimit(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{diaryURL: diaryBody}}
	h := newTestServer(t, testConfig(), f)

	// limit is capped at max_limit=2, the rating filter then drops Ronin
	rec := get(t, h, "/rss?source=letterboxd&limit=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[Response](t, rec)
	if resp.Source != types.Diary {
		t.Errorf("source = %q, want canonical name", resp.Source)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Heat" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
}

func TestHandleFeed_Books(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{booksURL: booksBody}}
	h := newTestServer(t, testConfig(), f)

	resp := decode[Response](t, get(t, h, "/rss?source=goodreads"))
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	item := resp.Items[0]
	if item.Rating != nil {
		t.Error("expected no rating for books")
	}
	if item.Cover == nil || *item.Cover != "https://img/hobbit.jpg" {
		t.Errorf("cover = %v", item.Cover)
	}
}

func TestHandleFeed_InvalidSource(t *testing.T) {
	cfg := testConfig()
	cfg.Sources[1].FeedURL = "" // books URL not configured

	tests := []string{
		"/rss",
		"/rss?source=",
		"/rss?source=podcasts",
		"/rss?source=books",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			f := &stubFetcher{}
			rec := get(t, newTestServer(t, cfg, f), target)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if rec.Header().Get("Cache-Control") != "" {
				t.Error("expected no cache header on errors")
			}
			if resp := decode[errorResponse](t, rec); resp.Error != invalidSourceMessage {
				t.Errorf("error = %q", resp.Error)
			}
			if len(f.urls) != 0 {
				t.Errorf("expected no fetch, got %v", f.urls)
			}
		})
	}
}

func TestHandleFeed_FetchError(t *testing.T) {
	f := &stubFetcher{err: errors.New("dial tcp: connection refused")}
	rec := get(t, newTestServer(t, testConfig(), f), "/rss?source=diary")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decode[errorResponse](t, rec); resp.Error != "dial tcp: connection refused" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestHandleFeed_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig(), &stubFetcher{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rss?source=diary", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleFeed_CustomRoute(t *testing.T) {
	cfg := testConfig()
	cfg.Route = "/.netlify/functions/rss"
	f := &stubFetcher{bodies: map[string]string{booksURL: booksBody}}
	h := newTestServer(t, cfg, f)

	if rec := get(t, h, "/.netlify/functions/rss?source=books"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec := get(t, h, "/rss?source=books"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for old route", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, testConfig(), &stubFetcher{}), "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestServer(t, testConfig(), &stubFetcher{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}
