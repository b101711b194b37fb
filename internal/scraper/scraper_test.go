package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := New(WithUserAgent("test-browser/1.0"))
	page, err := c.Fetch(context.Background(), srv.URL+"/parkrunner/1/all/")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if page.Body != "<html>ok</html>" {
		t.Errorf("Body = %q", page.Body)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", page.StatusCode)
	}

	wantHeaders := map[string]string{
		"User-Agent":                "test-browser/1.0",
		"Accept-Language":           "en-US,en;q=0.5",
		"Accept-Encoding":           "gzip, deflate",
		"Upgrade-Insecure-Requests": "1",
	}
	for k, v := range wantHeaders {
		if got.Get(k) != v {
			t.Errorf("header %s = %q, want %q", k, got.Get(k), v)
		}
	}
}

func TestFetch_DecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte("<table></table>"))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	page, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.Body != "<table></table>" {
		t.Errorf("Body = %q, want decoded gzip body", page.Body)
	}
}

func TestFetch_StatusErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantNotFound bool
	}{
		{"not found", http.StatusNotFound, true},
		{"gone", http.StatusGone, true},
		{"server error", http.StatusInternalServerError, false},
		{"forbidden", http.StatusForbidden, false},
		{"rate limited", http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := New().Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("Fetch() expected error")
			}
			if !errors.Is(err, ErrFetchFailed) {
				t.Errorf("error should match ErrFetchFailed: %v", err)
			}
			if errors.Is(err, ErrNotFound) != tt.wantNotFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, want %v", !tt.wantNotFound, tt.wantNotFound)
			}
			if errors.Is(err, ErrUnavailable) == tt.wantNotFound {
				t.Errorf("errors.Is(err, ErrUnavailable) should be %v", !tt.wantNotFound)
			}

			var fe *FetchError
			if !errors.As(err, &fe) || fe.StatusCode != tt.status {
				t.Errorf("expected *FetchError with status %d, got %v", tt.status, err)
			}
			if requests != 1 {
				t.Errorf("expected exactly one request, got %d", requests)
			}
		})
	}
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New().Fetch(context.Background(), url)
	if !errors.Is(err, ErrFetchFailed) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable fetch error, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("network errors must not look like not found")
	}
}

func TestFetch_TimeoutOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := New(WithTimeout(50*time.Millisecond)).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable error after timeout, got %v", err)
	}
}

func TestFetch_RateLimitWaitsForContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := New(WithRateLimit(0.001))
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Fetch(ctx, srv.URL); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("second Fetch() should fail waiting for a slot, got %v", err)
	}
}

func TestURLs(t *testing.T) {
	if got := AthleteURL("https://www.parkrun.com.au/", "123456"); got != "https://www.parkrun.com.au/parkrunner/123456/all/" {
		t.Errorf("AthleteURL() = %q", got)
	}
	if got := EventResultsURL("https://www.parkrun.com.au", "rhodes"); got != "https://www.parkrun.com.au/rhodes/results/latestresults/" {
		t.Errorf("EventResultsURL() = %q", got)
	}
}

func TestNormalizeAthleteID(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"123456", "123456", false},
		{"A123456", "123456", false},
		{" a42 ", "42", false},
		{"", "", true},
		{"A", "", true},
		{"12ab", "", true},
		{"../etc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeAthleteID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeAthleteID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeAthleteID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEventSlug(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Rhodes", "rhodes", false},
		{"Albert Melbourne", "albertmelbourne", false},
		{"lakeview-juniors", "lakeview-juniors", false},
		{"", "", true},
		{"a/b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeEventSlug(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeEventSlug(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeEventSlug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "https://example.com/x", StatusCode: 503}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Error() = %q, want status code", err.Error())
	}
}
