package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/util"
)

func fastRetry() *util.RetryConfig {
	return &util.RetryConfig{MaxAttempts: 4, InitialWait: time.Millisecond, MaxWait: 4 * time.Millisecond}
}

func TestSearchMovie(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"page": 1, "results": [
			{"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "overview": "Neo.", "poster_path": "/m.jpg"},
			{"id": 604, "title": "The Matrix Reloaded", "release_date": ""}
		]}`))
	}))
	defer server.Close()

	client := New(" key ", WithBaseURL(server.URL), WithRetryConfig(fastRetry()))
	results, err := client.SearchMovie(context.Background(), "The Matrix", 1999)
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}

	if gotPath != "/search/movie" {
		t.Errorf("unexpected path %q", gotPath)
	}
	want := map[string]string{"query": "The Matrix", "api_key": "key", "include_adult": "false", "year": "1999"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("param %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.ExternalID != 603 || first.Title != "The Matrix" || first.Year != 1999 || first.Kind != media.KindMovie {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.PosterURL != ImageBaseURL+"/m.jpg" {
		t.Errorf("poster URL = %q", first.PosterURL)
	}
	if results[1].Year != 0 || results[1].PosterURL != "" {
		t.Errorf("missing date and poster should stay empty: %+v", results[1])
	}
}

func TestSearchTV(t *testing.T) {
	var gotYear, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotYear = r.URL.Query().Get("first_air_date_year")
		w.Write([]byte(`{"results": [{"id": 1396, "name": "Breaking Bad", "original_name": "Breaking Bad", "first_air_date": "2008-01-20"},
			{"id": 2, "name": "Money Heist", "original_name": "La casa de papel", "first_air_date": "2017-05-02"}]}`))
	}))
	defer server.Close()

	client := New("key", WithBaseURL(server.URL), WithIncludeAdult(true))
	results, err := client.SearchTV(context.Background(), "Breaking Bad", 2008)
	if err != nil {
		t.Fatalf("SearchTV: %v", err)
	}
	if gotPath != "/search/tv" || gotYear != "2008" {
		t.Errorf("unexpected request: path=%q year=%q", gotPath, gotYear)
	}
	if results[0].Title != "Breaking Bad" || results[0].Year != 2008 || results[0].Kind != media.KindTV {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].NativeTitle != "" || results[1].NativeTitle != "La casa de papel" {
		t.Errorf("original names not carried: %+v", results)
	}
}

func TestSearchCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
		for i := 1; i <= 15; i++ {
			if i > 1 {
				w.Write([]byte(","))
			}
			fmt.Fprintf(w, `{"id": %d, "title": "Movie %d"}`, i, i)
		}
		w.Write([]byte(`]}`))
	}))
	defer server.Close()

	results, err := New("key", WithBaseURL(server.URL)).SearchMovie(context.Background(), "Movie", 0)
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if len(results) != MaxResults {
		t.Errorf("expected %d results, got %d", MaxResults, len(results))
	}
}

func TestSearchWithoutAPIKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := New("  ", WithBaseURL(server.URL))
	if client.HasAPIKey() {
		t.Error("blank key should count as absent")
	}
	results, err := client.SearchMovie(context.Background(), "The Matrix", 0)
	if err != nil || results != nil {
		t.Errorf("expected nil, nil without a key; got %v, %v", results, err)
	}
	if calls != 0 {
		t.Errorf("no request expected without a key, got %d", calls)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		wantCalls int32
	}{
		{"rate limited until exhausted", http.StatusTooManyRequests, util.ErrRemoteTransient, 4},
		{"unauthorized", http.StatusUnauthorized, util.ErrRemote, 1},
		{"server error", http.StatusInternalServerError, util.ErrRemote, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := New("key", WithBaseURL(server.URL), WithRetryConfig(fastRetry()))
			_, err := client.SearchMovie(context.Background(), "x", 0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestClientTimeoutIsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := New("key", WithBaseURL(server.URL), WithRetryConfig(fastRetry()), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	ctx := context.Background()
	_, err := client.SearchMovie(ctx, "The Matrix", 0)
	if !errors.Is(err, util.ErrRemote) {
		t.Fatalf("expected ErrRemote for a client timeout, got %v", err)
	}
	if errors.Is(err, util.ErrRemoteTransient) {
		t.Error("a timeout is not a rate limit")
	}
	if ctx.Err() != nil {
		t.Error("caller context must stay live")
	}
}

func TestRateLimitThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results": [{"id": 1, "title": "Heat", "release_date": "1995-12-15"}]}`))
	}))
	defer server.Close()

	results, err := New("key", WithBaseURL(server.URL), WithRetryConfig(fastRetry())).SearchMovie(context.Background(), "Heat", 0)
	if err != nil || len(results) != 1 {
		t.Fatalf("expected one result after a retry, got %v, %v", results, err)
	}
}

func TestYearOf(t *testing.T) {
	tests := map[string]int{"": 0, "1999-03-30": 1999, "2008": 2008, "abc": 0, "20x1-01-01": 0}
	for in, want := range tests {
		if got := yearOf(in); got != want {
			t.Errorf("yearOf(%q) = %d, want %d", in, got, want)
		}
	}
}
