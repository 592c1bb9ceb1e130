// Package tmdb searches The Movie Database for movies and TV shows.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/util"
)

const (
	// DefaultBaseURL is the TMDB v3 API base URL
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// ImageBaseURL prefixes poster paths
	ImageBaseURL = "https://image.tmdb.org/t/p/w500"

	// MaxResults caps the results kept per search
	MaxResults = 10
)

var errRateLimited = errors.New("HTTP 429 Too Many Requests")

// Result is a single TMDB search hit. Movies carry Title/ReleaseDate, TV
// shows carry Name/FirstAirDate.
type Result struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
}

type response struct {
	Page    int      `json:"page"`
	Results []Result `json:"results"`
}

// Client provides access to the TMDB search API
type Client struct {
	apiKey       string
	baseURL      string
	includeAdult bool
	httpClient   *http.Client
	retry        *util.RetryConfig
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithIncludeAdult sets TMDB's include_adult search flag
func WithIncludeAdult(include bool) Option {
	return func(c *Client) { c.includeAdult = include }
}

// WithRetryConfig overrides the 429 backoff
func WithRetryConfig(cfg *util.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a TMDB client. An empty key is allowed: searches then return
// no results without touching the network.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = util.RateLimitRetryConfig(nil)
	}
	retry := *c.retry
	retry.ShouldRetry = func(err error) bool {
		return errors.Is(err, errRateLimited) || util.IsRetryableError(err)
	}
	c.retry = &retry
	return c
}

// HasAPIKey reports whether searches will reach TMDB
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// SearchMovie searches movies by title, optionally restricted to a release year
func (c *Client) SearchMovie(ctx context.Context, query string, year int) ([]media.Candidate, error) {
	return c.search(ctx, "/search/movie", "year", media.KindMovie, query, year)
}

// SearchTV searches TV shows by title, optionally restricted to a first-air year
func (c *Client) SearchTV(ctx context.Context, query string, year int) ([]media.Candidate, error) {
	return c.search(ctx, "/search/tv", "first_air_date_year", media.KindTV, query, year)
}

func (c *Client) search(ctx context.Context, path, yearParam string, kind media.Kind, query string, year int) ([]media.Candidate, error) {
	query = strings.TrimSpace(query)
	if c.apiKey == "" || query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	params.Set("include_adult", strconv.FormatBool(c.includeAdult))
	if year > 0 {
		params.Set(yearParam, strconv.Itoa(year))
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	util.DebugLog("TMDB API: %s '%s' (year %d)", path, query, year)

	payload, err := util.RetryWithBackoff(ctx, c.retry, func() (*response, error) {
		return c.get(ctx, endpoint)
	}, "TMDB "+path)
	if err != nil {
		switch {
		case errors.Is(err, errRateLimited):
			return nil, fmt.Errorf("%w: TMDB: %v", util.ErrRemoteTransient, err)
		case ctx.Err() != nil, errors.Is(err, util.ErrRemote):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: TMDB: %v", util.ErrRemote, err)
		}
	}

	results := payload.Results
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	candidates := make([]media.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, r.candidate(kind))
	}
	util.DebugLog("TMDB: %d result(s) for '%s'", len(candidates), query)
	return candidates, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		util.DebugLog("TMDB: rate limited (429)")
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: tmdb search returned %d", util.ErrRemote, resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode tmdb response: %v", util.ErrRemote, err)
	}
	return &payload, nil
}

func (r Result) candidate(kind media.Kind) media.Candidate {
	title, date := r.Title, r.ReleaseDate
	if kind == media.KindTV {
		title, date = r.Name, r.FirstAirDate
	}
	c := media.Candidate{
		ExternalID: r.ID,
		Kind:       kind,
		Title:      title,
		Year:       yearOf(date),
		Overview:   r.Overview,
	}
	if kind == media.KindTV && r.OriginalName != title {
		c.NativeTitle = r.OriginalName
	}
	if r.PosterPath != "" {
		c.PosterURL = ImageBaseURL + r.PosterPath
	}
	return c
}

// yearOf reads the year of a YYYY-MM-DD date; 0 when absent or malformed
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
