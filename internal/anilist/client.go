// Package anilist is a minimal AniList GraphQL client: title search and
// franchise relation lookup.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/util"
)

const (
	// DefaultBaseURL is the AniList GraphQL endpoint
	DefaultBaseURL = "https://graphql.anilist.co"

	// UserAgent identifies this application to AniList
	UserAgent = "mtrack/1.0 (https://github.com/franz/media-tracker)"

	// PerPage is the number of search results requested
	PerPage = 50
)

// errRateLimited marks a 429 answer; it is the only error worth retrying
var errRateLimited = errors.New("HTTP 429 Too Many Requests")

// keptRelations are the franchise links pulled into a relation graph
var keptRelations = map[string]bool{
	"PREQUEL":     true,
	"SEQUEL":      true,
	"SIDE_STORY":  true,
	"PARENT":      true,
	"SPIN_OFF":    true,
	"ALTERNATIVE": true,
}

// Client talks to the AniList GraphQL API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	includeAdult bool
	retry        *util.RetryConfig
	onLimited    func()
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another endpoint (tests, mirrors)
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithIncludeAdult lets adult titles into search results and relation graphs
func WithIncludeAdult(include bool) Option {
	return func(c *Client) { c.includeAdult = include }
}

// WithRetryConfig overrides the 429 backoff (5s, 10s, 20s by default)
func WithRetryConfig(cfg *util.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithRateLimitHook is called for every 429 answer
func WithRateLimitHook(fn func()) Option {
	return func(c *Client) { c.onLimited = fn }
}

// NewClient creates a new AniList API client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		userAgent:  UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = util.RateLimitRetryConfig(nil)
	}
	// the predicate is always ours; callers only tune the timing
	retry := *c.retry
	retry.ShouldRetry = func(err error) bool {
		return errors.Is(err, errRateLimited)
	}
	c.retry = &retry
	return c
}

type title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type mediaNode struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Title      title  `json:"title"`
	SeasonYear int    `json:"seasonYear"`
	StartDate  struct {
		Year int `json:"year"`
	} `json:"startDate"`
	Description string `json:"description"`
	CoverImage  struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	Format  string `json:"format"`
	IsAdult bool   `json:"isAdult"`
}

type relationEdge struct {
	RelationType string    `json:"relationType"`
	Node         mediaNode `json:"node"`
}

const mediaFields = `
	id
	type
	title { romaji english native }
	seasonYear
	startDate { year }
	description
	coverImage { large }
	format
	isAdult`

const searchQuery = `
query ($search: String, $seasonYear: Int, $perPage: Int) {
	Page(page: 1, perPage: $perPage) {
		media(search: $search, seasonYear: $seasonYear, type: ANIME, sort: SEARCH_MATCH%s) {%s
		}
	}
}`

const relationsQuery = `
query ($id: Int) {
	Media(id: $id, type: ANIME) {%s
		relations {
			edges {
				relationType
				node {%s
				}
			}
		}
	}
}`

// SearchAnime searches anime by title, optionally restricted to a season year
func (c *Client) SearchAnime(ctx context.Context, query string, year int) ([]media.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	adultFilter := ""
	if !c.includeAdult {
		adultFilter = ", isAdult: false"
	}
	vars := map[string]any{"search": query, "perPage": PerPage}
	if year > 0 {
		vars["seasonYear"] = year
	}

	util.DebugLog("AniList API: searching for '%s' (year %d)", query, year)

	var data struct {
		Page struct {
			Media []mediaNode `json:"media"`
		} `json:"Page"`
	}
	if err := c.do(ctx, fmt.Sprintf(searchQuery, adultFilter, mediaFields), vars, &data); err != nil {
		return nil, err
	}

	results := make([]media.Candidate, 0, len(data.Page.Media))
	for _, n := range data.Page.Media {
		results = append(results, n.candidate(""))
	}
	util.DebugLog("AniList: %d result(s) for '%s'", len(results), query)
	return results, nil
}

// GetAnimeWithRelations returns the entry itself followed by its franchise
// relations (prequels, sequels, side stories...), each tagged with its
// relation type
func (c *Client) GetAnimeWithRelations(ctx context.Context, id int64) ([]media.Candidate, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid AniList id %d", id)
	}

	util.DebugLog("AniList API: fetching relations of %d", id)

	var data struct {
		Media *struct {
			mediaNode
			Relations struct {
				Edges []relationEdge `json:"edges"`
			} `json:"relations"`
		} `json:"Media"`
	}
	q := fmt.Sprintf(relationsQuery, mediaFields, strings.ReplaceAll(mediaFields, "\n\t", "\n\t\t\t\t"))
	if err := c.do(ctx, q, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Media == nil {
		return nil, fmt.Errorf("%w: anime %d not found", util.ErrRemote, id)
	}

	results := []media.Candidate{data.Media.mediaNode.candidate("")}
	for _, edge := range data.Media.Relations.Edges {
		if edge.Node.Type != "ANIME" || !keptRelations[edge.RelationType] {
			continue
		}
		if edge.Node.IsAdult && !c.includeAdult {
			continue
		}
		results = append(results, edge.Node.candidate(edge.RelationType))
	}
	return results, nil
}

func (n mediaNode) candidate(relation string) media.Candidate {
	year := n.SeasonYear
	if year == 0 {
		year = n.StartDate.Year
	}
	display := n.Title.English
	if display == "" {
		display = n.Title.Romaji
	}
	return media.Candidate{
		ExternalID:  n.ID,
		Kind:        media.KindAnime,
		Title:       display,
		RomajiTitle: n.Title.Romaji,
		NativeTitle: n.Title.Native,
		Year:        year,
		Overview:    CleanDescription(n.Description),
		PosterURL:   n.CoverImage.Large,
		Relation:    relation,
	}
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"errors"`
}

// do posts a GraphQL query, retrying 429 answers with backoff
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	raw, err := util.RetryWithBackoff(ctx, c.retry, func() (json.RawMessage, error) {
		return c.post(ctx, body)
	}, "AniList query")
	if err != nil {
		if errors.Is(err, errRateLimited) {
			return fmt.Errorf("%w: AniList: %v", util.ErrRemoteTransient, err)
		}
		if errors.Is(err, util.ErrRemote) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: AniList: %v", util.ErrRemote, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to decode AniList data: %v", util.ErrRemote, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		c.rateLimited()
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: AniList error: HTTP %d: %s", util.ErrRemote, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var gql gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		return nil, fmt.Errorf("%w: failed to decode AniList response: %v", util.ErrRemote, err)
	}
	if len(gql.Errors) > 0 {
		for _, e := range gql.Errors {
			if e.Status == http.StatusTooManyRequests {
				c.rateLimited()
				return nil, errRateLimited
			}
		}
		return nil, fmt.Errorf("%w: AniList: %s", util.ErrRemote, gql.Errors[0].Message)
	}
	return gql.Data, nil
}

func (c *Client) rateLimited() {
	util.DebugLog("AniList: rate limited (429)")
	if c.onLimited != nil {
		c.onLimited()
	}
}

var (
	lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTag      = regexp.MustCompile(`<[^>]+>`)
)

// CleanDescription strips HTML markup from an AniList description
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}
	desc = lineBreakTag.ReplaceAllString(desc, "\n")
	desc = htmlTag.ReplaceAllString(desc, "")
	return strings.TrimSpace(html.UnescapeString(desc))
}
