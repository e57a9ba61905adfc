package scopus

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

	"golang.org/x/time/rate"

	"ArticleClassifier/internal/domain"
)

const (
	// BaseURL is the Elsevier API root.
	BaseURL = "https://api.elsevier.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit stays under the documented per-key throttle.
	DefaultRateLimit = 8.0
)

// Client is a rate-limited HTTP client for the Scopus search, serial title
// and article retrieval APIs.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithRateLimit sets the sustained requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates a Scopus client for the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		apiKey:     apiKey,
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Title resolves an ISSN to the serial title. An empty result means the
// journal is unknown.
func (c *Client) Title(ctx context.Context, issn string) (string, error) {
	endpoint := "serial title"
	u := c.buildURL("/content/serial/title/issn/"+url.PathEscape(issn), url.Values{
		"httpAccept": {"application/json"},
	})

	var resp serialTitleResponse
	if err := c.getJSON(ctx, u, endpoint, &resp); err != nil {
		return "", err
	}

	if len(resp.Response.Entry) == 0 {
		return "", nil
	}
	return resp.Response.Entry[0].Title.value, nil
}

// Count returns the number of search results for an ISSN in one year. An
// absent or unparseable total yields the None variant.
func (c *Client) Count(ctx context.Context, issn, year string) (domain.Optional[int], error) {
	var resp searchResponse
	if err := c.getJSON(ctx, c.searchURL(issn, year, -1), "search", &resp); err != nil {
		if errors.Is(err, errMalformed) {
			return domain.None[int](), nil
		}
		return domain.None[int](), err
	}

	raw, ok := resp.Results.TotalResults.optional().Get()
	if !ok {
		return domain.None[int](), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return domain.None[int](), nil
	}
	return domain.Some(n), nil
}

// Page returns the search entries starting at offset start.
func (c *Client) Page(ctx context.Context, issn, year string, start int) ([]searchEntry, error) {
	var resp searchResponse
	if err := c.getJSON(ctx, c.searchURL(issn, year, start), "search page", &resp); err != nil {
		return nil, err
	}
	return resp.Results.Entry, nil
}

// Article retrieves the full metadata for a DOI.
func (c *Client) Article(ctx context.Context, doi string) (articleRecord, error) {
	u := c.buildURL("/content/article/doi/"+escapeDOI(doi), url.Values{
		"httpAccept": {"application/json"},
	})

	var resp articleResponse
	if err := c.getJSON(ctx, u, "article", &resp); err != nil {
		return articleRecord{}, err
	}
	return resp.Retrieval.Coredata.record(), nil
}

// escapeDOI escapes each path segment and keeps the separating slashes.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) searchURL(issn, year string, start int) string {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("ISSN(%s)", issn))
	q.Set("date", year)
	if start >= 0 {
		q.Set("start", strconv.Itoa(start))
	}
	return c.buildURL("/content/search/scopus", q)
}

func (c *Client) buildURL(path string, q url.Values) string {
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	return c.baseURL + path + "?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, u, endpoint string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ArticleClassifier/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, endpoint); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", errMalformed, endpoint, err)
	}
	return nil
}
