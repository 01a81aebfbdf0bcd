package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ktanabe/askrag/internal/core/domain"
	"github.com/ktanabe/askrag/internal/infrastructure/resilience"
)

const (
	defaultBaseURL = "https://serpapi.com/search.json"
	resultsPerPage = 10

	// maxPerDomain keeps one host from crowding out the result list.
	maxPerDomain = 2
)

// Client queries SerpAPI's google engine and returns deduplicated,
// domain-diverse organic results.
type Client struct {
	baseURL    string
	apiKey     string
	engine     string
	httpClient *http.Client
	runner     *resilience.Runner
}

func New(baseURL, apiKey string, runner *resilience.Runner) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		engine:     "google",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		runner:     runner,
	}
}

func (c *Client) Search(ctx context.Context, query string, pages int) ([]domain.WebHit, error) {
	if pages <= 0 {
		pages = 1
	}

	var raw []organicResult
	for page := 0; page < pages; page++ {
		results, err := c.searchPage(ctx, query, page)
		if err != nil {
			return nil, err
		}
		raw = append(raw, results...)
	}

	return diversify(raw), nil
}

type organicResult struct {
	Position int     `json:"position"`
	Title    string  `json:"title"`
	Link     string  `json:"link"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"-"`
}

func (c *Client) searchPage(ctx context.Context, query string, page int) ([]organicResult, error) {
	var payload struct {
		OrganicResults []organicResult `json:"organic_results"`
	}

	call := func(ctx context.Context) error {
		params := url.Values{}
		params.Set("engine", c.engine)
		params.Set("q", query)
		params.Set("api_key", c.apiKey)
		if page > 0 {
			params.Set("start", strconv.Itoa(page*resultsPerPage))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("create search request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("serpapi request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &statusError{status: resp.Status, statusCode: resp.StatusCode, body: strings.TrimSpace(string(raw))}
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	}

	if c.runner == nil {
		if err := call(ctx); err != nil {
			return nil, err
		}
		return payload.OrganicResults, nil
	}

	if err := c.runner.Run(ctx, "serp_search", call, classifySerpError); err != nil {
		return nil, err
	}
	return payload.OrganicResults, nil
}

// diversify drops exact URL repeats (scheme and query ignored) and caps
// results per registrable host, keeping the original ranking order.
func diversify(results []organicResult) []domain.WebHit {
	seen := make(map[string]struct{}, len(results))
	perDomain := make(map[string]int, len(results))

	out := make([]domain.WebHit, 0, len(results))
	for _, r := range results {
		if r.Link == "" {
			continue
		}
		parsed, err := url.Parse(r.Link)
		if err != nil || parsed.Host == "" {
			continue
		}

		host := strings.ToLower(parsed.Host)
		key := host + parsed.Path
		if _, dup := seen[key]; dup {
			continue
		}
		if perDomain[host] >= maxPerDomain {
			continue
		}
		seen[key] = struct{}{}
		perDomain[host]++

		out = append(out, domain.WebHit{
			Title:   r.Title,
			URL:     r.Link,
			Rank:    len(out) + 1,
			Snippet: r.Snippet,
		})
	}
	return out
}

type statusError struct {
	status     string
	statusCode int
	body       string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("serpapi status: %s", e.status)
	}
	return fmt.Sprintf("serpapi status: %s: %s", e.status, e.body)
}

func classifySerpError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, RecordFailure: false}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.statusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.Outcome{Retryable: true, RecordFailure: true}
		default:
			return resilience.Outcome{Retryable: false, RecordFailure: false}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retryable: true, RecordFailure: true}
	}
	return resilience.Outcome{Retryable: false, RecordFailure: true}
}
