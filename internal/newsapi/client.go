package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TopicFilter scopes every query to the product's subject area. It is
// ORed on its own for top headlines and ANDed with the user's keywords
// for searches.
const TopicFilter = "VR+OR+AR"

const pageSize = 100

type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type searchResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// EverythingQuery carries the user's search parameters. Keywords are the
// raw stored value; the client joins them with "+" for transmission.
type EverythingQuery struct {
	Keywords string
	From     string
	To       string
	Language string
	SortBy   string
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Everything runs a /everything search scoped by the topic filter.
func (c *Client) Everything(ctx context.Context, query EverythingQuery) ([]Article, error) {
	params := url.Values{}
	params.Set("q", composeQ(query.Keywords))
	if query.From != "" {
		params.Set("from", query.From)
	}
	if query.To != "" {
		params.Set("to", query.To)
	}
	if query.Language != "" {
		params.Set("language", query.Language)
	}
	if query.SortBy != "" {
		params.Set("sortBy", query.SortBy)
	}
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	return c.get(ctx, "/everything", params)
}

// TopHeadlines runs a /top-headlines query for the topic, optionally
// narrowed to one country.
func (c *Client) TopHeadlines(ctx context.Context, country string) ([]Article, error) {
	params := url.Values{}
	params.Set("q", TopicFilter)
	if country != "" {
		params.Set("country", country)
	}
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	return c.get(ctx, "/top-headlines", params)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]Article, error) {
	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Add("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned non-OK status: %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("error parsing news response: %w", err)
	}
	if searchResp.Status != "ok" {
		return nil, fmt.Errorf("news API returned error status %q: %s", searchResp.Code, searchResp.Message)
	}
	return searchResp.Articles, nil
}

// composeQ joins the user's keywords with "+" and conjoins them with the
// topic filter, so results always match the product domain.
func composeQ(keywords string) string {
	joined := strings.Join(strings.Fields(keywords), "+")
	if joined == "" {
		return TopicFilter
	}
	return "(" + joined + ")+AND+(" + TopicFilter + ")"
}
