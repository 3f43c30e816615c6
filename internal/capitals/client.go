package capitals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://restcountries.com/v3.1"

// ErrNotFound is returned when the service has no capital for the country.
var ErrNotFound = errors.New("capital not found")

// Lookup resolves a country name to its capital.
type Lookup interface {
	Lookup(ctx context.Context, country string) (string, error)
}

// Client queries a restcountries-compatible REST API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type countryResult struct {
	Capital []string `json:"capital"`
}

func (c *Client) Lookup(ctx context.Context, country string) (string, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return "", ErrNotFound
	}

	endpoint := fmt.Sprintf("%s/name/%s?fullText=true&fields=capital", c.baseURL, url.PathEscape(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("capitals http status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []countryResult
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	for _, r := range results {
		for _, capital := range r.Capital {
			if capital = strings.TrimSpace(capital); capital != "" {
				return capital, nil
			}
		}
	}
	return "", ErrNotFound
}
