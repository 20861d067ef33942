package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client queries the usersbox data aggregator.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type Result struct {
	Status string     `json:"status"`
	Error  *APIError  `json:"error,omitempty"`
	Data   ResultData `json:"data"`

	// Raw keeps the untouched provider response for the search record.
	Raw []byte `json:"-"`
}

type APIError struct {
	Message string `json:"message"`
}

type ResultData struct {
	Count int64        `json:"count"`
	Items []SourceHits `json:"items"`
}

type SourceHits struct {
	Source Source `json:"source"`
	Hits   Hits   `json:"hits"`
}

type Source struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

type Hits struct {
	Count     int64                    `json:"count"`
	HitsCount int64                    `json:"hitsCount"`
	Items     []map[string]interface{} `json:"items"`
}

func (r *Result) Failed() bool {
	return r.Status == "error"
}

// Search runs one provider query. Transport failures surface as errors;
// a provider-level refusal comes back as a Result with Failed() true,
// mirroring how the provider itself reports problems.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	u := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usersbox request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("usersbox response: %w", err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("usersbox decode: %w", err)
	}
	result.Raw = raw
	return &result, nil
}
