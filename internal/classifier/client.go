package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request is one classification unit: a cropped question row and its
// 1-based question number.
type Request struct {
	QuestionNumber int    `json:"questionNumber"`
	ImageBase64    string `json:"imageBase64"`
}

// Classification is the remote service's answer for one row.
type Classification struct {
	SelectedOption string  `json:"selectedOption"`
	Confidence     float64 `json:"confidence"`
}

// Client talks to the remote row-classification service. The service is an
// opaque collaborator: the engine only depends on this request/response
// contract and substitutes error verdicts for anything it cannot parse.
type Client struct {
	url    *url.URL
	client *http.Client
}

// NewClient builds a classifier client for the given base URL. A nil
// httpClient falls back to http.DefaultClient; per-call deadlines come from
// the caller's context, not the client.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: u, client: httpClient}, nil
}

// Classify submits one row for remote recognition.
//
// Non-200 responses and unparseable bodies are returned as errors; the
// caller degrades them to per-question error verdicts.
func (c *Client) Classify(ctx context.Context, req *Request) (*Classification, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.url.JoinPath("/classify-row").String()
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, fmt.Errorf("classifier status %d: %s", response.StatusCode, body)
	}

	var result Classification
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return &result, nil
}
