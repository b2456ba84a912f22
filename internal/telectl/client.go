package telectl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps HTTP operations against the telemetry API
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new client for the telemetry API
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIResponse wraps the standard API response format
type APIResponse struct {
	Data json.RawMessage `json:"data"`
	Meta *APIMeta        `json:"meta,omitempty"`
}

// APIMeta contains metadata about the response
type APIMeta struct {
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

// APIError represents an API error response
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Get performs a GET request to the API
func (c *HTTPClient) Get(path string) (*APIResponse, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuthHeader(req)
	return c.do(req)
}

// Post performs a POST request to the API
func (c *HTTPClient) Post(path string, payload interface{}) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(req)

	return c.do(req)
}

func (c *HTTPClient) do(req *http.Request) (*APIResponse, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telemetry server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp.StatusCode, body)
	}

	var out APIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// setAuthHeader adds the Bearer token to the request
func (c *HTTPClient) setAuthHeader(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// parseError parses HTTP error responses
func (c *HTTPClient) parseError(statusCode int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error == "" {
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("unauthorized: check your API key")
		case http.StatusNotFound:
			return fmt.Errorf("not found")
		default:
			return fmt.Errorf("request failed with status %d", statusCode)
		}
	}
	return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
}
