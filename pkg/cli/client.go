package cli

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

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
)

// apiPrefix matches the server's mount point.
const apiPrefix = "/api/v1"

// Client calls a running transaction API server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.HTTPStatus, e.Message)
}

// Response is the server's success envelope with the payload left raw.
type Response struct {
	Data            json.RawMessage    `json:"data"`
	Pagination      *domain.Pagination `json:"pagination,omitempty"`
	QueryParameters map[string]string  `json:"query_parameters"`
	Timestamp       string             `json:"timestamp"`
}

// Get issues GET apiPrefix+path with params encoded in order.
func (c *Client) Get(ctx context.Context, path string, params []querybuilder.Param) (*Response, error) {
	u := c.BaseURL + apiPrefix + path
	if q := encodeParams(params); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

// encodeParams keeps parameter order, which url.Values cannot.
func encodeParams(params []querybuilder.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

func decodeAPIError(status int, body []byte) error {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil || (e.Error == "" && e.Message == "") {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &APIError{HTTPStatus: status, Message: msg}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return &APIError{HTTPStatus: status, Code: e.Error, Message: e.Message}
}

// decodeRows decodes a JSON array of objects, keeping the key order of the
// first object as the column order.
func decodeRows(raw json.RawMessage) ([]string, []map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("decode rows: %w", err)
	} else if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, nil, errors.New("decode rows: expected a JSON array")
	}

	var columns []string
	var rows []map[string]any
	for dec.More() {
		keys, row, err := decodeObject(dec)
		if err != nil {
			return nil, nil, err
		}
		if columns == nil {
			columns = keys
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func decodeObject(dec *json.Decoder) ([]string, map[string]any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("decode row: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("decode row: expected a JSON object")
	}
	var keys []string
	row := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("decode row: %w", err)
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("decode row %q: %w", key, err)
		}
		keys = append(keys, key)
		row[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("decode row: %w", err)
	}
	return keys, row, nil
}
