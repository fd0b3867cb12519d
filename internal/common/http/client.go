// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-forecast/internal/models"
)

// Client talks to a running forecast server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// StatusError is returned for every non-2xx answer.
type StatusError struct {
	Status int
	models.APIError
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// PredictSingle posts one prediction request.
func (c *Client) PredictSingle(ctx context.Context, req models.PredictionRequest) (*models.SingleResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out models.SingleResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/predictions", "application/json", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictBatch uploads a CSV table as the raw request body.
func (c *Client) PredictBatch(ctx context.Context, contents []byte) (*models.BatchResponse, error) {
	var out models.BatchResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/predictions/batch", "text/csv", contents, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download fetches the result file behind a download_url.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	res, err := c.send(ctx, http.MethodGet, downloadURL, "", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}

func (c *Client) Outlets(ctx context.Context) ([]models.OutletProfile, error) {
	var out struct {
		Outlets []models.OutletProfile `json:"outlets"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/outlets", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Outlets, nil
}

func (c *Client) SearchItems(ctx context.Context, term string, limit int) ([]string, error) {
	q := url.Values{"search": {term}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Items []string `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/items?"+q.Encode(), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) call(ctx context.Context, method, path, contentType string, body []byte, out interface{}) error {
	res, err := c.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send returns the response only for 2xx statuses; the caller closes its body.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.DoWithContext(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}
	defer res.Body.Close()

	statusErr := &StatusError{Status: res.StatusCode}
	var envelope struct {
		Error models.APIError `json:"error"`
	}
	if json.NewDecoder(res.Body).Decode(&envelope) == nil {
		statusErr.APIError = envelope.Error
	}
	return nil, statusErr
}
