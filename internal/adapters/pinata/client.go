// Package pinata stores JSON documents on IPFS through the Pinata pinning API.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// StatusError is a non-success HTTP response from Pinata or the gateway.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pinata: status %d: %s", e.Code, e.Body)
}

// Client implements ports.ContentStore.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	gateway    string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a Pinata client. gateway is the URL prefix a CID is
// appended to when fetching.
func NewClient(apiKey, apiSecret, baseURL, gateway string) *Client {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		gateway:    gateway,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		backoff:    200 * time.Millisecond,
	}
}

type pinRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata map[string]any `json:"pinataMetadata,omitempty"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int    `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinJSON pins v and returns its CID. Pinning the same content again yields
// the same CID, so transient failures are retried.
func (c *Client) PinJSON(ctx context.Context, name string, v any) (string, error) {
	body := pinRequest{PinataContent: v}
	if name != "" {
		body.PinataMetadata = map[string]any{"name": name}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal pin request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	})
	if err != nil {
		return "", fmt.Errorf("pin json: %w", err)
	}
	defer resp.Body.Close()

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", errors.New("pin json: empty IpfsHash in response")
	}
	return out.IpfsHash, nil
}

// FetchJSON reads the document cid from the gateway into out.
func (c *Client) FetchJSON(ctx context.Context, cid string, out any) error {
	if cid == "" {
		return errors.New("fetch json: empty cid")
	}
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.gateway+cid, nil)
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", cid, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", cid, err)
	}
	return nil
}

// Unpin removes the pin for cid. Unpinning an unknown CID is not an error.
func (c *Client) Unpin(ctx context.Context, cid string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.baseURL+"/pinning/unpin/"+cid, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("unpin %s: %w", cid, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.apiSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries network errors and 429/5xx responses with exponential
// backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 3
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
