// Package hass talks to the Home Assistant REST API.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ha_location_proxy/internal/models"
)

const maxBodyBytes = 1 << 20

// RawResponse is what came back for a single request.
type RawResponse struct {
	StatusCode int
	// State is decoded only for 2xx responses and is nil when the body
	// was empty, null or not an entity.
	State *models.EntityState
}

// Client performs exactly one HTTP request per Fetch call.
type Client struct {
	http *http.Client
}

// NewClient bounds dialing by connectTimeout and waiting for headers by
// readTimeout. The whole request, body included, must finish within their sum.
func NewClient(connectTimeout, readTimeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = readTimeout
	return &Client{http: &http.Client{
		Transport: transport,
		Timeout:   connectTimeout + readTimeout,
	}}
}

// NormalizeBaseURL prefixes http:// when no scheme is given and makes sure
// the URL ends in exactly one "/".
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "http://" + s
	}
	return strings.TrimRight(s, "/") + "/"
}

// Fetch GETs {base}api/states/{entityID}. A non-nil error means the request
// never produced an HTTP response (or its body could not be read).
func (c *Client) Fetch(ctx context.Context, baseURL, credential, entityID string) (*RawResponse, error) {
	endpoint := NormalizeBaseURL(baseURL) + "api/states/" + url.PathEscape(entityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	out := &RawResponse{StatusCode: resp.StatusCode}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		out.State = decodeState(body)
	}
	return out, nil
}

func decodeState(body []byte) *models.EntityState {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	var st models.EntityState
	if err := json.Unmarshal(body, &st); err != nil {
		return nil
	}
	return &st
}
