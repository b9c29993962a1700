package apisvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/tododesk/core"
)

// RequestIDHeader carries the id of every outbound request.
const RequestIDHeader = "X-Request-ID"

// Client calls the remote API. Each call is a single attempt.
// Authentication rides on the cookies held by the client's jar.
type Client struct {
	baseURL *url.URL
	logger  core.Logger

	mu   sync.RWMutex
	rest *rest.Client
	conf *core.Config
}

func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	base, err := url.Parse(conf.API.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing API base URL %q", conf.API.BaseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("API base URL %q must be absolute", conf.API.BaseURL)
	}
	c := &Client{baseURL: base, logger: logger, conf: conf}
	c.rest = c.newRESTClient()
	return c, nil
}

func (c *Client) newRESTClient() *rest.Client {
	jar, _ := cookiejar.New(nil) // never fails without options
	return &rest.Client{HTTPClient: &http.Client{Jar: jar, Timeout: c.conf.API.Timeout}}
}

func (c *Client) restClient() *rest.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rest
}

// Credentials returns the cookies sent to the remote API.
func (c *Client) Credentials() []*http.Cookie {
	return c.restClient().HTTPClient.Jar.Cookies(c.baseURL)
}

// SetCredentials adds cookies to those sent to the remote API.
func (c *Client) SetCredentials(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.restClient().HTTPClient.Jar.SetCookies(c.baseURL, cookies)
}

// ClearCredentials drops every cookie.
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	c.rest = c.newRESTClient()
	c.mu.Unlock()
}

// CleanParams drops every empty parameter, so unset filters are never sent.
func CleanParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	cleaned := make(map[string]string, len(params))
	for k, v := range params {
		if v = strings.TrimSpace(v); v != "" {
			cleaned[k] = v
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// send performs one request and decodes the JSON response into out, when out is not nil.
func (c *Client) send(ctx context.Context, method rest.Method, path string, params map[string]string, body, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL.String() + path,
		QueryParams: CleanParams(params),
		Headers: map[string]string{
			"Accept":        "application/json",
			RequestIDHeader: uuid.NewString(),
		},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}

	resp, err := c.restClient().SendWithContext(ctx, req)
	if err != nil {
		c.logger.Debug("request failed", errors.Wrapf(err, "%s %s", method, path))
		return &core.RequestError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := core.NewRequestError(resp.StatusCode, errorMessage(resp.Body))
		if resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Warn("remote API error", errors.Wrapf(reqErr, "%s %s: %d", method, path, resp.StatusCode))
		}
		return reqErr
	}

	if out == nil || strings.TrimSpace(resp.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(resp.Body), out); err != nil {
		return &core.RequestError{
			Status:  resp.StatusCode,
			Message: "Unexpected response from server",
			Err:     errors.Wrapf(err, "decoding %s %s response", method, path),
		}
	}
	return nil
}

// errorMessage extracts the human-readable message of an error body: {"error": "..."} or {"detail": "..."}.
func errorMessage(body string) string {
	var payload struct {
		Error  interface{} `json:"error"`
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	for _, v := range []interface{}{payload.Error, payload.Detail} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
