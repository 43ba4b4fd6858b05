// Package backend talks to the hosted storefront backend over its
// PostgREST-style REST interface. It serves the same order operations as the
// PostgreSQL store for deployments that do not own the database.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/safar/sanli-cicek/internal/config"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type Client struct {
	rc *resty.Client
}

func New(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+"/rest/v1").
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"apikey":       cfg.APIKey,
			"Accept":       "application/json",
			"Content-Type": "application/json",
		}).
		SetAuthToken(cfg.APIKey)

	return &Client{rc: rc}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx)
}

// do sends r and decodes a 2xx JSON body into out when out is not nil.
func do(r *resty.Request, method, path string, out interface{}) (*resty.Response, error) {
	resp, err := r.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		return resp, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode(),
			Body:   string(resp.Body()),
		}
	}

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	return resp, nil
}

// countFrom reads the total from a Content-Range header such as "0-9/42"
// or "*/0".
func countFrom(resp *resty.Response) (int64, error) {
	header := resp.Header().Get("Content-Range")
	i := strings.LastIndex(header, "/")
	if i < 0 || header[i+1:] == "*" {
		return 0, fmt.Errorf("missing count in content range %q", header)
	}
	return strconv.ParseInt(header[i+1:], 10, 64)
}

// count returns the number of rows in table.
func (c *Client) count(ctx context.Context, table string) (int64, error) {
	resp, err := do(c.request(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParams(map[string]string{"select": "id", "limit": "0"}),
		http.MethodGet, "/"+table, nil)
	if err != nil {
		return 0, err
	}
	return countFrom(resp)
}
