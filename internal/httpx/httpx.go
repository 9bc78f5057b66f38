package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"github.com/bytedance/sonic"
)

// BrowserUserAgent is sent to providers that reject non-browser clients.
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.132 Safari/537.36"

const (
	maxBodyBytes = 4 << 20
	snippetBytes = 300
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds a whole call, retries included.
	Timeout   time.Duration
	Retry     int
	Backoff   time.Duration
	UserAgent string
}

// Client performs bounded GET requests against JSON providers.
type Client struct {
	hc  *http.Client
	opt Options
}

func New(opt Options) *Client {
	if opt.Timeout <= 0 {
		opt.Timeout = 5 * time.Second
	}
	if opt.Backoff <= 0 {
		opt.Backoff = 100 * time.Millisecond
	}
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		DialContext:     (&net.Dialer{Timeout: opt.Timeout}).DialContext,
		MaxIdleConns:    100,
		IdleConnTimeout: 30 * time.Second,
	}
	return &Client{
		hc:  &http.Client{Transport: transport},
		opt: opt,
	}
}

// Timeout returns the per-call deadline.
func (c *Client) Timeout() time.Duration {
	return c.opt.Timeout
}

// Get fetches rawURL and returns the body of a 2xx response. Transport errors and
// 5xx responses are retried; 4xx responses are not.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opt.Timeout)
	defer cancel()

	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.once(ctx, rawURL)
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) && se.Code < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.opt.Retry+1)),
		retry.Delay(c.opt.Backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the body into dst.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dst any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) once(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	if c.opt.UserAgent != "" {
		req.Header.Set("User-Agent", c.opt.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

// snippet keeps at most snippetBytes of b, cut on a rune boundary.
func snippet(b []byte) string {
	if len(b) > snippetBytes {
		cut := snippetBytes
		for cut > 0 && !utf8.RuneStart(b[cut]) {
			cut--
		}
		b = b[:cut]
	}
	return string(b)
}
