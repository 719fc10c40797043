package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"finboard/internal/api"
	"finboard/internal/log"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Client talks to the finance service over JSON/HTTP.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	tokens        api.TokenSource
	limiter       *rate.Limiter
	timeout       time.Duration
	uploadTimeout time.Duration
	logger        *log.Logger
}

var _ api.Backend = (*Client)(nil)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	UploadTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Tokens         api.TokenSource
	HTTPClient     *http.Client
	Logger         *log.Logger
}

// New creates a client for the service rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 60 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClientWithPooling()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentAPI)
	}

	limit := rate.Inf
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
	}
	burst := opts.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:       base,
		http:          opts.HTTPClient,
		tokens:        opts.Tokens,
		limiter:       rate.NewLimiter(limit, burst),
		timeout:       opts.Timeout,
		uploadTimeout: opts.UploadTimeout,
		logger:        opts.Logger,
	}, nil
}

// SetTokenSource swaps the bearer token provider.
func (c *Client) SetTokenSource(ts api.TokenSource) {
	c.tokens = ts
}

// newHTTPClientWithPooling returns a client with a pooled keep-alive
// transport. Deadlines come from request contexts so long uploads are
// not cut by a global timeout.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// getJSON issues a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// doJSON sends in as a JSON body (when non-nil) and decodes the answer into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, path, out)
}

// send paces, authenticates and logs one request, then decodes the JSON
// answer into out. Non-2xx statuses become *api.Error.
func (c *Client) send(req *http.Request, path string, out any) error {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limiter: %w", req.Method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.WarnContext(ctx, "Finance API request failed",
			log.NewFields().
				WithRequestID(requestID).
				WithHTTPCall(req.Method, path, 0, duration).
				WithError(err).
				ToSlice()...)
		return fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Finance API request completed",
		log.NewFields().
			WithRequestID(requestID).
			WithHTTPCall(req.Method, path, resp.StatusCode, duration).
			ToSlice()...)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &api.Error{Status: resp.StatusCode, Detail: parseDetail(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s %s: empty response body", req.Method, path)
		}
		return fmt.Errorf("decode %s %s: %w", req.Method, path, err)
	}
	return nil
}

// parseDetail extracts the human message from an error body. The service
// answers {"detail": "..."} for handled errors and {"detail": [{"msg": ...}]}
// for request validation failures.
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) == 0 {
		return envelope.Message
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if field := lastLocation(it.Loc); field != "" {
				msgs = append(msgs, field+": "+it.Msg)
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return envelope.Message
}

func lastLocation(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}
