package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// Client issues JSON requests against the PathPal API. It attaches no
// credentials of its own and never retries; authorization and retry policy
// belong to the session manager.
type Client struct {
	base    *url.URL
	version string
	http    *http.Client
	logger  zerolog.Logger
}

// Option modifies a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request. Timeouts surface as KindTimeout errors.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a transport for the API at baseURL. version, when non-empty, is
// inserted as a path prefix (e.g. "v1").
func New(baseURL, version string, options ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[transport.New] parse base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("[transport.New] unsupported scheme %q", base.Scheme)
	}

	c := &Client{
		base:    base,
		version: strings.Trim(version, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Raw is a request body that is already encoded. It is sent verbatim with
// its content type, and unlike an io.Reader it can be resent on a retry.
type Raw struct {
	ContentType string
	Data        []byte
}

// Response is a decoded-on-demand API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("[Response.Decode] empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "[Response.Decode] unmarshal")
	}
	return nil
}

// Do issues a single request. body may be nil, a []byte or io.Reader sent
// as-is (content type taken from header), or any other value which is
// marshalled as JSON. Responses with status >= 400 are returned as *Error;
// the caller never inspects status codes on the success path.
func (c *Client) Do(ctx context.Context, method, path string, body any, header http.Header) (*Response, error) {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Do] encode body")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Do] build request")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := KindNetwork
		if isTimeout(err) {
			kind = KindTimeout
		}
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("transport failure")
		return nil, &Error{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: errors.Wrap(err, "read body")}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request")

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, Body: raw}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}, nil
}

func (c *Client) resolve(path string) string {
	// A query string in path must land in RawQuery; assigning it to Path
	// would percent-encode the '?' and the server would never see it.
	rel, query := path, ""
	if idx := strings.Index(path, "?"); idx >= 0 {
		rel, query = path[:idx], path[idx+1:]
	}
	u := *c.base
	segments := []string{strings.TrimSuffix(u.Path, "/")}
	if c.version != "" {
		segments = append(segments, c.version)
	}
	segments = append(segments, strings.TrimPrefix(rel, "/"))
	u.Path = strings.Join(segments, "/")
	u.RawQuery = query
	return u.String()
}

func encodeBody(body any) (payload []byte, contentType string, err error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case Raw:
		return b.Data, b.ContentType, nil
	case []byte:
		return b, "application/octet-stream", nil
	case io.Reader:
		raw, err := io.ReadAll(b)
		if err != nil {
			return nil, "", errors.Wrap(err, "read body")
		}
		return raw, "application/octet-stream", nil
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", errors.Wrap(err, "marshal body")
		}
		return raw, "application/json", nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
