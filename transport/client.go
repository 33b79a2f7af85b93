// Package transport sends endpoint requests over HTTP and normalizes the responses.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/framework/helpers"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

type handler func(ctx context.Context, req endpoint.Request) (*http.Request, error)

// Client is an endpoint.Sender. Each supported method has a fixed handler that decides how the
// request body is encoded.
type Client struct {
	http     *http.Client
	handlers map[endpoint.Method]handler
	logger   framework.Logger
}

type clientConfig struct {
	timeout            time.Duration
	insecureSkipVerify bool
	logger             framework.Logger
	httpClient         *http.Client
}

// ClientOption is an option for NewClient.
type ClientOption helpers.ConfigOption[clientConfig]

type clientOptionFunc func(*clientConfig) error

func (f clientOptionFunc) Configure(c *clientConfig) error { return f(c) }

// WithTimeout sets the overall timeout of each request. Zero means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return clientOptionFunc(func(c *clientConfig) error {
		if timeout < 0 {
			return fmt.Errorf("negative timeout %s", timeout)
		}
		c.timeout = timeout
		return nil
	})
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return clientOptionFunc(func(c *clientConfig) error {
		c.insecureSkipVerify = skip
		return nil
	})
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger framework.Logger) ClientOption {
	return clientOptionFunc(func(c *clientConfig) error {
		c.logger = logger
		return nil
	})
}

// WithHTTPClient replaces the HTTP client. The timeout and TLS options are then ignored.
func WithHTTPClient(client *http.Client) ClientOption {
	return clientOptionFunc(func(c *clientConfig) error {
		c.httpClient = client
		return nil
	})
}

func NewClient(options ...ClientOption) (*Client, error) {
	var config clientConfig
	if err := helpers.ApplyOptions(&config, options...); err != nil {
		return nil, err
	}
	hc := config.httpClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
		hc.Timeout = config.timeout
		if config.insecureSkipVerify {
			t := hc.Transport.(*http.Transport)
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
	}
	c := &Client{http: hc, logger: framework.OrNull(config.logger)}
	c.handlers = map[endpoint.Method]handler{
		endpoint.MethodGet:    withoutBody(http.MethodGet),
		endpoint.MethodPost:   withBody(http.MethodPost),
		endpoint.MethodPut:    withBody(http.MethodPut),
		endpoint.MethodPatch:  withBody(http.MethodPatch),
		endpoint.MethodDelete: withBody(http.MethodDelete),
	}
	return c, nil
}

// Send issues the request. It never returns an error: if the request cannot be sent or no
// response arrives, the result has status endpoint.ServerErrorStatus and a TransportError.
func (c *Client) Send(ctx context.Context, req endpoint.Request) endpoint.Response {
	h, ok := c.handlers[req.Method]
	if !ok {
		return c.failure(req, endpoint.UnsupportedMethodError{Method: string(req.Method)})
	}
	hr, err := h(ctx, req)
	if err != nil {
		return c.failure(req, err)
	}
	for k, v := range req.Headers {
		hr.Header.Set(k, v)
	}
	c.logger.Printf("%s %s", req.Method, hr.URL)
	resp, err := c.http.Do(hr)
	if err != nil {
		return c.failure(req, err)
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failure(req, err)
	}
	c.logger.Printf("%s %s returned %d", req.Method, hr.URL, resp.StatusCode)
	return endpoint.Response{
		Environment:   req.Environment,
		URL:           req.URI,
		Status:        resp.StatusCode,
		Headers:       resp.Header,
		Body:          parseBody(content),
		Content:       content,
		TransactionID: resp.Header.Get(endpoint.TransactionIDHeader),
	}
}

func (c *Client) failure(req endpoint.Request, err error) endpoint.Response {
	c.logger.Printf("%s %s failed: %s", req.Method, req.URI, err)
	return endpoint.Response{
		Environment: req.Environment,
		URL:         req.URI,
		Status:      endpoint.ServerErrorStatus,
		Headers:     http.Header{},
		Body:        ldvalue.String(""),
		Error:       endpoint.TransportError{Method: req.Method, URL: req.URI, Err: err},
	}
}

func withoutBody(method string) handler {
	return func(ctx context.Context, req endpoint.Request) (*http.Request, error) {
		return newRequest(ctx, method, req, nil, "")
	}
}

func withBody(method string) handler {
	return func(ctx context.Context, req endpoint.Request) (*http.Request, error) {
		body, contentType, err := encodeBody(req)
		if err != nil {
			return nil, err
		}
		return newRequest(ctx, method, req, body, contentType)
	}
}

func newRequest(ctx context.Context, method string, req endpoint.Request, body []byte, contentType string) (*http.Request, error) {
	u, err := url.Parse(req.URI)
	if err != nil {
		return nil, err
	}
	if len(req.Params) != 0 {
		q := u.Query()
		for k, v := range QueryValues(req.Params) {
			q[k] = append(q[k], v...)
		}
		u.RawQuery = q.Encode()
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	hr, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		hr.Header.Set("Content-Type", contentType)
	}
	return hr, nil
}

// encodeBody sends JSON as application/json, a map of data fields as a form, and string data
// as-is.
func encodeBody(req endpoint.Request) ([]byte, string, error) {
	if req.JSON != nil {
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("cannot encode JSON body: %w", err)
		}
		return b, "application/json", nil
	}
	switch d := req.Data.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(d), "", nil
	case []byte:
		return d, "", nil
	case map[string]interface{}:
		return []byte(QueryValues(d).Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", fmt.Errorf("unsupported data payload of type %T", req.Data)
	}
}

// QueryValues converts decoded parameters to url.Values. A list becomes repeated values.
func QueryValues(params map[string]interface{}) url.Values {
	ret := make(url.Values, len(params))
	for k, v := range params {
		if list, ok := v.([]interface{}); ok {
			for _, item := range list {
				ret.Add(k, endpoint.FormatValue(item))
			}
			continue
		}
		ret.Set(k, endpoint.FormatValue(v))
	}
	return ret
}

func parseBody(content []byte) ldvalue.Value {
	if len(bytes.TrimSpace(content)) != 0 && json.Valid(content) {
		return ldvalue.Parse(content)
	}
	return ldvalue.String(string(content))
}
