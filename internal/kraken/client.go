package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"signalbot-go/internal/metrics"
)

// DefaultBaseURL targets the production Kraken Futures REST API.
const DefaultBaseURL = "https://futures.kraken.com"

const userAgent = "signalbot-go/1.0"

// Client issues signed requests against the Kraken Futures REST API. GET
// parameters go on the query string, POST parameters form-encoded in the
// body; the signed bytes and the transmitted bytes are always identical.
type Client struct {
	baseURL string
	signer  *Signer
	http    *http.Client
	log     zerolog.Logger
	limiter *rate.Limiter
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithBaseURL points the client at a non-production host (demo env, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient overrides the default HTTP transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRateLimit caps outbound request rate. Zero disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewClient builds a client around a configured signer.
func NewClient(signer *Signer, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		signer:  signer,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common application-level wrapper on futures responses.
type envelope struct {
	Result string   `json:"result"`
	Error  string   `json:"error"`
	Errors []string `json:"errors"`
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, params)
}

func (c *Client) post(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, endpoint, params)
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	nonce := c.signer.Nonce()
	reqURL := c.baseURL + endpoint
	postData := ""
	var body io.Reader
	if method == http.MethodPost {
		postData = params.Encode()
		body = strings.NewReader(postData)
	} else if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("APIKey", c.signer.APIKey())
	req.Header.Set("Nonce", nonce)
	req.Header.Set("Authent", c.signer.Sign(endpoint, nonce, postData))
	req.Header.Set("User-Agent", userAgent)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	metrics.KrakenRequestsTotal.WithLabelValues(endpoint, method).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Errors: []string{http.StatusText(resp.StatusCode)}}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Result == "error" || len(env.Errors) > 0 || env.Error != "" {
		apiErr := &APIError{Endpoint: endpoint, Status: resp.StatusCode, Errors: env.Errors}
		if env.Error != "" {
			apiErr.Errors = append(apiErr.Errors, env.Error)
		}
		if len(apiErr.Errors) == 0 {
			apiErr.Errors = []string{http.StatusText(resp.StatusCode)}
		}
		c.log.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Strs("errors", apiErr.Errors).Msg("kraken request rejected")
		return nil, apiErr
	}

	c.log.Debug().Str("method", method).Str("endpoint", endpoint).Msg("kraken request ok")
	return raw, nil
}
