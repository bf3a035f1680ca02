// Package terminal is a REST client for the trading-terminal gateway. It
// handles TOTP login, session token headers and the market data endpoints
// the rest of the system consumes: historical rates, the live quote and the
// account snapshot.
package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"goldsys/internal/model"
)

// ErrAuth is returned on login failure and on any request the gateway
// rejects with an expired or invalid session.
var ErrAuth = errors.New("terminal: authentication failed")

const defaultTimeout = 7 * time.Second

var routes = map[string]string{
	"api.login":       "/api/v1/session/login",
	"api.logout":      "/api/v1/session/logout",
	"api.rates.range": "/api/v1/rates/range",
	"api.rates.pos":   "/api/v1/rates/frompos",
	"api.tick":        "/api/v1/tick",
	"api.account":     "/api/v1/account",
}

// Config configures the gateway client.
type Config struct {
	BaseURL string        // gateway root, e.g. "http://localhost:8228"
	APIKey  string        // X-APIKey header value
	Timeout time.Duration // default 7s
	Debug   bool          // log every request and response body
}

// Client is the gateway session. Safe to use from one goroutine; the bridge
// owns a single client for its whole lifetime.
type Client struct {
	baseURL    string
	apiKey     string
	token      string
	debug      bool
	httpClient *http.Client

	// SessionExpiryHook, when set, is called once per authentication
	// rejection after login, before the error is returned.
	SessionExpiryHook func()
}

var _ model.BarSource = (*Client)(nil)

// New creates a gateway client. No network traffic until Login.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		debug:      cfg.Debug,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// apiResponse is the gateway envelope around every endpoint payload.
type apiResponse struct {
	Status    bool            `json:"status"`
	ErrorType string          `json:"error_type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// Login opens a session. code is the current TOTP value for the account.
func (c *Client) Login(ctx context.Context, account, password, server, code string) error {
	params := map[string]any{
		"account":  account,
		"password": password,
		"server":   server,
		"totp":     code,
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "api.login", params, &data); err != nil {
		return err
	}
	if data.Token == "" {
		return fmt.Errorf("%w: empty session token", ErrAuth)
	}
	c.token = data.Token
	log.Printf("[terminal] session opened for account %s", account)
	return nil
}

// Logout closes the session. Best-effort: the token is cleared regardless.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "api.logout", nil, nil)
	c.token = ""
	return err
}

// ratePoint is the gateway's candle wire format.
type ratePoint struct {
	Time       int64   `json:"time"` // bar open, Unix seconds UTC
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume float64 `json:"tick_volume"`
}

func toBars(symbol string, tf model.Timeframe, points []ratePoint) []model.Bar {
	bars := make([]model.Bar, len(points))
	for i, p := range points {
		bars[i] = model.Bar{
			Symbol: symbol,
			TF:     tf,
			TS:     time.Unix(p.Time, 0).UTC(),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.TickVolume,
		}
	}
	return bars
}

// RatesRange fetches bars for [from, to) ordered by timestamp ascending.
func (c *Client) RatesRange(ctx context.Context, symbol string, tf model.Timeframe, from, to time.Time) ([]model.Bar, error) {
	params := map[string]any{
		"symbol": symbol,
		"tf":     string(tf),
		"from":   from.Unix(),
		"to":     to.Unix(),
	}
	var points []ratePoint
	if err := c.do(ctx, http.MethodGet, "api.rates.range", params, &points); err != nil {
		return nil, err
	}
	return toBars(symbol, tf, points), nil
}

// RatesFromPos fetches the most recent count bars, ordered by timestamp
// ascending.
func (c *Client) RatesFromPos(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Bar, error) {
	params := map[string]any{
		"symbol": symbol,
		"tf":     string(tf),
		"count":  count,
	}
	var points []ratePoint
	if err := c.do(ctx, http.MethodGet, "api.rates.pos", params, &points); err != nil {
		return nil, err
	}
	return toBars(symbol, tf, points), nil
}

// SymbolTick fetches the current quote.
func (c *Client) SymbolTick(ctx context.Context, symbol string) (*model.Tick, error) {
	var data struct {
		Bid  float64 `json:"bid"`
		Ask  float64 `json:"ask"`
		Time int64   `json:"time"`
	}
	if err := c.do(ctx, http.MethodGet, "api.tick", map[string]any{"symbol": symbol}, &data); err != nil {
		return nil, err
	}
	return &model.Tick{
		Symbol: symbol,
		Bid:    data.Bid,
		Ask:    data.Ask,
		TS:     time.Unix(data.Time, 0).UTC(),
	}, nil
}

// AccountInfo fetches the account snapshot attached to live payloads.
func (c *Client) AccountInfo(ctx context.Context) (*model.Account, error) {
	var acct model.Account
	if err := c.do(ctx, http.MethodGet, "api.account", nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) requestHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	if c.apiKey != "" {
		h.Set("X-APIKey", c.apiKey)
	}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// do performs one request and decodes the envelope. out may be nil for
// endpoints whose payload is ignored.
func (c *Client) do(ctx context.Context, method, route string, params map[string]any, out any) error {
	uri, ok := routes[route]
	if !ok {
		return fmt.Errorf("terminal: unknown route %q", route)
	}
	reqURL := c.baseURL + uri

	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			q := url.Values{}
			for k, v := range params {
				q.Set(k, toString(v))
			}
			reqURL += "?" + q.Encode()
		}
	} else {
		if params == nil {
			params = map[string]any{}
		}
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("terminal: marshal params: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("terminal: build request: %w", err)
	}
	req.Header = c.requestHeaders()

	if c.debug {
		log.Printf("[terminal] %s %s", method, reqURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("terminal: %s %s: %w", method, uri, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("terminal: read response: %w", err)
	}
	if c.debug {
		log.Printf("[terminal] response %d: %s", resp.StatusCode, raw)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if c.SessionExpiryHook != nil && c.token != "" {
			c.SessionExpiryHook()
		}
		return fmt.Errorf("%w: HTTP %d", ErrAuth, resp.StatusCode)
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("terminal: parse response: %w", err)
	}
	if !env.Status {
		if env.ErrorType != "" {
			return fmt.Errorf("terminal: %s: %s", env.ErrorType, env.Message)
		}
		return fmt.Errorf("terminal: request failed: %s", env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("terminal: decode payload: %w", err)
		}
	}
	return nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
