package tradingengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/internal/pkg/env"
	"golang.org/x/time/rate"
)

const (
	createAccountPath   = "/account/create"
	disableAccountsPath = "/mt5_operations/close_positions_disable_multiple_accounts"

	maxResponseBytes = 1 << 20
)

// CreateAccountRequest is the body of an account creation call.
type CreateAccountRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Group          string  `json:"group"`
	InitialBalance float64 `json:"initial_balance"`
	InitialTarget  float64 `json:"initial_target"`
	Leverage       int     `json:"leverage"`
}

// AccountCredentials is returned for a created account.
type AccountCredentials struct {
	Login            string `json:"login"`
	MainPassword     string `json:"main_password"`
	InvestorPassword string `json:"investor_password"`
}

// UnmarshalJSON accepts the login as either a JSON number or string, and
// the main password under main_password or password.
func (c *AccountCredentials) UnmarshalJSON(b []byte) error {
	var raw struct {
		Login            json.RawMessage `json:"login"`
		MainPassword     string          `json:"main_password"`
		Password         string          `json:"password"`
		InvestorPassword string          `json:"investor_password"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.MainPassword = raw.MainPassword
	if c.MainPassword == "" {
		c.MainPassword = raw.Password
	}
	c.InvestorPassword = raw.InvestorPassword
	login := strings.TrimSpace(string(raw.Login))
	if login == "null" {
		login = ""
	}
	c.Login = strings.Trim(login, `"`)
	return nil
}

// Result is the uniform outcome of every call. Transport and decoding
// failures are reported through Success=false, never as a Go error.
type Result struct {
	Success    bool
	Data       json.RawMessage
	Error      string
	StatusCode int
}

// CreateAccountResult carries decoded credentials on success.
type CreateAccountResult struct {
	Success     bool
	Credentials *AccountCredentials
	Error       string
	StatusCode  int
}

// envelope is the response body shape of the trading engine.
type envelope struct {
	StatusCode int             `json:"status_code"`
	Content    json.RawMessage `json:"content"`
	Message    string          `json:"message"`
}

type Client struct {
	BaseURL   string
	AuthToken string

	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func NewClient(baseURL, authToken string, rps float64) *Client {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		AuthToken: authToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Limiter: rate.NewLimiter(limit, burst),
	}
}

func NewClientFromEnv() *Client {
	return NewClient(
		strings.TrimSpace(env.GetEnv("MT5_API_BASE_URL", "")),
		strings.TrimSpace(env.GetEnv("MT5_AUTH_TOKEN", "")),
		env.GetEnvFloat("MT5_RATE_LIMIT_RPS", 10),
	)
}

// CreateAccount provisions an account on the remote platform.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) CreateAccountResult {
	res := c.post(ctx, createAccountPath, req)
	if !res.Success {
		return CreateAccountResult{Error: res.Error, StatusCode: res.StatusCode}
	}

	var creds AccountCredentials
	if err := json.Unmarshal(res.Data, &creds); err != nil {
		return CreateAccountResult{Error: fmt.Sprintf("malformed account payload: %v", err), StatusCode: http.StatusBadGateway}
	}
	if creds.Login == "" {
		return CreateAccountResult{Error: "account payload has no login", StatusCode: http.StatusBadGateway}
	}
	return CreateAccountResult{Success: true, Credentials: &creds, StatusCode: res.StatusCode}
}

// DisableAccounts closes open positions and disables the given logins.
func (c *Client) DisableAccounts(ctx context.Context, logins []string) Result {
	return c.post(ctx, disableAccountsPath, map[string][]string{"logins": logins})
}

func (c *Client) post(ctx context.Context, path string, body interface{}) Result {
	if c.BaseURL == "" {
		return Result{Error: "MT5_API_BASE_URL is not configured", StatusCode: http.StatusInternalServerError}
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		return Result{Error: err.Error(), StatusCode: http.StatusServiceUnavailable}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{Error: err.Error(), StatusCode: http.StatusInternalServerError}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Result{Error: err.Error(), StatusCode: http.StatusInternalServerError}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Errorf("[TradingEngine] POST %s failed: %v", path, err)
		return Result{Error: err.Error(), StatusCode: http.StatusInternalServerError}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warnf("[TradingEngine] POST %s status=%d body=%s", path, resp.StatusCode, string(raw))
		return Result{Error: fmt.Sprintf("trading engine returned status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	return decodeEnvelope(raw)
}

// decodeEnvelope maps {status_code, content|message}: status_code 200 is
// success with content as data, anything else a failure.
func decodeEnvelope(raw []byte) Result {
	var body envelope
	if err := json.Unmarshal(raw, &body); err != nil {
		return Result{Error: fmt.Sprintf("malformed response: %v", err), StatusCode: http.StatusBadGateway}
	}
	if body.StatusCode == http.StatusOK {
		return Result{Success: true, Data: body.Content, StatusCode: body.StatusCode}
	}

	code := body.StatusCode
	if code == 0 {
		code = http.StatusInternalServerError
	}
	msg := contentMessage(body.Content)
	if msg == "" {
		msg = body.Message
	}
	return Result{Error: msg, StatusCode: code}
}

func contentMessage(content json.RawMessage) string {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
