package mail

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
)

const (
	sendEmailPath = "/api/v1/send-email"

	EmailTypeChallengeCredentials = "CHALLENGE_CREDENTIALS"
)

// ChallengeCredentials is the template data of a CHALLENGE_CREDENTIALS email.
type ChallengeCredentials struct {
	FirstName        string `json:"first_name"`
	AccountType      string `json:"account_type"`
	AccountBalance   string `json:"account_balance"`
	AccountStages    string `json:"account_stages"`
	AccountNumber    string `json:"account_number"`
	AccountPassword  string `json:"account_password"`
	InvestorPassword string `json:"investor_password"`
}

type sendRequest struct {
	Email     string      `json:"email"`
	EmailType string      `json:"email_type"`
	Data      interface{} `json:"data"`
}

// APIMailer sends templated emails through the email API service.
type APIMailer struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewAPIMailer(baseURL string) *APIMailer {
	return &APIMailer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func NewAPIMailerFromEnv() *APIMailer {
	return NewAPIMailer(strings.TrimSpace(env.GetEnv("EMAIL_API_URL", "")))
}

// SendChallengeCredentials mails the login details of a new account.
func (m *APIMailer) SendChallengeCredentials(ctx context.Context, to string, data ChallengeCredentials) error {
	return m.send(ctx, sendRequest{
		Email:     to,
		EmailType: EmailTypeChallengeCredentials,
		Data:      data,
	})
}

func (m *APIMailer) send(ctx context.Context, body sendRequest) error {
	if m.BaseURL == "" {
		return fmt.Errorf("EMAIL_API_URL is not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+sendEmailPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email api returned status=%d body=%s", resp.StatusCode, string(raw))
	}

	log.Infof("[Mail] %s sent to %s", body.EmailType, body.Email)
	return nil
}
