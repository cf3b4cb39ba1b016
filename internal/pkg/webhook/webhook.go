package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/internal/pkg/env"
)

const EventChallengeFailed = "challengeFailed"

// Event is the JSON body posted to the webhook receiver.
type Event struct {
	Event    string `json:"event"`
	Login    string `json:"login"`
	IsFunded bool   `json:"isFunded"`
	Reason   string `json:"reason"`
}

type Sender struct {
	URL           string
	EncryptionKey string
	HTTPClient    *http.Client
}

func NewSender(url, encryptionKey string) *Sender {
	return &Sender{
		URL:           strings.TrimSpace(url),
		EncryptionKey: strings.TrimSpace(encryptionKey),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func NewSenderFromEnv() *Sender {
	return NewSender(env.GetEnv("WEBHOOK_URL", ""), env.GetEnv("WEBHOOK_ENCRYPTION_KEY", ""))
}

// Send posts the event and reports whether the receiver accepted it. Failures
// are logged and never returned.
func (s *Sender) Send(ctx context.Context, event, login string, isFunded bool, reason string) bool {
	if s.URL == "" {
		log.Error("[Webhook] WEBHOOK_URL is not set")
		return false
	}
	if s.EncryptionKey == "" {
		log.Error("[Webhook] WEBHOOK_ENCRYPTION_KEY is not set")
		return false
	}

	signature, err := SignLogin(login, s.EncryptionKey)
	if err != nil {
		log.Errorf("[Webhook] failed to sign login %s: %v", login, err)
		return false
	}

	payload, err := json.Marshal(Event{Event: event, Login: login, IsFunded: isFunded, Reason: reason})
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		log.Errorf("[Webhook] build request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signature)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		log.Errorf("[Webhook] %s for %s failed: %v", event, login, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("[Webhook] %s for %s rejected: status=%d", event, login, resp.StatusCode)
		return false
	}
	log.Infof("[Webhook] %s sent for %s (status %d)", event, login, resp.StatusCode)
	return true
}
