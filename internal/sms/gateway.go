// Package sms talks to the SMS gateway (Twilio's message API). When no
// credentials are configured it degrades to a mock that logs the message,
// so development environments never hit the network.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parentpal_backend/internal/logger"

	"github.com/google/uuid"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// MaxMessageLength is the gateway's single-segment limit.
const MaxMessageLength = 160

// Result reports the outcome of a send attempt.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Gateway interface {
	// Send delivers messageText to the given phone number. A failed delivery
	// is reported in the Result, not as an error; err is reserved for
	// transport-level problems.
	Send(ctx context.Context, toPhoneNumber, messageText string) (*Result, error)
	// Configured reports whether real credentials are present.
	Configured() bool
}

type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// BaseURL overrides the Twilio API base, for tests.
	BaseURL string
}

type TwilioGateway struct {
	config Config
	http   *http.Client
}

func NewTwilioGateway(config Config) *TwilioGateway {
	if config.BaseURL == "" {
		config.BaseURL = twilioAPIBase
	}
	return &TwilioGateway{
		config: config,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *TwilioGateway) Configured() bool {
	return g.config.AccountSID != "" && g.config.AuthToken != ""
}

func (g *TwilioGateway) Send(ctx context.Context, toPhoneNumber, messageText string) (*Result, error) {
	if !g.Configured() {
		// Mock mode: log and fabricate an ID
		logger.Info("SMS (mock) would be sent", "to", toPhoneNumber, "message", messageText)
		return &Result{Success: true, MessageID: "mock_" + uuid.NewString()}, nil
	}

	form := url.Values{}
	form.Set("To", toPhoneNumber)
	form.Set("From", g.config.FromNumber)
	form.Set("Body", messageText)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", g.config.BaseURL, g.config.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.config.AccountSID, g.config.AuthToken)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var payload struct {
		SID     string `json:"sid"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("parsing response JSON: %w", err)
	}

	if resp.StatusCode >= 300 {
		errMsg := payload.Message
		if errMsg == "" {
			errMsg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return &Result{Success: false, Error: errMsg}, nil
	}

	return &Result{Success: true, MessageID: payload.SID}, nil
}
