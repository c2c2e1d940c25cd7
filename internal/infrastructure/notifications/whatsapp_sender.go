package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/zatekoja/ipd-admission-engine/backend/pkg/config"
)

// WhatsAppCloudSender sends messages via WhatsApp Cloud API. Calls go
// through a circuit breaker so a flapping provider fails fast instead of
// holding up allocation side effects.
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	baseURL       string
	breaker       *gobreaker.CircuitBreaker
}

// NewWhatsAppCloudSender creates a new WhatsApp sender
func NewWhatsAppCloudSender(cfg *config.NotificationsConfig) (*WhatsAppCloudSender, error) {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp-cloud",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &WhatsAppCloudSender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		breaker: breaker,
	}, nil
}

// WhatsAppTextMessage represents a text message
type WhatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// WhatsAppResponse represents the API response
type WhatsAppResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a text message and returns the provider message id
func (w *WhatsAppCloudSender) SendText(ctx context.Context, to, body string) (string, error) {
	message := WhatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	message.Text.PreviewURL = false
	message.Text.Body = body

	return w.sendMessage(ctx, message)
}

// sendMessage sends a message to WhatsApp Cloud API through the breaker
func (w *WhatsAppCloudSender) sendMessage(ctx context.Context, message interface{}) (string, error) {
	result, err := w.breaker.Execute(func() (interface{}, error) {
		return w.doSend(ctx, message)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (w *WhatsAppCloudSender) doSend(ctx context.Context, message interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)

	jsonData, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, string(body))
	}

	var whatsappResp WhatsAppResponse
	if err := json.Unmarshal(body, &whatsappResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(whatsappResp.Messages) > 0 {
		return whatsappResp.Messages[0].ID, nil
	}

	return "", fmt.Errorf("no message ID in response")
}
