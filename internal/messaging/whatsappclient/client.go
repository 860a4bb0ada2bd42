package whatsappclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmoralesv/optica-crm/pkg/logging"
)

var sendTracer = otel.Tracer("optica.internal.messaging.whatsapp_send")

// Client posts messages through the WhatsApp Business Cloud API.
type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	httpClient    *http.Client
	logger        *logging.Logger
}

// New builds a Cloud API client for one business phone number.
func New(baseURL, token, phoneNumberID string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		phoneNumberID: phoneNumberID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type sendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText dispatches a single text message and returns the provider message
// id. Delivery retries are the provider's concern; one attempt only.
func (c *Client) SendText(ctx context.Context, waID, body string) (string, error) {
	if c.token == "" {
		return "", errors.New("whatsappclient: access token missing")
	}
	if strings.TrimSpace(waID) == "" {
		return "", errors.New("whatsappclient: recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return "", errors.New("whatsappclient: body required")
	}

	ctx, span := sendTracer.Start(ctx, "whatsapp.send_text")
	defer span.End()
	span.SetAttributes(attribute.String("optica.wa_id", waID))

	payload, err := json.Marshal(sendTextRequest{
		MessagingProduct: "whatsapp",
		To:               waID,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("whatsappclient: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("whatsappclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("whatsappclient: send: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var parsed sendResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := ""
		if parsed.Error != nil {
			errMsg = parsed.Error.Message
		}
		err := fmt.Errorf("whatsappclient: send failed with status %d: %s", resp.StatusCode, errMsg)
		span.RecordError(err)
		c.logger.Error("whatsapp send failed", "status", resp.StatusCode, "wa_id", waID, "provider_error", errMsg)
		return "", err
	}

	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return "", errors.New("whatsappclient: response missing message id")
	}

	c.logger.Info("whatsapp message sent", "wa_id", waID, "provider_message_id", parsed.Messages[0].ID)
	return parsed.Messages[0].ID, nil
}
