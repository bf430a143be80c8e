package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client sends outbound messages through the Cloud API
type Client struct {
	httpClient    *http.Client
	apiURL        string
	phoneNumberID string
	accessToken   string
}

// NewClient creates an outbound message client
func NewClient(apiURL, phoneNumberID, accessToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiURL:        apiURL,
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
	}
}

type outboundText struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText sends a text message and returns the provider message ID
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	payload := outboundText{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	payload.Text.Body = body

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if result.Error != nil {
			return "", fmt.Errorf("send failed: %s (code %d)", result.Error.Message, result.Error.Code)
		}
		return "", fmt.Errorf("send failed with status %d", resp.StatusCode)
	}

	if len(result.Messages) == 0 {
		return "", fmt.Errorf("send succeeded but no message ID returned")
	}

	log.Debug().
		Str("to", to).
		Str("message_id", result.Messages[0].ID).
		Msg("Outbound message sent")

	return result.Messages[0].ID, nil
}
