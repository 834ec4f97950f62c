// Package appscript forwards bookings to a Google Apps Script web app, which
// records them in the business spreadsheet and sends notifications.
package appscript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trailer-booking/internal/domain"
)

// FunctionName is the script function that takes a booking
const FunctionName = "processBookingFromWebApp"

// maxResponseBytes bounds how much of a script response is read
const maxResponseBytes = 64 << 10

// Client calls the deployed web app
type Client struct {
	url        string
	httpClient *http.Client
}

type callRequest struct {
	Function   string               `json:"function"`
	Parameters []domain.BookingFields `json:"parameters"`
}

type callResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient creates a client for the web app at url. A nil httpClient uses
// http.DefaultClient.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, httpClient: httpClient}
}

func (c *Client) Name() string {
	return "appscript"
}

// IsConfigured checks if a web app URL is set
func (c *Client) IsConfigured() bool {
	return c.url != ""
}

// ProcessBooking posts the booking fields and returns the script's confirmation
func (c *Client) ProcessBooking(ctx context.Context, fields domain.BookingFields) (string, error) {
	if !c.IsConfigured() {
		return "", domain.ErrBackendUnavailable
	}

	body, err := json.Marshal(callRequest{
		Function:   FunctionName,
		Parameters: []domain.BookingFields{fields},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode booking: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build script request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errors.New("the booking service took too long to respond")
		}
		return "", fmt.Errorf("could not reach the booking service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read script response: %w", err)
	}
	return parseResponse(resp.StatusCode, raw)
}

// parseResponse accepts {"success":..,"message":..,"error":..} or plain text
func parseResponse(status int, raw []byte) (string, error) {
	text := strings.TrimSpace(string(raw))

	var parsed callResponse
	isJSON := json.Unmarshal(raw, &parsed) == nil && (parsed.Success != nil || parsed.Message != "" || parsed.Error != "")

	if status < 200 || status > 299 {
		detail := text
		if isJSON && parsed.Error != "" {
			detail = parsed.Error
		} else if isJSON && parsed.Message != "" {
			detail = parsed.Message
		}
		if detail == "" {
			detail = http.StatusText(status)
		}
		return "", fmt.Errorf("%s (status %d)", detail, status)
	}

	if !isJSON {
		return text, nil
	}
	if parsed.Success != nil && !*parsed.Success {
		detail := parsed.Error
		if detail == "" {
			detail = parsed.Message
		}
		if detail == "" {
			detail = "the booking service rejected the request"
		}
		return "", errors.New(detail)
	}
	return parsed.Message, nil
}
