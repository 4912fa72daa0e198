package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultDialogURLBase is the eSMS URL-method endpoint
const DefaultDialogURLBase = "https://e-sms.dialog.lk/api/v1/message-via-url/create/url-campaign"

// DialogURLGateway sends SMS through Dialog's URL method, authenticated by API key
type DialogURLGateway struct {
	baseURL string
	apiKey  string
	mask    string
	client  *http.Client
}

// DialogURLConfig holds configuration for the URL-method gateway
type DialogURLConfig struct {
	BaseURL string // optional, defaults to DefaultDialogURLBase
	APIKey  string
	Mask    string
}

// NewDialogURLGateway creates a new URL-method gateway
func NewDialogURLGateway(config DialogURLConfig) *DialogURLGateway {
	base := config.BaseURL
	if base == "" {
		base = DefaultDialogURLBase
	}
	return &DialogURLGateway{
		baseURL: base,
		apiKey:  config.APIKey,
		mask:    config.Mask,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the name of this SMS gateway
func (d *DialogURLGateway) Name() string {
	return "Dialog URL Gateway"
}

// Send delivers message to one phone number. The endpoint answers with a
// plain "1" on success; anything else is an error code.
func (d *DialogURLGateway) Send(ctx context.Context, phone, message string) error {
	formatted, err := FormatPhoneForDialog(phone)
	if err != nil {
		return fmt.Errorf("failed to format phone number: %w", err)
	}

	params := url.Values{}
	params.Set("esmsqk", d.apiKey)
	params.Set("list", formatted)
	params.Set("message", message)
	if d.mask != "" {
		params.Set("source_address", d.mask)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	status := strings.TrimSpace(string(body))
	if status != "1" {
		return fmt.Errorf("SMS sending failed with code %s", status)
	}
	return nil
}
