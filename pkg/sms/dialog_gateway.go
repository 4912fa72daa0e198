package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DialogGateway implements SMS sending via Dialog eSMS API
type DialogGateway struct {
	apiURL   string
	username string
	password string
	mask     string
	client   *http.Client

	tokenMutex  sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// DialogConfig holds configuration for Dialog SMS Gateway
type DialogConfig struct {
	APIURL   string
	Username string
	Password string
	Mask     string
}

// NewDialogGateway creates a new Dialog SMS Gateway client
func NewDialogGateway(config DialogConfig) *DialogGateway {
	return &DialogGateway{
		apiURL:   config.APIURL,
		username: config.Username,
		password: config.Password,
		mask:     config.Mask,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status     string `json:"status"`
	Comment    string `json:"comment"`
	Token      string `json:"token"`
	Expiration int    `json:"expiration"` // seconds
	ErrCode    string `json:"errCode"`
}

type recipient struct {
	Mobile string `json:"mobile"`
}

type sendRequest struct {
	MSISDN        []recipient `json:"msisdn"`
	Message       string      `json:"message"`
	SourceAddress string      `json:"sourceAddress,omitempty"`
	TransactionID int64       `json:"transaction_id"`
	PaymentMethod int         `json:"payment_method"` // 0 = wallet
}

type sendResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	ErrCode string `json:"errCode"`
}

// Name returns the name of this SMS gateway
func (d *DialogGateway) Name() string {
	return "Dialog API v2 Gateway"
}

// Send delivers message to one phone number
func (d *DialogGateway) Send(ctx context.Context, phone, message string) error {
	formatted, err := FormatPhoneForDialog(phone)
	if err != nil {
		return fmt.Errorf("failed to format phone number: %w", err)
	}
	return d.send(ctx, []recipient{{Mobile: formatted}}, message)
}

// SendBulk delivers message to every valid number in phones, skipping the rest
func (d *DialogGateway) SendBulk(ctx context.Context, phones []string, message string) (int, error) {
	recipients := make([]recipient, 0, len(phones))
	for _, phone := range phones {
		if formatted, err := FormatPhoneForDialog(phone); err == nil {
			recipients = append(recipients, recipient{Mobile: formatted})
		}
	}
	if len(recipients) == 0 {
		return 0, fmt.Errorf("no valid recipients after formatting")
	}
	if err := d.send(ctx, recipients, message); err != nil {
		return 0, err
	}
	return len(recipients), nil
}

func (d *DialogGateway) send(ctx context.Context, recipients []recipient, message string) error {
	if err := d.ensureValidToken(ctx); err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	var resp sendResponse
	err := d.post(ctx, "/sms", sendRequest{
		MSISDN:        recipients,
		Message:       message,
		SourceAddress: d.mask,
		TransactionID: time.Now().UnixMicro(),
	}, true, &resp)
	if err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("SMS sending failed: %s (error code: %s)", resp.Comment, resp.ErrCode)
	}
	return nil
}

// login retrieves an access token
func (d *DialogGateway) login(ctx context.Context) error {
	var resp loginResponse
	if err := d.post(ctx, "/login", loginRequest{Username: d.username, Password: d.password}, false, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("login failed: %s (error code: %s)", resp.Comment, resp.ErrCode)
	}

	d.tokenMutex.Lock()
	d.token = resp.Token
	d.tokenExpiry = time.Now().Add(time.Duration(resp.Expiration) * time.Second)
	d.tokenMutex.Unlock()
	return nil
}

// isTokenValid treats the token as expired five minutes early
func (d *DialogGateway) isTokenValid() bool {
	d.tokenMutex.RLock()
	defer d.tokenMutex.RUnlock()

	if d.token == "" {
		return false
	}
	return time.Now().Before(d.tokenExpiry.Add(-5 * time.Minute))
}

func (d *DialogGateway) ensureValidToken(ctx context.Context) error {
	if d.isTokenValid() {
		return nil
	}
	return d.login(ctx)
}

func (d *DialogGateway) post(ctx context.Context, path string, payload interface{}, authorized bool, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		d.tokenMutex.RLock()
		req.Header.Set("Authorization", "Bearer "+d.token)
		d.tokenMutex.RUnlock()
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}
