// Package whatsapp sends templated messages through an HTTP messaging
// gateway. Sends are not retried: a duplicate reminder is worse than a missed
// one, and the caller surfaces the failure instead.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// ErrUpstream wraps gateway failures so handlers can map them to 502.
var ErrUpstream = errors.New("whatsapp gateway error")

// Config configures the gateway client.
type Config struct {
	GatewayURL string
	APIKey     string
	// DefaultCountryCode is prepended to numbers that carry no country
	// prefix, e.g. "55".
	DefaultCountryCode string
}

// Client posts messages to the gateway with a bounded timeout.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send renders the template with the given data and posts it to the gateway.
// Placeholders use {name} syntax; unmatched placeholders are left intact so a
// broken template is visible in the delivered text rather than silently
// blank.
func (c *Client) Send(ctx context.Context, phone, template string, data map[string]string) error {
	if c.cfg.GatewayURL == "" {
		return fmt.Errorf("%w: gateway not configured", ErrUpstream)
	}

	normalized, err := NormalizePhone(phone, c.cfg.DefaultCountryCode)
	if err != nil {
		return fmt.Errorf("normalize phone: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		Phone:   normalized,
		Message: RenderTemplate(template, data),
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: gateway returned status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

// RenderTemplate substitutes {placeholder} tokens with values from data.
func RenderTemplate(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// NormalizePhone strips formatting characters and ensures a country code
// prefix. Numbers already starting with "+" keep their own country code.
func NormalizePhone(phone, defaultCountryCode string) (string, error) {
	hasPlus := strings.HasPrefix(strings.TrimSpace(phone), "+")

	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	if len(number) < 8 {
		return "", fmt.Errorf("phone number %q too short", phone)
	}

	if hasPlus {
		return number, nil
	}
	if defaultCountryCode != "" && !strings.HasPrefix(number, defaultCountryCode) {
		number = defaultCountryCode + number
	}
	return number, nil
}
