package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	cases := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{
			"all placeholders",
			"Hi {name}, see you on {date} at {time}.",
			map[string]string{"name": "Maria", "date": "2026-09-14", "time": "15:30"},
			"Hi Maria, see you on 2026-09-14 at 15:30.",
		},
		{
			"unmatched placeholder kept",
			"Hi {name}, your code is {code}.",
			map[string]string{"name": "Maria"},
			"Hi Maria, your code is {code}.",
		},
		{
			"no placeholders",
			"Plain text.",
			map[string]string{"name": "unused"},
			"Plain text.",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.template, tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name    string
		phone   string
		cc      string
		want    string
		wantErr bool
	}{
		{"formatted local gets country code", "(11) 99999-0000", "55", "5511999990000", false},
		{"already prefixed not doubled", "5511999990000", "55", "5511999990000", false},
		{"plus keeps own country code", "+351 912 345 678", "55", "351912345678", false},
		{"no default country code", "11999990000", "", "11999990000", false},
		{"too short", "1234567", "55", "", true},
		{"letters only", "not-a-phone", "55", "", true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.phone, tt.cc)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSend(t *testing.T) {
	var gotKey string
	var gotBody sendRequest
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{GatewayURL: srv.URL, APIKey: "secret", DefaultCountryCode: "55"})
	err := client.Send(context.Background(), "(11) 99999-0000", "Hi {name}", map[string]string{"name": "Maria"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected one gateway call, got %d", calls)
	}
	if gotKey != "secret" {
		t.Errorf("expected x-api-key header, got %q", gotKey)
	}
	if gotBody.Phone != "5511999990000" {
		t.Errorf("expected normalized phone, got %q", gotBody.Phone)
	}
	if gotBody.Message != "Hi Maria" {
		t.Errorf("expected rendered message, got %q", gotBody.Message)
	}
}

func TestSend_GatewayFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{GatewayURL: srv.URL, DefaultCountryCode: "55"})
	err := client.Send(context.Background(), "11999990000", "hello", nil)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	// No retry on failure.
	if calls != 1 {
		t.Errorf("expected one attempt, got %d", calls)
	}
}

func TestSend_NotConfigured(t *testing.T) {
	client := NewClient(Config{})
	err := client.Send(context.Background(), "11999990000", "hello", nil)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream when gateway unconfigured, got %v", err)
	}
}

func TestSend_BadPhoneSkipsGateway(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(Config{GatewayURL: srv.URL, DefaultCountryCode: "55"})
	if err := client.Send(context.Background(), "123", "hello", nil); err == nil {
		t.Fatal("expected error for invalid phone")
	}
	if calls != 0 {
		t.Errorf("gateway must not be called for an invalid phone, got %d calls", calls)
	}
}
