package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakePayPal struct {
	mu         sync.Mutex
	tokenCalls int
	basicUser  string
	lastOrder  map[string]any
	requestIDs []string
	captureErr bool
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokenCalls++
		f.basicUser, _, _ = r.BasicAuth()
		f.mu.Unlock()
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.lastOrder = body
		f.requestIDs = append(f.requestIDs, r.Header.Get("PayPal-Request-Id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED","links":[
			{"href":"https://api.example/self","rel":"self"},
			{"href":"https://paypal.example/checkoutnow?token=ORDER-1","rel":"approve"}]}`))
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		if f.captureErr {
			http.Error(w, `{"name":"UNPROCESSABLE_ENTITY"}`, http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"reference_id":"pro",
			"payments":{"captures":[{"status":"COMPLETED","custom_id":"4242","amount":{"currency_code":"USD","value":"20.00"}}]}}]}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakePayPal) *PayPal {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(Config{
		ClientID:  "client",
		Secret:    "secret",
		BaseURL:   srv.URL,
		ReturnURL: "https://bot.example/pay/return",
		CancelURL: "https://bot.example/pay/cancel",
	})
}

func TestCreateOrder(t *testing.T) {
	f := &fakePayPal{}
	p := newTestClient(t, f)

	o, err := p.CreateOrder(context.Background(), "Pro", 4242)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID != "ORDER-1" || !strings.Contains(o.ApproveURL, "checkoutnow") || o.Plan.Amount != "20.00" {
		t.Errorf("unexpected order: %+v", o)
	}
	if f.basicUser != "client" {
		t.Errorf("token request used basic user %q", f.basicUser)
	}

	units := f.lastOrder["purchase_units"].([]any)
	unit := units[0].(map[string]any)
	if unit["custom_id"] != "4242" || unit["reference_id"] != "pro" {
		t.Errorf("purchase unit = %v", unit)
	}
	amt := unit["amount"].(map[string]any)
	if amt["value"] != "20.00" || amt["currency_code"] != "USD" {
		t.Errorf("amount = %v", amt)
	}
	ac := f.lastOrder["application_context"].(map[string]any)
	if ac["return_url"] != "https://bot.example/pay/return" {
		t.Errorf("application_context = %v", ac)
	}

	if _, err := p.CreateOrder(context.Background(), "basic", 1); err != nil {
		t.Fatalf("second CreateOrder: %v", err)
	}
	if f.tokenCalls != 1 {
		t.Errorf("token fetched %d times, want it cached", f.tokenCalls)
	}
	if len(f.requestIDs) != 2 || f.requestIDs[0] == "" || f.requestIDs[0] == f.requestIDs[1] {
		t.Errorf("request ids should be unique: %v", f.requestIDs)
	}
}

func TestCaptureOrder(t *testing.T) {
	f := &fakePayPal{}
	p := newTestClient(t, f)

	c, err := p.CaptureOrder(context.Background(), "ORDER-1")
	if err != nil {
		t.Fatalf("CaptureOrder: %v", err)
	}
	want := Capture{OrderID: "ORDER-1", Status: "COMPLETED", Plan: "pro", Amount: "20.00", Currency: "USD", ChatID: 4242}
	if c != want {
		t.Errorf("capture = %+v, want %+v", c, want)
	}

	f.captureErr = true
	if _, err := p.CaptureOrder(context.Background(), "ORDER-1"); err == nil || !strings.Contains(err.Error(), "422") {
		t.Errorf("err = %v", err)
	}
}

func TestUnknownPlan(t *testing.T) {
	p := newTestClient(t, &fakePayPal{})
	if _, err := p.CreateOrder(context.Background(), "gold", 1); !errors.Is(err, ErrUnknownPlan) {
		t.Errorf("err = %v, want ErrUnknownPlan", err)
	}
}

func TestDisabled(t *testing.T) {
	p := New(Config{ClientID: "only-id"})
	if p.Enabled() {
		t.Fatal("client without secret should be disabled")
	}
	if _, err := p.CreateOrder(context.Background(), "pro", 1); !errors.Is(err, ErrDisabled) {
		t.Errorf("CreateOrder err = %v", err)
	}
	if _, err := p.CaptureOrder(context.Background(), "x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("CaptureOrder err = %v", err)
	}
}

func TestBaseURL(t *testing.T) {
	if BaseURL("live") != LiveURL || BaseURL("LIVE") != LiveURL {
		t.Error("live mode should use the live API")
	}
	if BaseURL("") != SandboxURL || BaseURL("sandbox") != SandboxURL {
		t.Error("default mode should be sandbox")
	}
}
