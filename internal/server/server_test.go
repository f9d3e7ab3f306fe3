package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smartpro-bot/internal/payments"
	"smartpro-bot/internal/store"
	"smartpro-bot/internal/types"
)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
	done   chan struct{}
	block  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 16)} }

func (r *recorder) Handle(ctx context.Context, ev types.Event) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

const textUpdate = `{"update_id":1,"message":{"message_id":5,"chat":{"id":42,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":"A"},"date":1,"text":"привет"}}`

func newTestServer(h Handler, opts ...Option) *Server {
	d := NewDispatcher(h)
	return NewServer(Config{WebhookPath: "/hook", Secret: "s3cret", Version: "1.2.3"}, d, opts...)
}

func post(t *testing.T, srv *Server, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	h := newRecorder()
	srv := newTestServer(h)

	for _, secret := range []string{"", "wrong"} {
		rec := post(t, srv, secret, textUpdate)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("secret %q: status = %d, want 401", secret, rec.Code)
		}
		if rec.Body.String() != "Unauthorized" {
			t.Errorf("body = %q", rec.Body.String())
		}
	}
	if err := srv.dispatcher.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.count() != 0 {
		t.Errorf("rejected updates were dispatched")
	}
}

func TestWebhookAcknowledgesBeforeHandling(t *testing.T) {
	h := newRecorder()
	h.block = make(chan struct{})
	srv := newTestServer(h)

	rec := post(t, srv, "s3cret", textUpdate)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if h.count() != 0 {
		t.Fatal("handler ran before the acknowledgement")
	}

	close(h.block)
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("update was never handled")
	}
	msg, ok := h.events[0].(types.TextMessage)
	if !ok || msg.ChatID != 42 || msg.Text != "привет" {
		t.Errorf("event = %#v", h.events[0])
	}
}

func TestWebhookMalformedJSON(t *testing.T) {
	h := newRecorder()
	srv := newTestServer(h)

	rec := post(t, srv, "s3cret", "{not json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	_ = srv.dispatcher.Shutdown(context.Background())
	if h.count() != 0 {
		t.Error("malformed update dispatched")
	}
}

func TestWebhookProbeAndVersion(t *testing.T) {
	srv := newTestServer(newRecorder())
	tests := []struct {
		path string
		want string
	}{
		{"/hook", "Webhook OK"},
		{"/version", "1.2.3"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tt.path, rec.Code)
		}
		body, _ := io.ReadAll(rec.Body)
		if string(body) != tt.want {
			t.Errorf("%s: body = %q, want %q", tt.path, body, tt.want)
		}
	}
}

type fakeCheckout struct {
	capture payments.Capture
	err     error
}

func (f *fakeCheckout) Enabled() bool { return true }

func (f *fakeCheckout) CaptureOrder(_ context.Context, orderID string) (payments.Capture, error) {
	if f.err != nil {
		return payments.Capture{}, f.err
	}
	c := f.capture
	c.OrderID = orderID
	return c, nil
}

type fakeNotifier struct{ got []payments.Capture }

func (n *fakeNotifier) NotifyPayment(_ context.Context, c payments.Capture) { n.got = append(n.got, c) }

type fakePaymentLedger struct {
	stored   map[string]store.Payment
	recorded []store.Payment
}

func (l *fakePaymentLedger) RecordPayment(_ context.Context, p store.Payment) error {
	l.recorded = append(l.recorded, p)
	return nil
}

func (l *fakePaymentLedger) GetPayment(_ context.Context, id string) (*store.Payment, error) {
	p, ok := l.stored[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func TestPayReturnCapturesAndNotifies(t *testing.T) {
	co := &fakeCheckout{capture: payments.Capture{Status: "COMPLETED", Amount: "20.00", Currency: "USD"}}
	n := &fakeNotifier{}
	l := &fakePaymentLedger{stored: map[string]store.Payment{"O-9": {OrderID: "O-9", ChatID: 42, Plan: "pro"}}}
	srv := newTestServer(newRecorder(), WithCheckout(co, n), WithPaymentLedger(l))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pay/return?token=O-9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
	if len(n.got) != 1 || n.got[0].ChatID != 42 || n.got[0].Plan != "pro" {
		t.Fatalf("notifications = %#v", n.got)
	}
	if len(l.recorded) != 1 || l.recorded[0].Status != "COMPLETED" || l.recorded[0].ChatID != 42 {
		t.Errorf("recorded = %#v", l.recorded)
	}
}

func TestPayReturnErrors(t *testing.T) {
	n := &fakeNotifier{}
	srv := newTestServer(newRecorder(), WithCheckout(&fakeCheckout{err: errors.New("boom")}, n))

	tests := []struct {
		path string
		code int
	}{
		{"/pay/return", http.StatusBadRequest},
		{"/pay/return?token=O-1", http.StatusBadGateway},
		{"/pay/cancel?token=O-1", http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.code)
		}
	}
	if len(n.got) != 0 {
		t.Error("failed capture notified the chat")
	}
}

func TestPayRoutesAbsentWithoutCheckout(t *testing.T) {
	srv := newTestServer(newRecorder())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pay/return?token=x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"up", nil, http.StatusOK, `"db":"ok"`},
		{"down", errors.New("refused"), http.StatusServiceUnavailable, `"db":"down"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := healthFunc(func(context.Context) error { return tt.err })
			srv := newTestServer(newRecorder(), WithHealthCheck("db", check))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}
