package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smartpro-bot/internal/payments"
	"smartpro-bot/internal/store"
)

const (
	// SecretHeader carries the webhook secret configured with setWebhook.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	// MaxBodyBytes caps a single webhook update.
	MaxBodyBytes = 1 << 20

	captureTimeout = 30 * time.Second
)

// Checkout captures approved PayPal orders.
type Checkout interface {
	Enabled() bool
	CaptureOrder(ctx context.Context, orderID string) (payments.Capture, error)
}

// Notifier tells a chat that its payment went through.
type Notifier interface {
	NotifyPayment(ctx context.Context, c payments.Capture)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentLedger persists orders.
type PaymentLedger interface {
	RecordPayment(ctx context.Context, p store.Payment) error
	GetPayment(ctx context.Context, orderID string) (*store.Payment, error)
}

type Config struct {
	WebhookPath   string
	Secret        string
	Version       string
	AllowedOrigin string
}

type Server struct {
	router     *chi.Mux
	cfg        Config
	dispatcher *Dispatcher
	checkout   Checkout
	notifier   Notifier
	ledger     PaymentLedger
	health     map[string]HealthChecker
	logger     *zap.Logger
}

type Option func(*Server)

// WithCheckout enables the PayPal return and cancel pages.
func WithCheckout(c Checkout, n Notifier) Option {
	return func(s *Server) {
		s.checkout = c
		s.notifier = n
	}
}

func WithPaymentLedger(l PaymentLedger) Option {
	return func(s *Server) { s.ledger = l }
}

// WithHealthCheck adds a named dependency to GET /health.
func WithHealthCheck(name string, h HealthChecker) Option {
	return func(s *Server) {
		if s.health == nil {
			s.health = map[string]HealthChecker{}
		}
		s.health[name] = h
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(cfg Config, dispatcher *Dispatcher, opts ...Option) *Server {
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/telegram/webhook"
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		cfg.WebhookPath = "/" + cfg.WebhookPath
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	s := &Server{
		router:     chi.NewRouter(),
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", SecretHeader},
		MaxAge:         300,
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/version", s.handleVersion)
	s.router.Get(s.cfg.WebhookPath, s.handleWebhookProbe)
	s.router.Post(s.cfg.WebhookPath, s.handleWebhook)
	if s.checkout != nil && s.checkout.Enabled() {
		s.router.Get("/pay/return", s.handlePayReturn)
		s.router.Get("/pay/cancel", s.handlePayCancel)
	}
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, h := range s.health {
		if err := h.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "down"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeText(w, http.StatusOK, s.cfg.Version)
}

func (s *Server) handleWebhookProbe(w http.ResponseWriter, r *http.Request) {
	s.writeText(w, http.StatusOK, "Webhook OK")
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.logger.Debug("webhook rejected", zap.String("remote", r.RemoteAddr))
		s.writeText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		s.logger.Warn("read webhook body failed", zap.Error(err))
		s.writeText(w, http.StatusOK, "OK")
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		// Telegram retries non-2xx answers, a broken payload would loop forever.
		s.logger.Warn("malformed webhook update", zap.Int("bytes", len(body)), zap.Error(err))
		s.writeText(w, http.StatusOK, "OK")
		return
	}

	s.writeText(w, http.StatusOK, "OK")
	s.dispatcher.Dispatch(update)
}

func (s *Server) authorized(r *http.Request) bool {
	got := r.Header.Get(SecretHeader)
	if got == "" || s.cfg.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Secret)) == 1
}

func (s *Server) handlePayReturn(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(r.URL.Query().Get("token"))
	if orderID == "" {
		s.writeText(w, http.StatusBadRequest, "Missing order token.")
		return
	}
	log := s.logger.With(zap.String("order_id", orderID))

	ctx, cancel := context.WithTimeout(r.Context(), captureTimeout)
	defer cancel()
	c, err := s.checkout.CaptureOrder(ctx, orderID)
	if err != nil {
		log.Warn("capture order failed", zap.Error(err))
		s.writeText(w, http.StatusBadGateway, "Payment could not be confirmed. Please try again later.")
		return
	}
	s.fillFromLedger(ctx, &c, log)

	if s.ledger != nil {
		p := store.Payment{
			OrderID:  c.OrderID,
			ChatID:   c.ChatID,
			Plan:     c.Plan,
			Amount:   c.Amount,
			Currency: c.Currency,
			Status:   c.Status,
		}
		if err := s.ledger.RecordPayment(ctx, p); err != nil {
			log.Warn("record captured payment failed", zap.Error(err))
		}
	}
	log.Info("payment captured", zap.String("status", c.Status), zap.String("plan", c.Plan), zap.Int64("chat_id", c.ChatID))

	if s.notifier != nil && c.Status == "COMPLETED" {
		s.notifier.NotifyPayment(ctx, c)
	}
	s.writeText(w, http.StatusOK, fmt.Sprintf("Payment %s. You can return to Telegram.", strings.ToLower(c.Status)))
}

// fillFromLedger restores chat and plan from the stored order when the
// capture response does not echo them back.
func (s *Server) fillFromLedger(ctx context.Context, c *payments.Capture, log *zap.Logger) {
	if s.ledger == nil || (c.ChatID != 0 && c.Plan != "") {
		return
	}
	stored, err := s.ledger.GetPayment(ctx, c.OrderID)
	if err != nil {
		log.Warn("lookup stored payment failed", zap.Error(err))
		return
	}
	if stored == nil {
		return
	}
	if c.ChatID == 0 {
		c.ChatID = stored.ChatID
	}
	if c.Plan == "" {
		c.Plan = stored.Plan
	}
	if c.Amount == "" {
		c.Amount = stored.Amount
		c.Currency = stored.Currency
	}
}

func (s *Server) handlePayCancel(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("payment cancelled", zap.String("order_id", r.URL.Query().Get("token")))
	s.writeText(w, http.StatusOK, "Payment cancelled. You can return to Telegram.")
}

func (s *Server) writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, msg)
}
