// Package payments creates and captures PayPal checkout orders for the paid
// plans.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrDisabled    = errors.New("payments: paypal is not configured")
	ErrUnknownPlan = errors.New("payments: unknown plan")
)

const (
	SandboxURL = "https://api-m.sandbox.paypal.com"
	LiveURL    = "https://api-m.paypal.com"
	currency   = "USD"
)

// Plan is a paid tariff.
type Plan struct {
	Name   string
	Amount string
}

var Plans = []Plan{
	{Name: "basic", Amount: "10.00"},
	{Name: "pro", Amount: "20.00"},
	{Name: "max", Amount: "50.00"},
}

func LookupPlan(name string) (Plan, bool) {
	for _, p := range Plans {
		if p.Name == strings.ToLower(strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Plan{}, false
}

// BaseURL returns the API root for mode ("live" or anything else for sandbox).
func BaseURL(mode string) string {
	if strings.EqualFold(mode, "live") {
		return LiveURL
	}
	return SandboxURL
}

// Order is a created checkout order awaiting approval.
type Order struct {
	ID         string
	Status     string
	ApproveURL string
	Plan       Plan
}

// Capture is the outcome of capturing an approved order.
type Capture struct {
	OrderID  string
	Status   string
	Plan     string
	Amount   string
	Currency string
	ChatID   int64
}

type Config struct {
	ClientID  string
	Secret    string
	BaseURL   string
	ReturnURL string
	CancelURL string
	// HTTPClient is the transport under the oauth2 client. Optional.
	HTTPClient *http.Client
}

// PayPal is a minimal Orders v2 client authenticated with client credentials.
type PayPal struct {
	cfg    Config
	client *http.Client
}

// New returns nil when credentials are missing. A nil *PayPal is a valid,
// disabled client.
func New(cfg Config) *PayPal {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 20 * time.Second}
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.Secret,
		TokenURL:     cfg.BaseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = base.Timeout
	return &PayPal{cfg: cfg, client: client}
}

func (p *PayPal) Enabled() bool { return p != nil }

// ---- Helpers ----

func (p *PayPal) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PayPal-Request-Id", uuid.NewString())

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("paypal api %s failed: %d %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      amount `json:"amount"`
}

type createOrderRequest struct {
	Intent             string         `json:"intent"`
	PurchaseUnits      []purchaseUnit `json:"purchase_units"`
	ApplicationContext struct {
		ReturnURL  string `json:"return_url,omitempty"`
		CancelURL  string `json:"cancel_url,omitempty"`
		UserAction string `json:"user_action,omitempty"`
	} `json:"application_context"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []link `json:"links"`
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []struct {
				Status   string `json:"status"`
				CustomID string `json:"custom_id"`
				Amount   amount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// ---- Implementations ----

// CreateOrder opens a checkout order for plan on behalf of chatID.
func (p *PayPal) CreateOrder(ctx context.Context, planName string, chatID int64) (Order, error) {
	if !p.Enabled() {
		return Order{}, ErrDisabled
	}
	plan, ok := LookupPlan(planName)
	if !ok {
		return Order{}, fmt.Errorf("%w: %q", ErrUnknownPlan, planName)
	}

	var in createOrderRequest
	in.Intent = "CAPTURE"
	in.PurchaseUnits = []purchaseUnit{{
		ReferenceID: plan.Name,
		CustomID:    strconv.FormatInt(chatID, 10),
		Description: "SmartPro " + plan.Name,
		Amount:      amount{CurrencyCode: currency, Value: plan.Amount},
	}}
	in.ApplicationContext.ReturnURL = p.cfg.ReturnURL
	in.ApplicationContext.CancelURL = p.cfg.CancelURL
	in.ApplicationContext.UserAction = "PAY_NOW"

	var out orderResponse
	if err := p.postJSON(ctx, "/v2/checkout/orders", in, &out); err != nil {
		return Order{}, err
	}
	order := Order{ID: out.ID, Status: out.Status, Plan: plan}
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			order.ApproveURL = l.Href
			break
		}
	}
	if order.ID == "" || order.ApproveURL == "" {
		return Order{}, fmt.Errorf("paypal order response is missing id or approval link")
	}
	return order, nil
}

// CaptureOrder captures an approved order.
func (p *PayPal) CaptureOrder(ctx context.Context, orderID string) (Capture, error) {
	if !p.Enabled() {
		return Capture{}, ErrDisabled
	}
	if strings.TrimSpace(orderID) == "" {
		return Capture{}, fmt.Errorf("order id is required")
	}

	var out captureResponse
	if err := p.postJSON(ctx, "/v2/checkout/orders/"+orderID+"/capture", nil, &out); err != nil {
		return Capture{}, err
	}
	c := Capture{OrderID: out.ID, Status: out.Status}
	if c.OrderID == "" {
		c.OrderID = orderID
	}
	for _, pu := range out.PurchaseUnits {
		c.Plan = pu.ReferenceID
		for _, cp := range pu.Payments.Captures {
			c.Amount = cp.Amount.Value
			c.Currency = cp.Amount.CurrencyCode
			if id, err := strconv.ParseInt(cp.CustomID, 10, 64); err == nil {
				c.ChatID = id
			}
		}
	}
	return c, nil
}
