package stripe

import (
	"strconv"

	stripe "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Client wraps the Stripe SDK for webhook-driven billing. Checkout and
// portal flows live on the billing provider's side; this service only
// consumes payment outcomes.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// Configured reports whether webhook verification is possible.
func (c *Client) Configured() bool {
	return c.cfg.WebhookSecret != ""
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}

// MonthsFromInvoice reads the billing period from the invoice metadata
// key "months", defaulting to one month.
func MonthsFromInvoice(inv *stripe.Invoice) int {
	if inv == nil || inv.Metadata == nil {
		return 1
	}
	if v, ok := inv.Metadata["months"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
			return n
		}
	}
	return 1
}
