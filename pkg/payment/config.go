package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/perennia/storefront/config"
)

// DefaultTolerance is how old a webhook timestamp may be before it is
// rejected as a replay.
const DefaultTolerance = 5 * time.Minute

// StripeConfig configures the Stripe adapter.
type StripeConfig struct {
	// APIKey is the secret key (sk_live_… / sk_test_…).
	APIKey string
	// WebhookSecret is the endpoint signing secret (whsec_…). Empty means
	// webhooks are accepted unsigned.
	WebhookSecret string
	// APIBase defaults to https://api.stripe.com.
	APIBase string
	// Timeout bounds each API attempt.
	Timeout time.Duration
	// Retries is the total number of attempts per API call.
	Retries int
	// Tolerance bounds webhook timestamp age.
	Tolerance time.Duration
}

var (
	ErrStripeMissingAPIKey  = errors.New("stripe: missing API key")
	ErrStripeInvalidAPIBase = errors.New("stripe: API base must be an http(s) URL")
)

// StripeConfigFromEnv reads STRIPE_* settings.
func StripeConfigFromEnv() StripeConfig {
	return StripeConfig{
		APIKey:        config.StripeAPIKey(),
		WebhookSecret: config.StripeWebhookSecret(),
		APIBase:       config.StripeAPIBase(),
	}
}

// Validate fills defaults and checks required fields.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrStripeMissingAPIKey
	}
	if c.APIBase == "" {
		c.APIBase = "https://api.stripe.com"
	}
	c.APIBase = strings.TrimRight(c.APIBase, "/")
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return ErrStripeInvalidAPIBase
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	return nil
}
