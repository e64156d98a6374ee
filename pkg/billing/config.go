package billing

// Config holds billing provider configuration. An empty APIKey disables
// billing entirely; the HTTP surface then reports not_configured instead of
// failing.
type Config struct {
	APIKey      string `env:"PADDLE_API_KEY"`
	PriceID     string `env:"PADDLE_PRICE_ID"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	SuccessURL  string `env:"BILLING_SUCCESS_URL"`
}

// Enabled reports whether a billing provider can be constructed from the
// configuration.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}
