package paddle

// Config holds Paddle Billing credentials.
type Config struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Sandbox       bool   `env:"PADDLE_SANDBOX" envDefault:"false"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}
