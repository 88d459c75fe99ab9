package email

// Config selects and configures the sender. Tokens are optional so local
// environments run without Postmark.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"alerts@ndavault.com"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@ndavault.com"`
	DevDir               string `env:"EMAIL_DEV_DIR"`
}
