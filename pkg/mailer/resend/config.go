package resend

// Config holds Resend email provider configuration.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // overrides https://api.resend.com/, mostly for tests
}
