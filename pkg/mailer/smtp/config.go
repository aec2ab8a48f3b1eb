package smtp

// Auth methods.
const (
	AuthPlain   = "plain"
	AuthXOAuth2 = "xoauth2"
	AuthNone    = "none"
)

// Defaults match a Gmail account with an app password.
const (
	DefaultHost          = "smtp.gmail.com"
	DefaultPort          = 587
	DefaultOAuthTokenURL = "https://oauth2.googleapis.com/token"
	implicitTLSPort      = 465
)

// Config holds SMTP transport configuration.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// AuthMethod is one of AuthPlain, AuthXOAuth2 or AuthNone.
	// Empty selects AuthPlain when Username is set and AuthNone otherwise.
	AuthMethod string       `yaml:"auth"`
	OAuth2     OAuth2Config `yaml:"oauth2"`

	// SSL enables implicit TLS. It is forced on for port 465; other ports use STARTTLS when offered.
	SSL                bool `yaml:"ssl"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// OAuth2Config configures XOAUTH2. Either AccessToken or the refresh flow
// (ClientID, ClientSecret, RefreshToken) must be set.
type OAuth2Config struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	AccessToken  string `yaml:"access_token"`
	TokenURL     string `yaml:"token_url"`
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port == implicitTLSPort {
		c.SSL = true
	}
	if c.AuthMethod == "" {
		c.AuthMethod = AuthNone
		if c.Username != "" {
			c.AuthMethod = AuthPlain
		}
	}
	if c.OAuth2.TokenURL == "" {
		c.OAuth2.TokenURL = DefaultOAuthTokenURL
	}
}

func (c *Config) validate() error {
	switch c.AuthMethod {
	case AuthNone:
	case AuthPlain:
		if c.Username == "" || c.Password == "" {
			return ErrMissingCredentials
		}
	case AuthXOAuth2:
		if c.Username == "" {
			return ErrMissingCredentials
		}
		o := c.OAuth2
		if o.AccessToken == "" && (o.ClientID == "" || o.RefreshToken == "") {
			return ErrMissingCredentials
		}
	default:
		return ErrUnknownAuthMethod
	}
	return nil
}
