// Package config loads bulkmail settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/bulkmail/pkg/mailer/resend"
	"github.com/dmitrymomot/bulkmail/pkg/mailer/ses"
	"github.com/dmitrymomot/bulkmail/pkg/mailer/smtp"
	"github.com/dmitrymomot/bulkmail/pkg/storage"
)

// Transport names.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportSES    = "ses"
)

// Storage drivers.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Env       string         `yaml:"env"`
	Server    ServerConfig   `yaml:"server"`
	Log       LogConfig      `yaml:"log"`
	Sender    SenderConfig   `yaml:"sender"`
	Template  TemplateConfig `yaml:"template"`
	Pacing    PacingConfig   `yaml:"pacing"`
	Transport string         `yaml:"transport"`
	SMTP      smtp.Config    `yaml:"smtp"`
	Resend    resend.Config  `yaml:"resend"`
	SES       ses.Config     `yaml:"ses"`
	Storage   StorageConfig  `yaml:"storage"`
	Limits    LimitsConfig   `yaml:"limits"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json, text or console
	SentryDSN string `yaml:"sentry_dsn"`
}

// SenderConfig is the identity every message is sent from.
type SenderConfig struct {
	Name      string `yaml:"name"`
	Address   string `yaml:"address"`
	ReplyTo   string `yaml:"reply_to"`
	Subject   string `yaml:"subject"`   // default subject
	Signature string `yaml:"signature"` // HTML signature block
	PlainOnly bool   `yaml:"plain_only"`
}

// TemplateConfig configures placeholder substitution.
type TemplateConfig struct {
	Placeholder     string `yaml:"placeholder"`
	Fallback        string `yaml:"fallback"`
	KeepPlaceholder bool   `yaml:"keep_placeholder"`
}

// PacingConfig throttles the send loop. A negative delay disables pacing.
// In YAML and PACING_DELAY alike, "off", "none" and any zero value disable it.
type PacingConfig struct {
	Delay    time.Duration `yaml:"delay"`
	SkipLast bool          `yaml:"skip_last"`
}

// UnmarshalYAML reads delay with the same rules as PACING_DELAY, so an
// explicit zero survives the merge with Defaults.
func (p *PacingConfig) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Delay    *string `yaml:"delay"`
		SkipLast bool    `yaml:"skip_last"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	p.SkipLast = raw.SkipLast
	if raw.Delay != nil {
		d, err := parseDelay(*raw.Delay)
		if err != nil {
			return fmt.Errorf("pacing.delay: %w", err)
		}
		p.Delay = d
	}
	return nil
}

// StorageConfig selects where dispatch logs are stored.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	Dir      string         `yaml:"dir"`
	SpoolDir string         `yaml:"spool_dir"`
	S3       storage.Config `yaml:"s3"`
}

// LimitsConfig bounds request sizes.
type LimitsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	MaxRecipients  int   `yaml:"max_recipients"`
}

// Defaults returns the configuration used for every unset field.
func Defaults() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Sender: SenderConfig{
			Name:    "Argha",
			Address: "argha820@gmail.com",
			Subject: "Message from Argha",
		},
		Template:  TemplateConfig{Placeholder: "(Name)", Fallback: "Sir/Madam"},
		Pacing:    PacingConfig{Delay: 2 * time.Second},
		Transport: TransportSMTP,
		SMTP:      smtp.Config{Host: smtp.DefaultHost, Port: smtp.DefaultPort},
		Storage:   StorageConfig{Driver: StorageLocal, Dir: "logs", SpoolDir: "logs/.spool"},
		Limits:    LimitsConfig{MaxUploadBytes: 32 << 20},
	}
}

// Load reads the YAML file at path (optional), loads .env into the process
// environment without overriding existing variables, applies environment
// overrides and fills the remaining fields from Defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}
	if cfg.SMTP.Username == "" && cfg.SMTP.AuthMethod != smtp.AuthNone {
		cfg.SMTP.Username = cfg.Sender.Address
	}

	return &cfg, nil
}

// Validate checks the sections the selected transport and storage need.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if !strings.Contains(c.Sender.Address, "@") {
		errs = append(errs, fmt.Errorf("sender.address %q is not an email address", c.Sender.Address))
	}

	switch c.Transport {
	case TransportSMTP:
		if c.SMTP.Password == "" && c.SMTP.AuthMethod != smtp.AuthNone && c.SMTP.AuthMethod != smtp.AuthXOAuth2 {
			errs = append(errs, errors.New("smtp.password is required (EMAIL_PASSWORD)"))
		}
	case TransportResend:
		if c.Resend.APIKey == "" {
			errs = append(errs, errors.New("resend.api_key is required (RESEND_API_KEY)"))
		}
	case TransportSES:
		if c.SES.Region == "" || c.SES.AccessKey == "" || c.SES.SecretKey == "" {
			errs = append(errs, errors.New("ses.region, ses.access_key and ses.secret_key are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}

	switch c.Storage.Driver {
	case StorageLocal:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required"))
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides cfg with environment variables. PORT and EMAIL_PASSWORD
// keep the names the service has always used.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("APP_ENV", &cfg.Env)
	num("PORT", &cfg.Server.Port)
	str("HOST", &cfg.Server.Host)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("SENTRY_DSN", &cfg.Log.SentryDSN)

	str("SENDER_NAME", &cfg.Sender.Name)
	str("SENDER_EMAIL", &cfg.Sender.Address)
	str("REPLY_TO", &cfg.Sender.ReplyTo)
	str("MAIL_SUBJECT", &cfg.Sender.Subject)
	boolean("PLAIN_ONLY", &cfg.Sender.PlainOnly)

	str("NAME_PLACEHOLDER", &cfg.Template.Placeholder)
	str("NAME_FALLBACK", &cfg.Template.Fallback)

	if v, ok := lookup("PACING_DELAY"); ok && v != "" {
		d, err := parseDelay(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PACING_DELAY: %w", err))
		} else {
			cfg.Pacing.Delay = d
		}
	}
	boolean("PACING_SKIP_LAST", &cfg.Pacing.SkipLast)

	str("MAIL_TRANSPORT", &cfg.Transport)
	str("SMTP_HOST", &cfg.SMTP.Host)
	num("SMTP_PORT", &cfg.SMTP.Port)
	str("SMTP_USERNAME", &cfg.SMTP.Username)
	str("EMAIL_PASSWORD", &cfg.SMTP.Password)
	str("SMTP_AUTH", &cfg.SMTP.AuthMethod)
	str("SMTP_OAUTH_CLIENT_ID", &cfg.SMTP.OAuth2.ClientID)
	str("SMTP_OAUTH_CLIENT_SECRET", &cfg.SMTP.OAuth2.ClientSecret)
	str("SMTP_OAUTH_REFRESH_TOKEN", &cfg.SMTP.OAuth2.RefreshToken)

	str("RESEND_API_KEY", &cfg.Resend.APIKey)

	str("AWS_REGION", &cfg.SES.Region)
	str("AWS_ACCESS_KEY_ID", &cfg.SES.AccessKey)
	str("AWS_SECRET_ACCESS_KEY", &cfg.SES.SecretKey)

	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("LOG_DIR", &cfg.Storage.Dir)
	str("SPOOL_DIR", &cfg.Storage.SpoolDir)
	str("S3_BUCKET", &cfg.Storage.S3.Bucket)
	str("S3_ENDPOINT", &cfg.Storage.S3.Endpoint)
	str("S3_PREFIX", &cfg.Storage.S3.Prefix)
	str("AWS_REGION", &cfg.Storage.S3.Region)
	str("AWS_ACCESS_KEY_ID", &cfg.Storage.S3.AccessKey)
	str("AWS_SECRET_ACCESS_KEY", &cfg.Storage.S3.SecretKey)
	boolean("S3_PATH_STYLE", &cfg.Storage.S3.PathStyle)

	num("MAX_RECIPIENTS", &cfg.Limits.MaxRecipients)

	return errors.Join(errs...)
}

// parseDelay accepts Go durations, plain seconds and "off". Zero and negative
// values come back as -1 so they are not mistaken for "unset".
func parseDelay(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "off", "none":
		return -1, nil
	}
	d, err := time.ParseDuration(v)
	if secs, ferr := strconv.ParseFloat(v, 64); ferr == nil {
		d, err = time.Duration(secs*float64(time.Second)), nil
	}
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return -1, nil
	}
	return d, nil
}
