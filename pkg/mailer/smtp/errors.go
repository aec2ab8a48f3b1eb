package smtp

import "errors"

var (
	ErrMissingCredentials = errors.New("smtp: missing credentials")
	ErrUnknownAuthMethod  = errors.New("smtp: unknown auth method")
	ErrTLSRequired        = errors.New("smtp: xoauth2 requires an encrypted connection")
	ErrNoSender           = errors.New("smtp: message has no From address")
)
