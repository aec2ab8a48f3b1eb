package smtp

import (
	"fmt"
	netsmtp "net/smtp"

	"golang.org/x/oauth2"
)

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by Gmail and Outlook.
type xoauth2Auth struct {
	username string
	source   oauth2.TokenSource
}

func (a *xoauth2Auth) Start(server *netsmtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, ErrTLSRequired
	}
	tok, err := a.source.Token()
	if err != nil {
		return "", nil, fmt.Errorf("smtp: fetch oauth2 token: %w", err)
	}
	resp := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.username, tok.AccessToken)
	return "XOAUTH2", []byte(resp), nil
}

// Next answers the server's JSON error challenge with an empty response,
// after which the server reports the failure.
func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return []byte{}, nil
	}
	return nil, nil
}
