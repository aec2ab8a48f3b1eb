package mailer

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MessageFile is a message template loaded from disk. An optional YAML
// frontmatter block may carry the subject:
//
//	---
//	subject: Quarterly update
//	---
//	Dear (Name), ...
type MessageFile struct {
	Subject string
	Body    string
}

type frontmatter struct {
	Subject string `yaml:"subject"`
}

var fence = []byte("---")

// ParseMessageFile splits optional frontmatter from the body.
// Content without a leading fence is returned as the body unchanged.
func ParseMessageFile(content []byte) (*MessageFile, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(content, fence) {
		return &MessageFile{Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(content[len(fence):], "\r\n")
	end := bytes.Index(rest, fence)
	if end == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	var fm frontmatter
	if head := bytes.TrimSpace(rest[:end]); len(head) > 0 {
		if err := yaml.Unmarshal(head, &fm); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	body := rest[end+len(fence):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	return &MessageFile{
		Subject: strings.TrimSpace(fm.Subject),
		Body:    string(body),
	}, nil
}
