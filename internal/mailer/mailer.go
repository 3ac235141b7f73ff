// Package mailer sends prepared HTML messages through a transactional email
// provider. Each call to Sender.Send is exactly one provider API call.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vhvplatform/go-campaign-service/internal/shared/config"
)

var (
	// ErrNoSender indicates the sender identity is missing.
	ErrNoSender = errors.New("email must have a sender address")

	// ErrNoRecipient indicates no envelope carries a recipient.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("email must have a subject")

	// ErrNoContent indicates no HTML content was provided.
	ErrNoContent = errors.New("email must have HTML content")
)

// Sender performs one outbound send per call.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Address is an email address with an optional display name.
type Address struct {
	Email string
	Name  string
}

// String formats the address as "Name <email>" or just the email.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Envelope is one delivery inside a message: visible recipients plus blind copies.
type Envelope struct {
	To  []string
	BCC []string
}

// InlineImage is an attachment referenced from the HTML body by content-id.
type InlineImage struct {
	Filename    string
	ContentType string
	ContentID   string
	Content     []byte
}

// Message is a fully prepared email.
type Message struct {
	From      Address
	Subject   string
	HTML      string
	Envelopes []Envelope
	Inline    *InlineImage
}

// Validate checks the message has everything a provider requires.
func (m *Message) Validate() error {
	if m.From.Email == "" {
		return ErrNoSender
	}
	if m.Subject == "" {
		return ErrNoSubject
	}
	if m.HTML == "" {
		return ErrNoContent
	}
	if m.RecipientCount() == 0 {
		return ErrNoRecipient
	}
	return nil
}

// RecipientCount counts every address across all envelopes.
func (m *Message) RecipientCount() int {
	n := 0
	for _, e := range m.Envelopes {
		n += len(e.To) + len(e.BCC)
	}
	return n
}

// FieldError is a single problem reported by a provider.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Help    string `json:"help,omitempty"`
}

// ProviderError carries the provider's own description of a failed send.
type ProviderError struct {
	Provider   string       `json:"provider"`
	StatusCode int          `json:"statusCode,omitempty"`
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors,omitempty"`
	Err        error        `json:"-"`
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, fe := range e.Errors {
		b.WriteString("; ")
		if fe.Field != "" {
			b.WriteString(fe.Field)
			b.WriteString(": ")
		}
		b.WriteString(fe.Message)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// New builds the Sender for the configured provider.
func New(cfg config.MailConfig) (Sender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer: missing credential for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderSendGrid:
		return NewSendGridSender(cfg.APIKey), nil
	case config.ProviderPostmark:
		return NewPostmarkSender(cfg.APIKey), nil
	case config.ProviderResend:
		return NewResendSender(cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("mailer: unsupported provider %q", cfg.Provider)
	}
}
