package mailer

import (
	"context"

	"github.com/resend/resend-go/v3"
)

const providerResend = "resend"

// ResendSender implements Sender using the Resend API.
// Resend has no per-recipient envelopes, so all envelopes of a message are
// merged into a single request.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender creates a Resend sender.
func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if _, err := s.client.Emails.SendWithContext(ctx, buildResendRequest(msg)); err != nil {
		return &ProviderError{Provider: providerResend, Message: err.Error(), Err: err}
	}
	return nil
}

func buildResendRequest(msg *Message) *resend.SendEmailRequest {
	var to, bcc []string
	seen := make(map[string]struct{})
	for _, env := range msg.Envelopes {
		for _, addr := range env.To {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			to = append(to, addr)
		}
		bcc = append(bcc, env.BCC...)
	}

	req := &resend.SendEmailRequest{
		From:    msg.From.String(),
		To:      to,
		Bcc:     bcc,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	if msg.Inline != nil {
		req.Attachments = []*resend.Attachment{{
			Filename:    msg.Inline.Filename,
			Content:     msg.Inline.Content,
			ContentType: msg.Inline.ContentType,
			ContentId:   msg.Inline.ContentID,
		}}
	}

	return req
}
