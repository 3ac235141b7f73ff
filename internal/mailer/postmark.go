package mailer

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/mrz1836/postmark"
)

const providerPostmark = "postmark"

// PostmarkSender implements Sender using Postmark's batch endpoint, one
// Postmark email per envelope, so a whole batch is one request.
type PostmarkSender struct {
	client *postmark.Client
}

// NewPostmarkSender creates a Postmark sender. Only the server token is needed for sending.
func NewPostmarkSender(serverToken string) *PostmarkSender {
	return &PostmarkSender{client: postmark.NewClient(serverToken, "")}
}

// Send implements Sender.
func (s *PostmarkSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	responses, err := s.client.SendEmailBatch(ctx, buildPostmarkBatch(msg))
	if err != nil {
		return &ProviderError{Provider: providerPostmark, Message: err.Error(), Err: err}
	}

	var failed []FieldError
	for _, resp := range responses {
		if resp.ErrorCode != 0 {
			failed = append(failed, FieldError{Field: resp.To, Message: resp.Message})
		}
	}
	if len(failed) > 0 {
		return &ProviderError{
			Provider: providerPostmark,
			Message:  "batch rejected",
			Errors:   failed,
		}
	}
	return nil
}

func buildPostmarkBatch(msg *Message) []postmark.Email {
	var attachments []postmark.Attachment
	if msg.Inline != nil {
		attachments = []postmark.Attachment{{
			Name:        msg.Inline.Filename,
			Content:     base64.StdEncoding.EncodeToString(msg.Inline.Content),
			ContentType: msg.Inline.ContentType,
			ContentID:   "cid:" + msg.Inline.ContentID,
		}}
	}

	emails := make([]postmark.Email, 0, len(msg.Envelopes))
	for _, env := range msg.Envelopes {
		emails = append(emails, postmark.Email{
			From:        msg.From.String(),
			To:          strings.Join(env.To, ","),
			Bcc:         strings.Join(env.BCC, ","),
			Subject:     msg.Subject,
			HTMLBody:    msg.HTML,
			Attachments: attachments,
		})
	}
	return emails
}
