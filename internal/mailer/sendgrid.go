package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	providerSendGrid = "sendgrid"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridSender implements Sender using the SendGrid v3 mail API.
// Every envelope becomes one personalization, so a whole batch is one request.
type SendGridSender struct {
	apiKey string
	// host overrides the API host; empty means the public SendGrid API.
	host string
}

// NewSendGridSender creates a SendGrid sender.
func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey}
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	// sendgrid.Client stores the body on itself, so each send gets its own request.
	req := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(buildSendGridMail(msg))

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return &ProviderError{Provider: providerSendGrid, Message: err.Error(), Err: err}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return parseSendGridError(resp.StatusCode, resp.Body)
	}
	return nil
}

func buildSendGridMail(msg *Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(msg.From.Name, msg.From.Email))
	m.Subject = msg.Subject
	m.AddContent(mail.NewContent("text/html", msg.HTML))

	for _, env := range msg.Envelopes {
		p := mail.NewPersonalization()
		for _, to := range env.To {
			p.AddTos(mail.NewEmail("", to))
		}
		for _, bcc := range env.BCC {
			p.AddBCCs(mail.NewEmail("", bcc))
		}
		m.AddPersonalizations(p)
	}

	if msg.Inline != nil {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(msg.Inline.Content))
		a.SetType(msg.Inline.ContentType)
		a.SetFilename(msg.Inline.Filename)
		a.SetDisposition("inline")
		a.SetContentID(msg.Inline.ContentID)
		m.AddAttachment(a)
	}

	return m
}

// sendGridErrorBody is the JSON error envelope returned by the v3 API.
type sendGridErrorBody struct {
	Errors []struct {
		Message string  `json:"message"`
		Field   *string `json:"field"`
		Help    any     `json:"help"`
	} `json:"errors"`
}

func parseSendGridError(status int, body string) *ProviderError {
	pe := &ProviderError{
		Provider:   providerSendGrid,
		StatusCode: status,
		Message:    http.StatusText(status),
	}

	var parsed sendGridErrorBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || len(parsed.Errors) == 0 {
		if body != "" {
			pe.Errors = []FieldError{{Message: body}}
		}
		return pe
	}

	for _, e := range parsed.Errors {
		fe := FieldError{Message: e.Message}
		if e.Field != nil {
			fe.Field = *e.Field
		}
		if help, ok := e.Help.(string); ok {
			fe.Help = help
		}
		pe.Errors = append(pe.Errors, fe)
	}
	return pe
}
