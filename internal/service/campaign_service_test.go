package service

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhvplatform/go-campaign-service/internal/domain"
	"github.com/vhvplatform/go-campaign-service/internal/emailtemplate"
	"github.com/vhvplatform/go-campaign-service/internal/events"
	"github.com/vhvplatform/go-campaign-service/internal/mailer"
	"github.com/vhvplatform/go-campaign-service/internal/shared/errors"
	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
)

var testFrom = mailer.Address{Email: "events@example.com", Name: "Events Team"}

type fakeDirectory struct {
	records []RecipientRecord
	err     error
	filters []RecipientFilter
}

func (d *fakeDirectory) FindRecipients(_ context.Context, filter RecipientFilter) ([]RecipientRecord, error) {
	d.filters = append(d.filters, filter)
	return d.records, d.err
}

type fakeSender struct {
	messages []*mailer.Message
	ctxErrs  []error
	failOn   int // 1-based call number that fails; 0 never fails
	err      error
}

func (s *fakeSender) Send(ctx context.Context, msg *mailer.Message) error {
	s.messages = append(s.messages, msg)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if s.failOn == len(s.messages) {
		return s.err
	}
	return nil
}

type fakePublisher struct {
	events []*events.CampaignEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e *events.CampaignEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func newTestService(dir RecipientDirectory, sender mailer.Sender, pub events.Publisher) *CampaignService {
	return NewCampaignService(emailtemplate.MustNew(), dir, sender, pub, testFrom, logger.NewNop())
}

func addresses(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user%03d@example.com", i)
	}
	return out
}

func records(addrs []string) []RecipientRecord {
	out := make([]RecipientRecord, len(addrs))
	for i, a := range addrs {
		out[i] = RecipientRecord{Email: a}
	}
	return out
}

func databaseRequest(status string) *domain.CampaignRequest {
	return &domain.CampaignRequest{
		Subject:         "Applications open",
		HTMLContent:     "<p>hello</p>",
		RecipientSource: domain.RecipientSourceDatabase,
		Year:            2025,
		Cycle:           "fall",
		Status:          status,
	}
}

func customRequest(emails ...string) *domain.CampaignRequest {
	return &domain.CampaignRequest{
		Subject:         "Applications open",
		HTMLContent:     "<p>hello</p>",
		RecipientSource: domain.RecipientSourceCustom,
		Emails:          emails,
	}
}

func bccOf(msg *mailer.Message) []string {
	var out []string
	for _, e := range msg.Envelopes {
		out = append(out, e.BCC...)
	}
	return out
}

func TestSendCampaign_BatchesOf100(t *testing.T) {
	all := addresses(250)
	dir := &fakeDirectory{records: records(all)}
	sender := &fakeSender{}
	pub := &fakePublisher{}

	result, err := newTestService(dir, sender, pub).SendCampaign(context.Background(), databaseRequest(""))
	require.NoError(t, err)

	assert.Equal(t, 250, result.RecipientCount)
	assert.Equal(t, 3, result.BatchCount)
	assert.NotEmpty(t, result.CampaignID)

	require.Len(t, sender.messages, 3)
	assert.Len(t, sender.messages[0].Envelopes, 100)
	assert.Len(t, sender.messages[1].Envelopes, 100)
	assert.Len(t, sender.messages[2].Envelopes, 50)

	var sentOrder []string
	for _, msg := range sender.messages {
		assert.Equal(t, testFrom, msg.From)
		assert.Equal(t, "Applications open", msg.Subject)
		assert.Equal(t, "<p>hello</p>", msg.HTML)
		for _, env := range msg.Envelopes {
			assert.Equal(t, []string{testFrom.Email}, env.To)
			require.Len(t, env.BCC, 1)
		}
		sentOrder = append(sentOrder, bccOf(msg)...)
	}
	assert.Equal(t, all, sentOrder)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.RoutingKeyCampaignCompleted, pub.events[0].Type)
	assert.Equal(t, result.CampaignID, pub.events[0].CampaignID)
	assert.Equal(t, 250, pub.events[0].RecipientCount)
}

func TestSendCampaign_StatusFilter(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   RecipientFilter
	}{
		{"no status", "", RecipientFilter{Year: 2025, Cycle: "fall"}},
		{"blank status", "  ", RecipientFilter{Year: 2025, Cycle: "fall"}},
		{"accepted", "accepted", RecipientFilter{Year: 2025, Cycle: "fall", Status: "accepted"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{records: records([]string{"a@b.com"})}

			_, err := newTestService(dir, &fakeSender{}, nil).SendCampaign(context.Background(), databaseRequest(tt.status))
			require.NoError(t, err)

			require.Len(t, dir.filters, 1)
			assert.Equal(t, tt.want, dir.filters[0])
		})
	}
}

func TestSendCampaign_NoRecipients(t *testing.T) {
	tests := []struct {
		name string
		dir  *fakeDirectory
		req  *domain.CampaignRequest
	}{
		{"empty database result", &fakeDirectory{}, databaseRequest("")},
		{"only unusable addresses", &fakeDirectory{records: records([]string{"", "not-an-email"})}, databaseRequest("")},
		{"empty custom list", &fakeDirectory{}, customRequest()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			pub := &fakePublisher{}

			result, err := newTestService(tt.dir, sender, pub).SendCampaign(context.Background(), tt.req)

			assert.Nil(t, result)
			assert.True(t, errors.IsCode(err, errors.CodeNoRecipients))
			assert.Empty(t, sender.messages)
			assert.Empty(t, pub.events)
		})
	}
}

func TestSendCampaign_StopsAtFailedBatch(t *testing.T) {
	providerErr := &mailer.ProviderError{
		Provider:   "sendgrid",
		StatusCode: 429,
		Message:    "Too Many Requests",
	}
	sender := &fakeSender{failOn: 2, err: providerErr}
	pub := &fakePublisher{}

	result, err := newTestService(&fakeDirectory{}, sender, pub).SendCampaign(context.Background(), customRequest(addresses(250)...))

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Len(t, sender.messages, 2, "batch 3 must never be attempted")

	appErr := errors.As(err)
	assert.Equal(t, errors.CodeSend, appErr.Code)
	assert.Contains(t, appErr.Message, "Batch 2/3")
	assert.ErrorIs(t, err, providerErr)

	failure, ok := appErr.Details.(BatchFailure)
	require.True(t, ok)
	assert.Equal(t, 2, failure.Batch)
	assert.Equal(t, 3, failure.TotalBatches)
	assert.Equal(t, 100, failure.SentRecipients)
	assert.Same(t, providerErr, failure.Provider)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.RoutingKeyCampaignFailed, pub.events[0].Type)
	assert.Equal(t, 2, pub.events[0].FailedBatch)
	assert.Equal(t, 1, pub.events[0].BatchesSent)
}

func TestSendCampaign_FiltersUnusableAddresses(t *testing.T) {
	dir := &fakeDirectory{records: []RecipientRecord{
		{Email: "not-an-email"},
		{Email: "a@b.com"},
		{Email: ""},
		{Email: "c@d.org"},
	}}
	sender := &fakeSender{}

	result, err := newTestService(dir, sender, nil).SendCampaign(context.Background(), databaseRequest(""))
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecipientCount)
	require.Len(t, sender.messages, 1)
	assert.Equal(t, []string{"a@b.com", "c@d.org"}, bccOf(sender.messages[0]))
}

func TestSendCampaign_CustomListVerbatim(t *testing.T) {
	dir := &fakeDirectory{}
	sender := &fakeSender{}
	list := []string{"not-validated", "a@b.com", "a@b.com"}

	result, err := newTestService(dir, sender, nil).SendCampaign(context.Background(), customRequest(list...))
	require.NoError(t, err)

	assert.Equal(t, 3, result.RecipientCount)
	assert.Empty(t, dir.filters, "custom lists never touch the database")
	require.Len(t, sender.messages, 1)
	assert.Equal(t, list, bccOf(sender.messages[0]))
}

func TestSendCampaign_BannerOnEveryBatch(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	req := customRequest(addresses(150)...)
	req.BannerImage = payload
	sender := &fakeSender{}

	_, err := newTestService(nil, sender, nil).SendCampaign(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, sender.messages, 2)
	for _, msg := range sender.messages {
		require.NotNil(t, msg.Inline)
		assert.Equal(t, mailer.InlineImage{
			Filename:    "logo.png",
			ContentType: "image/png",
			ContentID:   "logo.png",
			Content:     []byte("png-bytes"),
		}, *msg.Inline)
	}
}

func TestSendCampaign_RendersDocument(t *testing.T) {
	doc := domain.DefaultDocument()
	req := customRequest("a@b.com")
	req.HTMLContent = ""
	req.Document = &doc
	req.BannerImage = base64.StdEncoding.EncodeToString([]byte("png"))
	sender := &fakeSender{}

	_, err := newTestService(nil, sender, nil).SendCampaign(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	html := sender.messages[0].HTML
	assert.Contains(t, html, `src="cid:logo.png"`)
	assert.NotContains(t, html, "data:image/png")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(html), "<!DOCTYPE html>"))
}

func TestSendCampaign_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.CampaignRequest)
	}{
		{"missing subject", func(r *domain.CampaignRequest) { r.Subject = " " }},
		{"missing content", func(r *domain.CampaignRequest) { r.HTMLContent = "" }},
		{"missing year", func(r *domain.CampaignRequest) { r.Year = 0 }},
		{"missing cycle", func(r *domain.CampaignRequest) { r.Cycle = "" }},
		{"unknown source", func(r *domain.CampaignRequest) { r.RecipientSource = "ldap" }},
		{"invalid banner", func(r *domain.CampaignRequest) { r.BannerImage = "%%%not-base64" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{records: records([]string{"a@b.com"})}
			sender := &fakeSender{}
			req := databaseRequest("")
			tt.mutate(req)

			_, err := newTestService(dir, sender, nil).SendCampaign(context.Background(), req)

			assert.True(t, errors.IsCode(err, errors.CodeValidation), "got %v", err)
			assert.Empty(t, dir.filters)
			assert.Empty(t, sender.messages)
		})
	}
}

func TestSendCampaign_ResolutionError(t *testing.T) {
	dir := &fakeDirectory{err: stderrors.New("server selection timeout")}
	sender := &fakeSender{}

	_, err := newTestService(dir, sender, nil).SendCampaign(context.Background(), databaseRequest(""))

	assert.True(t, errors.IsCode(err, errors.CodeResolution))
	assert.ErrorContains(t, err, "server selection timeout")
	assert.Empty(t, sender.messages)
}

func TestSendCampaign_MissingSenderIdentity(t *testing.T) {
	sender := &fakeSender{}
	svc := NewCampaignService(emailtemplate.MustNew(), nil, sender, nil, mailer.Address{Email: "events@example.com"}, logger.NewNop())

	_, err := svc.SendCampaign(context.Background(), customRequest("a@b.com"))

	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
	assert.Contains(t, err.Error(), "FROM_NAME")
	assert.Empty(t, sender.messages)
}

func TestSendCampaign_DetachedFromCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sender := &fakeSender{}

	result, err := newTestService(nil, sender, nil).SendCampaign(ctx, customRequest(addresses(120)...))
	require.NoError(t, err)

	assert.Equal(t, 2, result.BatchCount)
	for _, ctxErr := range sender.ctxErrs {
		assert.NoError(t, ctxErr)
	}
}

func TestSendCampaign_PublishFailureIgnored(t *testing.T) {
	pub := &fakePublisher{err: stderrors.New("broker down")}

	result, err := newTestService(nil, &fakeSender{}, pub).SendCampaign(context.Background(), customRequest("a@b.com"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.RecipientCount)
	assert.Len(t, pub.events, 1)
}

func TestSendTest(t *testing.T) {
	sender := &fakeSender{}
	req := &domain.TestSendRequest{
		Subject:     "Preview",
		HTMLContent: "<p>hi</p>",
		TestEmail:   " me@example.com ",
		BannerImage: base64.StdEncoding.EncodeToString([]byte("png")),
	}

	require.NoError(t, newTestService(nil, sender, nil).SendTest(context.Background(), req))

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, []mailer.Envelope{{To: []string{"me@example.com"}}}, msg.Envelopes)
	assert.Equal(t, testFrom, msg.From)
	require.NotNil(t, msg.Inline)
	assert.Equal(t, "logo.png", msg.Inline.ContentID)
}

func TestSendTest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.TestSendRequest
		wantMsg string
	}{
		{"missing destination", domain.TestSendRequest{Subject: "s", HTMLContent: "h"}, "Test email is required"},
		{"missing subject", domain.TestSendRequest{HTMLContent: "h", TestEmail: "a@b.com"}, "Subject is required"},
		{"missing content", domain.TestSendRequest{Subject: "s", TestEmail: "a@b.com"}, "Email content is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			err := newTestService(nil, sender, nil).SendTest(context.Background(), &tt.req)

			appErr := errors.As(err)
			assert.Equal(t, errors.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Empty(t, sender.messages)
		})
	}
}

func TestSendTest_MissingSenderIdentity(t *testing.T) {
	sender := &fakeSender{}
	svc := NewCampaignService(emailtemplate.MustNew(), nil, sender, nil, mailer.Address{}, logger.NewNop())

	err := svc.SendTest(context.Background(), &domain.TestSendRequest{Subject: "s", HTMLContent: "h", TestEmail: "a@b.com"})

	appErr := errors.As(err)
	assert.Equal(t, errors.CodeConfiguration, appErr.Code)
	assert.Equal(t, "FROM_EMAIL and FROM_NAME must be set in environment variables", appErr.Message)
	assert.Empty(t, sender.messages)
}

func TestSendTest_ProviderDetailSurfaced(t *testing.T) {
	providerErr := &mailer.ProviderError{
		Provider:   "sendgrid",
		StatusCode: 403,
		Message:    "Forbidden",
		Errors:     []mailer.FieldError{{Field: "from", Message: "The from address does not match a verified Sender Identity."}},
	}
	sender := &fakeSender{failOn: 1, err: providerErr}

	err := newTestService(nil, sender, nil).SendTest(context.Background(), &domain.TestSendRequest{Subject: "s", HTMLContent: "h", TestEmail: "a@b.com"})

	appErr := errors.As(err)
	assert.Equal(t, errors.CodeSend, appErr.Code)
	assert.Same(t, providerErr, appErr.Details)
	assert.Len(t, sender.messages, 1)
}

func TestPreview_EmbedsBannerAsDataURI(t *testing.T) {
	req := &domain.PreviewRequest{
		Document:    domain.DefaultDocument(),
		BannerImage: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpg")),
	}

	html, err := newTestService(nil, nil, nil).Preview(req)
	require.NoError(t, err)

	assert.Contains(t, html, `src="data:image/jpeg;base64,`+base64.StdEncoding.EncodeToString([]byte("jpg"))+`"`)
}

func TestProviderDetail(t *testing.T) {
	pe := &mailer.ProviderError{Provider: "postmark", Message: "batch rejected"}
	assert.Same(t, pe, ProviderDetail(fmt.Errorf("wrapped: %w", pe)))
	assert.Equal(t, "timeout", ProviderDetail(stderrors.New("timeout")))
}
