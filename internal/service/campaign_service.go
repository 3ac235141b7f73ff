package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vhvplatform/go-campaign-service/internal/domain"
	"github.com/vhvplatform/go-campaign-service/internal/emailtemplate"
	"github.com/vhvplatform/go-campaign-service/internal/events"
	"github.com/vhvplatform/go-campaign-service/internal/mailer"
	"github.com/vhvplatform/go-campaign-service/internal/metrics"
	"github.com/vhvplatform/go-campaign-service/internal/shared/errors"
	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
)

// CampaignResult is returned once every batch of a campaign has been accepted
type CampaignResult struct {
	CampaignID     string `json:"campaignId"`
	RecipientCount int    `json:"recipientCount"`
	BatchCount     int    `json:"batchCount"`
}

// BatchFailure is attached to the SendError of a campaign that stopped early
type BatchFailure struct {
	Batch          int `json:"batch"`
	TotalBatches   int `json:"totalBatches"`
	SentRecipients int `json:"sentRecipients"`
	Provider       any `json:"provider,omitempty"`
}

// CampaignService validates, resolves, renders and dispatches campaigns
type CampaignService struct {
	renderer  *emailtemplate.Renderer
	directory RecipientDirectory
	sender    mailer.Sender
	publisher events.Publisher
	from      mailer.Address
	batchSize int
	log       *logger.Logger
}

// NewCampaignService creates a new campaign service. A nil publisher disables events.
func NewCampaignService(
	renderer *emailtemplate.Renderer,
	directory RecipientDirectory,
	sender mailer.Sender,
	publisher events.Publisher,
	from mailer.Address,
	log *logger.Logger,
) *CampaignService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &CampaignService{
		renderer:  renderer,
		directory: directory,
		sender:    sender,
		publisher: publisher,
		from:      from,
		batchSize: DefaultBatchSize,
		log:       log,
	}
}

// SendCampaign resolves the recipients of req and sends the campaign in
// sequential batches. It stops at the first failed batch; batches already
// accepted by the provider stay sent.
func (s *CampaignService) SendCampaign(ctx context.Context, req *domain.CampaignRequest) (*CampaignResult, error) {
	if strings.TrimSpace(req.Subject) == "" || (req.HTMLContent == "" && req.Document == nil) {
		return nil, errors.NewValidationError("Missing required fields: subject and content", nil)
	}

	source, err := SourceFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.checkSender(); err != nil {
		return nil, err
	}

	banner, err := decodeBanner(req.BannerImage, req.BannerContentType)
	if err != nil {
		return nil, err
	}

	html, err := s.body(req.HTMLContent, req.Document, banner)
	if err != nil {
		return nil, err
	}

	sourceLabel := string(source.Kind())

	recipients, err := source.Resolve(ctx, s.directory)
	if err != nil {
		s.log.Error("Failed to resolve recipients", "source", sourceLabel, "error", err)
		metrics.CampaignsTotal.WithLabelValues(sourceLabel, "resolution_error").Inc()
		return nil, err
	}

	if len(recipients) == 0 {
		metrics.CampaignsTotal.WithLabelValues(sourceLabel, "no_recipients").Inc()
		return nil, errors.NewNoRecipientsError("No recipients found")
	}

	campaignID := uuid.New().String()
	log := s.log.With("campaign_id", campaignID)
	batches := Batch(recipients, s.batchSize)
	inline := inlineImage(banner)

	log.Info("Sending campaign", "source", sourceLabel, "recipients", len(recipients), "batches", len(batches))

	// Queued batches must not be abandoned if the caller goes away.
	sendCtx := context.WithoutCancel(ctx)

	sent := 0
	for i, batch := range batches {
		msg := &mailer.Message{
			From:      s.from,
			Subject:   req.Subject,
			HTML:      html,
			Envelopes: s.blindEnvelopes(batch),
			Inline:    inline,
		}

		start := time.Now()
		err := s.sender.Send(sendCtx, msg)
		metrics.BatchDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.BatchesTotal.WithLabelValues("failed").Inc()
			metrics.CampaignsTotal.WithLabelValues(sourceLabel, "failed").Inc()
			log.Error("Batch failed", "batch", i+1, "total_batches", len(batches), "sent_recipients", sent, "error", err)

			event := events.NewCampaignEvent(events.RoutingKeyCampaignFailed, campaignID)
			event.Source = sourceLabel
			event.Subject = req.Subject
			event.RecipientCount = sent
			event.BatchCount = len(batches)
			event.BatchesSent = i
			event.FailedBatch = i + 1
			event.Error = err.Error()
			s.publish(sendCtx, log, event)

			return nil, errors.NewSendError(fmt.Sprintf("Batch %d/%d failed", i+1, len(batches)), err).
				WithDetails(BatchFailure{
					Batch:          i + 1,
					TotalBatches:   len(batches),
					SentRecipients: sent,
					Provider:       ProviderDetail(err),
				})
		}

		sent += len(batch)
		metrics.BatchesTotal.WithLabelValues("sent").Inc()
		metrics.RecipientsTotal.Add(float64(len(batch)))
		log.Info("Batch sent", "batch", i+1, "total_batches", len(batches), "recipients", len(batch))
	}

	metrics.CampaignsTotal.WithLabelValues(sourceLabel, "sent").Inc()
	log.Info("Campaign sent", "recipients", sent, "batches", len(batches))

	event := events.NewCampaignEvent(events.RoutingKeyCampaignCompleted, campaignID)
	event.Source = sourceLabel
	event.Subject = req.Subject
	event.RecipientCount = sent
	event.BatchCount = len(batches)
	event.BatchesSent = len(batches)
	s.publish(sendCtx, log, event)

	return &CampaignResult{
		CampaignID:     campaignID,
		RecipientCount: sent,
		BatchCount:     len(batches),
	}, nil
}

// SendTest sends a single email directly to req.TestEmail
func (s *CampaignService) SendTest(ctx context.Context, req *domain.TestSendRequest) error {
	testEmail := strings.TrimSpace(req.TestEmail)
	switch {
	case testEmail == "":
		return errors.NewValidationError("Test email is required", nil)
	case strings.TrimSpace(req.Subject) == "":
		return errors.NewValidationError("Subject is required", nil)
	case req.HTMLContent == "" && req.Document == nil:
		return errors.NewValidationError("Email content is required", nil)
	}

	if err := s.checkSender(); err != nil {
		return err
	}

	banner, err := decodeBanner(req.BannerImage, req.BannerContentType)
	if err != nil {
		return err
	}

	html, err := s.body(req.HTMLContent, req.Document, banner)
	if err != nil {
		return err
	}

	msg := &mailer.Message{
		From:      s.from,
		Subject:   req.Subject,
		HTML:      html,
		Envelopes: []mailer.Envelope{{To: []string{testEmail}}},
		Inline:    inlineImage(banner),
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		metrics.TestSendsTotal.WithLabelValues("failed").Inc()
		s.log.Error("Failed to send test email", "to", testEmail, "error", err)
		return errors.NewSendError("Failed to send test email", err).WithDetails(ProviderDetail(err))
	}

	metrics.TestSendsTotal.WithLabelValues("sent").Inc()
	s.log.Info("Test email sent", "to", testEmail, "has_banner", banner != nil)
	return nil
}

// Preview renders a document for display in a browser. The banner, if any,
// is embedded as a data URI.
func (s *CampaignService) Preview(req *domain.PreviewRequest) (string, error) {
	banner, err := decodeBanner(req.BannerImage, req.BannerContentType)
	if err != nil {
		return "", err
	}

	html, err := s.renderer.RenderDocument(req.Document, banner)
	if err != nil {
		return "", errors.NewInternalError("Failed to render email", err)
	}
	return html, nil
}

func (s *CampaignService) checkSender() error {
	var missing []string
	if s.from.Email == "" {
		missing = append(missing, "FROM_EMAIL")
	}
	if s.from.Name == "" {
		missing = append(missing, "FROM_NAME")
	}
	if s.sender == nil {
		missing = append(missing, "mail provider credential")
	}
	if len(missing) > 0 {
		return errors.NewConfigurationError(strings.Join(missing, " and ")+" must be set in environment variables", nil)
	}
	return nil
}

// body returns the pre-rendered HTML when given, otherwise renders doc with
// the banner referenced as an inline attachment.
func (s *CampaignService) body(html string, doc *domain.Document, banner *domain.Banner) (string, error) {
	if html != "" {
		return html, nil
	}

	var inline *domain.Banner
	if banner != nil {
		b := *banner
		b.ContentID = domain.BannerContentID
		inline = &b
	}

	out, err := s.renderer.RenderDocument(*doc, inline)
	if err != nil {
		return "", errors.NewInternalError("Failed to render email", err)
	}
	return out, nil
}

// blindEnvelopes gives each recipient its own envelope, addressed to the
// campaign sender with the recipient as the only blind copy.
func (s *CampaignService) blindEnvelopes(batch []string) []mailer.Envelope {
	envelopes := make([]mailer.Envelope, len(batch))
	for i, addr := range batch {
		envelopes[i] = mailer.Envelope{
			To:  []string{s.from.Email},
			BCC: []string{addr},
		}
	}
	return envelopes
}

// publish never fails the campaign; the outcome has already happened.
func (s *CampaignService) publish(ctx context.Context, log *logger.Logger, event *events.CampaignEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.Inc()
		log.Warn("Failed to publish campaign event", "type", event.Type, "error", err)
	}
}

func decodeBanner(payload, contentType string) (*domain.Banner, error) {
	banner, err := domain.DecodeBanner(payload, contentType)
	if err != nil {
		return nil, errors.NewValidationError("Invalid banner image", err)
	}
	return banner, nil
}

func inlineImage(banner *domain.Banner) *mailer.InlineImage {
	if banner == nil {
		return nil
	}
	return &mailer.InlineImage{
		Filename:    domain.BannerFilename,
		ContentType: banner.ContentType,
		ContentID:   domain.BannerContentID,
		Content:     banner.Data,
	}
}

// ProviderDetail extracts what the mail provider reported about a failure
func ProviderDetail(err error) any {
	var pe *mailer.ProviderError
	if stderrors.As(err, &pe) {
		return pe
	}
	return err.Error()
}
