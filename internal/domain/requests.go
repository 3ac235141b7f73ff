package domain

// RecipientSourceKind selects where campaign recipients come from
type RecipientSourceKind string

const (
	RecipientSourceDatabase RecipientSourceKind = "database"
	RecipientSourceCustom   RecipientSourceKind = "custom"
)

// CampaignRequest represents a request to send a campaign.
// Either HTMLContent or Document must be supplied; HTMLContent wins when both are.
type CampaignRequest struct {
	Subject           string              `json:"subject"`
	HTMLContent       string              `json:"htmlContent"`
	Document          *Document           `json:"document,omitempty"`
	RecipientSource   RecipientSourceKind `json:"recipientSource" binding:"required,oneof=database custom"`
	Emails            []string            `json:"emails,omitempty"`
	BannerImage       string              `json:"bannerImage,omitempty"`
	BannerContentType string              `json:"bannerContentType,omitempty"`

	// Database filters
	Year   int    `json:"year,omitempty"`
	Cycle  string `json:"cycle,omitempty"`
	Status string `json:"status,omitempty"`
}

// TestSendRequest represents a request to send a single test email
type TestSendRequest struct {
	Subject           string    `json:"subject"`
	HTMLContent       string    `json:"htmlContent"`
	Document          *Document `json:"document,omitempty"`
	TestEmail         string    `json:"testEmail"`
	BannerImage       string    `json:"bannerImage,omitempty"`
	BannerContentType string    `json:"bannerContentType,omitempty"`
}

// PreviewRequest represents a request to render a document for preview
type PreviewRequest struct {
	Document          Document `json:"document"`
	BannerImage       string   `json:"bannerImage,omitempty"`
	BannerContentType string   `json:"bannerContentType,omitempty"`
}

// ParseRecipientsRequest carries a comma separated address list
type ParseRecipientsRequest struct {
	Text string `json:"text"`
}
