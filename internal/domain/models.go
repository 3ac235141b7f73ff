package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vhvplatform/go-campaign-service/internal/richtext"
)

// ContentModel holds the editable copy of a campaign email
type ContentModel struct {
	Title        richtext.Text   `json:"title"`
	MainHeading  richtext.Text   `json:"mainHeading"`
	IntroText    richtext.Text   `json:"introText"`
	EventDetails richtext.Text   `json:"eventDetails"`
	BulletPoints []richtext.Text `json:"bulletPoints"`
	ClosingText  richtext.Text   `json:"closingText"`
	Signature    richtext.Text   `json:"signature"`
	Team         richtext.Text   `json:"team"`
	ContactEmail string          `json:"contactEmail"`
	SocialHandle string          `json:"socialHandle"`
}

// ColorTheme holds the colors applied to the email body. Values are not validated.
type ColorTheme struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

// Callout is the optional call-to-action block
type Callout struct {
	Enabled         bool          `json:"enabled"`
	Heading         richtext.Text `json:"heading"`
	Content         richtext.Text `json:"content"`
	ButtonText      string        `json:"buttonText"`
	ButtonLink      string        `json:"buttonLink"`
	BackgroundColor string        `json:"backgroundColor"`
	BorderColor     string        `json:"borderColor"`
	TextColor       string        `json:"textColor"`
	ButtonColor     string        `json:"buttonColor"`
	ButtonTextColor string        `json:"buttonTextColor"`
}

// Document is everything needed to render a campaign email
type Document struct {
	Content ContentModel `json:"template"`
	Colors  ColorTheme   `json:"colors"`
	Callout Callout      `json:"callout"`
}

// Inline banner attachment identity shared by the renderer and the mailer
const (
	BannerFilename    = "logo.png"
	BannerContentID   = "logo.png"
	DefaultBannerMIME = "image/png"
)

// ErrInvalidBanner is returned when the banner payload is not valid base64
var ErrInvalidBanner = errors.New("banner image is not valid base64")

// Banner references decoded image bytes and their media type.
// A nil *Banner means no banner was supplied.
type Banner struct {
	ContentType string
	Data        []byte
	// ContentID makes the renderer reference the image as an inline attachment
	// ("cid:"); when empty the image is embedded as a data URI.
	ContentID string
}

// Src returns the value for an <img src> attribute
func (b *Banner) Src() string {
	if b.ContentID != "" {
		return "cid:" + b.ContentID
	}
	return "data:" + b.ContentType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// Base64 returns the image bytes in standard base64
func (b *Banner) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

// DecodeBanner decodes a base64 banner payload. An empty payload yields nil.
// A "data:<type>;base64," prefix is accepted and its media type used when
// contentType is empty.
func DecodeBanner(payload, contentType string) (*Banner, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, data, found := strings.Cut(rest, ",")
		if !found {
			return nil, ErrInvalidBanner
		}
		if contentType == "" {
			contentType = strings.TrimSuffix(header, ";base64")
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBanner, err)
	}

	if contentType == "" {
		contentType = DefaultBannerMIME
	}

	return &Banner{
		ContentType: contentType,
		Data:        data,
	}, nil
}
