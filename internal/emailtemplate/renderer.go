// Package emailtemplate renders the campaign document into a single
// self-contained HTML email. All styling is inlined so the output survives
// mail clients that block external resources.
package emailtemplate

import (
	_ "embed"
	"fmt"
	"html"
	"strings"

	"github.com/osteele/liquid"

	"github.com/vhvplatform/go-campaign-service/internal/domain"
)

//go:embed layout.liquid
var layout string

const socialProfileBase = "https://instagram.com/"

// Renderer holds the parsed layout. It is immutable and safe for concurrent use.
type Renderer struct {
	tpl *liquid.Template
}

// New parses the embedded layout
func New() (*Renderer, error) {
	engine := liquid.NewEngine()
	tpl, err := engine.ParseString(layout)
	if err != nil {
		return nil, fmt.Errorf("parse email layout: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// MustNew is like New but panics if the layout does not parse
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render produces the email HTML. A nil banner renders the themed placeholder.
// Inputs are read only; every call returns a fresh string.
func (r *Renderer) Render(content domain.ContentModel, theme domain.ColorTheme, callout domain.Callout, banner *domain.Banner) (string, error) {
	out, err := r.tpl.RenderString(bindings(content, theme, callout, banner))
	if err != nil {
		return "", fmt.Errorf("render email layout: %w", err)
	}
	return out, nil
}

// RenderDocument renders a whole document
func (r *Renderer) RenderDocument(doc domain.Document, banner *domain.Banner) (string, error) {
	return r.Render(doc.Content, doc.Colors, doc.Callout, banner)
}

func bindings(content domain.ContentModel, theme domain.ColorTheme, callout domain.Callout, banner *domain.Banner) liquid.Bindings {
	points := make([]string, len(content.BulletPoints))
	for i, p := range content.BulletPoints {
		points[i] = p.String()
	}

	link, label := SocialProfile(content.SocialHandle)

	b := liquid.Bindings{
		"title":      html.EscapeString(content.Title.Plain()),
		"has_banner": banner != nil,
		"banner_src": "",
		"theme": map[string]any{
			"primary":    theme.Primary,
			"secondary":  theme.Secondary,
			"background": theme.Background,
			"text":       theme.Text,
			"accent":     theme.Accent,
		},
		"content": map[string]any{
			"main_heading":  content.MainHeading.String(),
			"intro_text":    content.IntroText.String(),
			"event_details": content.EventDetails.String(),
			"bullet_points": points,
			"closing_text":  content.ClosingText.String(),
			"signature":     content.Signature.String(),
			"team":          content.Team.String(),
			"contact_email": content.ContactEmail,
		},
		"callout": calloutBindings(callout),
		"social": map[string]any{
			"link":  link,
			"label": label,
		},
	}
	if banner != nil {
		b["banner_src"] = banner.Src()
	}
	return b
}

func calloutBindings(c domain.Callout) map[string]any {
	return map[string]any{
		"enabled":           c.Enabled,
		"heading":           c.Heading.String(),
		"content":           c.Content.String(),
		"button_text":       c.ButtonText,
		"button_link":       c.ButtonLink,
		"background_color":  c.BackgroundColor,
		"border_color":      c.BorderColor,
		"text_color":        c.TextColor,
		"button_color":      c.ButtonColor,
		"button_text_color": c.ButtonTextColor,
	}
}

// SocialProfile returns the profile URL and the visible "@handle" label.
// A leading "@" is optional on input; both forms give the same result.
func SocialProfile(handle string) (link, label string) {
	name := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if name == "" {
		return socialProfileBase, ""
	}
	return socialProfileBase + name, "@" + name
}
