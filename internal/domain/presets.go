package domain

import "github.com/vhvplatform/go-campaign-service/internal/richtext"

// ColorPreset is a named color theme offered to the editor
type ColorPreset struct {
	Name   string     `json:"name"`
	Colors ColorTheme `json:"colors"`
}

// FilterOptions lists the values the database recipient filter accepts in the editor
type FilterOptions struct {
	Years    []int    `json:"years"`
	Cycles   []string `json:"cycles"`
	Statuses []string `json:"statuses"`
}

// Fall2025Theme is the default color theme
var Fall2025Theme = ColorTheme{
	Primary:    "#1e4027",
	Secondary:  "#366662",
	Background: "#efdfbd",
	Text:       "#333333",
	Accent:     "#f4ead6",
}

// ColorPresets returns the built-in color presets
func ColorPresets() []ColorPreset {
	return []ColorPreset{
		{Name: "Fall 2025", Colors: Fall2025Theme},
	}
}

// DefaultFilterOptions returns the recipient filter values shown in the editor
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Years:  []int{2024, 2025},
		Cycles: []string{"spring", "fall"},
		Statuses: []string{
			"started",
			"submitted",
			"accepted",
			"confirmed",
			"waitlisted",
			"waitlist_accepted",
			"rejected",
		},
	}
}

// DefaultDocument returns the starter document a new campaign opens with
func DefaultDocument() Document {
	return Document{
		Content: ContentModel{
			Title:        "This is the email subject",
			MainHeading:  "This is the main heading of the email",
			IntroText:    "This is the first paragraph of the content",
			EventDetails: "This is the second paragraph of the content",
			BulletPoints: []richtext.Text{
				"First bullet point if needed",
				"Keep adding bullet points with the &#39;add point&#39; button",
				"And use the trash button to delete bullet points if not needed",
			},
			ClosingText:  "This is the closing paragraph. Leave blank if unneeded.",
			Signature:    "With lots of love and plenty more caffeine,",
			Team:         "The HackPrinceton Team",
			ContactEmail: "team@hackprinceton.com",
			SocialHandle: "@hackprinceton",
		},
		Colors: Fall2025Theme,
		Callout: Callout{
			Enabled:         true,
			Heading:         "This is the callout heading, used to emphasize information/links",
			Content:         "This is the text portion of the callout. If you don&#39;t want to use the callout, you can disable it on the top right.",
			ButtonText:      "This is the button",
			ButtonLink:      "https://hackprinceton.com/",
			BackgroundColor: "#efdfbd",
			BorderColor:     "#1e4027",
			TextColor:       "#1e4027",
			ButtonColor:     "#1e4027",
			ButtonTextColor: "#ffffff",
		},
	}
}
