// Package richtext models editable email copy as a sanitized string of inline
// HTML markup. Formatting operations are pure functions returning new values.
package richtext

import (
	"encoding/json"
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Text is inline HTML that has passed the rich-text policy.
// The zero value is an empty, valid Text.
type Text string

var (
	policy     *bluemonday.Policy
	stripAll   *bluemonday.Policy
	policyOnce sync.Once
)

func initPolicies() {
	policyOnce.Do(func() {
		// Mirrors what a contentEditable toolbar can produce.
		policy = bluemonday.NewPolicy()
		policy.AllowStandardURLs()
		policy.AllowElements(
			"b", "strong", "i", "em", "u",
			"br", "p", "div", "span",
		)
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowURLSchemes("http", "https", "mailto")

		stripAll = bluemonday.StrictPolicy()
	})
}

// New sanitizes s and returns it as Text.
func New(s string) Text {
	initPolicies()
	return Text(policy.Sanitize(s))
}

// Plain returns the text content with all markup removed.
func (t Text) Plain() string {
	initPolicies()
	return html.UnescapeString(stripAll.Sanitize(string(t)))
}

// String returns the markup.
func (t Text) String() string {
	return string(t)
}

// IsEmpty reports whether t has no markup at all.
func (t Text) IsEmpty() bool {
	return t == ""
}

// UnmarshalJSON sanitizes on decode so untrusted payloads never yield unsanitized Text.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = New(s)
	return nil
}

// Bold wraps t in <b>.
func Bold(t Text) Text {
	return wrap("b", t)
}

// Italic wraps t in <i>.
func Italic(t Text) Text {
	return wrap("i", t)
}

// Underline wraps t in <u>.
func Underline(t Text) Text {
	return wrap("u", t)
}

// Link turns t into an anchor pointing at href. Unsafe schemes are dropped by
// the policy, leaving the bare text.
func Link(t Text, href string) Text {
	return New(`<a href="` + html.EscapeString(href) + `">` + string(t) + `</a>`)
}

func wrap(tag string, t Text) Text {
	return Text("<" + tag + ">" + string(t) + "</" + tag + ">")
}
