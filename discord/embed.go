// Package discord holds the webhook message model and the HTTP sender.
package discord

// Color sentinels for the two overall outcomes.
const (
	ColorSuccess = 0x00FF00
	ColorFailure = 0xFF0000
)

// Limits enforced by the receiving service. Messages that exceed them are
// rejected, so builders must stay within them for any input.
const (
	MaxFields            = 10
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxDescriptionLength = 2048
)

// Embed is one rich message card.
type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Field is a name/value pair shown in an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Footer is the small text at the bottom of an embed.
type Footer struct {
	Text string `json:"text"`
}

// Payload is the JSON body posted to a webhook.
type Payload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Failed reports whether the embed carries the failure color.
func (e Embed) Failed() bool {
	return e.Color == ColorFailure
}
