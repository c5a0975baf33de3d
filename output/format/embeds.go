package format

import (
	"fmt"
	"strings"

	"github.com/ansel1/tangcord/discord"
)

const embedBar = "▌"

// FormatEmbeds renders webhook embeds for the terminal, roughly as a channel
// would show them. Used by dry runs.
func (sf *SummaryFormatter) FormatEmbeds(embeds []discord.Embed) string {
	var b strings.Builder
	for i, embed := range embeds {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sf.formatEmbed(embed))
	}
	return b.String()
}

func (sf *SummaryFormatter) formatEmbed(embed discord.Embed) string {
	style := sf.passStyle
	if embed.Failed() {
		style = sf.failStyle
	}
	bar := sf.render(style, embedBar) + " "

	var b strings.Builder
	b.WriteString(bar + embed.Title + "\n")

	if embed.Description != "" {
		for _, line := range strings.Split(embed.Description, "\n") {
			b.WriteString(bar + line + "\n")
		}
	}

	var inline, block []discord.Field
	for _, f := range embed.Fields {
		if f.Inline {
			inline = append(inline, f)
		} else {
			block = append(block, f)
		}
	}

	if len(inline) > 0 {
		header := make([]string, 0, len(inline))
		row := make([]string, 0, len(inline))
		for _, f := range inline {
			header = append(header, f.Name)
			row = append(row, f.Value)
		}
		for _, line := range strings.Split(strings.TrimRight(renderTable(header, [][]string{row}), "\n"), "\n") {
			b.WriteString(bar + line + "\n")
		}
	}

	for _, f := range block {
		b.WriteString(bar + f.Name + "\n")
		for _, line := range strings.Split(ExpandTabs(f.Value, tabWidth), "\n") {
			b.WriteString(bar + IndentLevel1 + line + "\n")
		}
	}

	if embed.Footer != nil {
		b.WriteString(bar + sf.render(sf.neutralStyle.Faint(true), embed.Footer.Text) + "\n")
	}
	if embed.Timestamp != "" {
		b.WriteString(bar + fmt.Sprintf("(%s)", embed.Timestamp) + "\n")
	}
	return b.String()
}
