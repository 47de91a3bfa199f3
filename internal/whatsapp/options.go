package whatsapp

import "unicode/utf8"

// Cloud API limits for interactive messages.
const (
	maxButtons       = 3
	maxButtonTitle   = 20
	maxListRows      = 10
	maxRowTitle      = 24
	maxReplyIDLength = 256
	listButtonText   = "Options"
	listSectionTitle = "Choose one"
)

// ReplyButtons turns up to three options into reply buttons.
func ReplyButtons(options []string) []Button {
	n := min(len(options), maxButtons)
	buttons := make([]Button, n)
	for i := 0; i < n; i++ {
		buttons[i] = Button{
			Type:  "reply",
			Reply: ButtonReply{ID: replyID(options[i]), Title: truncate(options[i], maxButtonTitle)},
		}
	}
	return buttons
}

// ListSections puts up to ten options into a single list section.
func ListSections(options []string) []Section {
	n := min(len(options), maxListRows)
	rows := make([]SectionRow, n)
	for i := 0; i < n; i++ {
		rows[i] = SectionRow{ID: replyID(options[i]), Title: truncate(options[i], maxRowTitle)}
	}
	return []Section{{Title: listSectionTitle, Rows: rows}}
}

// replyID carries the option itself so a tap replays it verbatim. Options
// longer than the ID limit are clipped on a rune boundary.
func replyID(option string) string {
	limit := maxReplyIDLength - len(OptionIDPrefix)
	if len(option) > limit {
		option = option[:limit]
		for !utf8.ValidString(option) {
			option = option[:len(option)-1]
		}
	}
	return OptionIDPrefix + option
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
