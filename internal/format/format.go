// Package format renders activity items and notices for Telegram.
package format

import (
	"fmt"
	"strings"
)

// ParseModeMarkdownV2 is the Telegram parse mode used for styled cards
const ParseModeMarkdownV2 = "MarkdownV2"

// Action identifiers carried by the card buttons
const (
	ActionListen = "listen"
	ActionShow   = "show"
	ActionNext   = "next"
)

// reservedMarkdownV2 are the characters Telegram requires to be escaped in MarkdownV2
const reservedMarkdownV2 = "_*[]()~`>#+-=|{}.!\\"

var (
	escaper   *strings.Replacer
	unescaper *strings.Replacer
)

func init() {
	pairs := make([]string, 0, len(reservedMarkdownV2)*2)
	inverse := make([]string, 0, len(reservedMarkdownV2)*2)
	for _, r := range reservedMarkdownV2 {
		pairs = append(pairs, string(r), `\`+string(r))
		inverse = append(inverse, `\`+string(r), string(r))
	}
	escaper = strings.NewReplacer(pairs...)
	unescaper = strings.NewReplacer(inverse...)
}

// EscapeMarkdownV2 prefixes every reserved character with a backslash
func EscapeMarkdownV2(text string) string {
	return escaper.Replace(text)
}

// UnescapeMarkdownV2 reverses EscapeMarkdownV2
func UnescapeMarkdownV2(text string) string {
	return unescaper.Replace(text)
}

// Button is a single control under a card
type Button struct {
	Text   string
	Action string
}

// Item is the word currently presented in a session
type Item struct {
	Word          string
	Transcription string
	Position      int // 1-based
	Total         int
}

// Card is a rendered item ready to be sent
type Card struct {
	Text      string
	ParseMode string
	Buttons   [][]Button
}

// Controls returns the Listen/Show/Next row
func Controls() [][]Button {
	return [][]Button{{
		{Text: "Listen", Action: ActionListen},
		{Text: "Show", Action: ActionShow},
		{Text: "Next", Action: ActionNext},
	}}
}

// RenderItem builds the card for an item. A revealed card shows the plain word
// under the transcription.
func RenderItem(item Item, revealed bool) Card {
	var b strings.Builder
	fmt.Fprintf(&b, "Word %d/%d\n", item.Position, item.Total)
	fmt.Fprintf(&b, "*%s*\n", EscapeMarkdownV2(item.Transcription))
	if revealed {
		b.WriteString(EscapeMarkdownV2(item.Word))
	} else {
		b.WriteString(" ✏️")
	}

	return Card{
		Text:      b.String(),
		ParseMode: ParseModeMarkdownV2,
		Buttons:   Controls(),
	}
}
