package updater

import (
	"fmt"

	"github.com/complete-domination/xrp-price-bot/pricefeed"
)

const (
	markerUp   = "🟢"
	markerDown = "🔴"

	// Discord caps nicknames at 32 characters
	maxNickLen = 32
)

// Nickname renders the guild nickname for a quote: price to three decimals
// plus a direction marker. Anything past the 32 character cap is cut, even
// mid-marker.
func Nickname(q pricefeed.Quote) string {
	marker := markerUp
	if q.Change24h < 0 {
		marker = markerDown
	}

	nick := fmt.Sprintf("$%.3f %s", q.USD, marker)
	if runes := []rune(nick); len(runes) > maxNickLen {
		nick = string(runes[:maxNickLen])
	}

	return nick
}

// StatusText renders the presence line for a quote
func StatusText(q pricefeed.Quote) string {
	return fmt.Sprintf("24h %+.2f%%", q.Change24h)
}
