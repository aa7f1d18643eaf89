// Package notify renders new-listing notifications and delivers them to
// subscribers.
package notify

import (
	"fmt"
	"html"
	"strings"

	"carouspot/internal/model"
)

const (
	// MaxMessageLength is the Telegram message payload cap.
	MaxMessageLength = 4096

	blockSeparator = "\n\n"
	maxTitleLength = 36
)

// FormatListing renders one listing as an HTML notification block.
func FormatListing(l model.Listing) string {
	title := l.Title
	if len(title) > maxTitleLength {
		title = truncate(title, maxTitleLength) + "..."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s\n</b>", html.EscapeString(title))
	fmt.Fprintf(&b, "%s (%s)\n", html.EscapeString(l.Price), html.EscapeString(l.Condition))
	b.WriteString(l.URL)
	return b.String()
}

// Render builds the notification for a batch of new listings: a header with
// the keyword and count, then one block per listing, split into messages that
// respect MaxMessageLength. Returns nil for an empty batch.
func Render(keyword string, listings []model.Listing) []string {
	if len(listings) == 0 {
		return nil
	}

	blocks := make([]string, 0, len(listings)+1)
	blocks = append(blocks, fmt.Sprintf("I found %d new listings for %s!", len(listings), html.EscapeString(keyword)))
	for _, l := range listings {
		blocks = append(blocks, FormatListing(l))
	}

	return SplitBlocks(blocks, MaxMessageLength)
}
