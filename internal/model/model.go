// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// Listing represents one marketplace listing at scrape time.
// Listings are produced fresh on every scrape and never persisted.
type Listing struct {
	ID        int64
	Title     string
	Price     string
	Condition string
	Seller    string
	URL       string
	Promoted  bool
}

// Keyword is the persisted tracking record for one search term.
// Cursor holds the id of the newest listing already notified for;
// NoCursor means nothing has been seen yet.
type Keyword struct {
	Keyword       string
	Cursor        int64
	LastCheckedAt *time.Time
	CreatedAt     time.Time
}

// NoCursor is the cursor sentinel for a keyword with no seen listings.
const NoCursor int64 = -1

// Subscriber is a chat that receives notifications. Active flips to false
// once delivery has been permanently rejected (e.g. the chat blocked the bot).
type Subscriber struct {
	ChatID    int64
	Active    bool
	CreatedAt time.Time
}

// NormalizeKeyword canonicalizes a search term for use as a registry key.
func NormalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
