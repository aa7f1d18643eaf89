// Package detect implements the change filter that decides which listings
// in a snapshot are new relative to a keyword's cursor.
package detect

import (
	"sort"

	"carouspot/internal/model"
)

// New returns the listings from snapshot that have not been notified for yet,
// newest first, together with the next cursor value.
//
// A listing is new iff its id is greater than cursor and it is not a promoted
// placement. Promoted listings never appear in the result and never advance
// the cursor, even when their id exceeds it: a promoted-only delta is
// re-evaluated (and re-excluded) on every cycle until a genuine listing with
// a higher id shows up. The next cursor is the maximum id among the kept
// listings, or the unchanged cursor when nothing was kept.
//
// New is pure: it does not modify snapshot and calling it again with the same
// inputs yields the same outputs.
func New(snapshot []model.Listing, cursor int64) ([]model.Listing, int64) {
	var kept []model.Listing
	next := cursor
	for _, l := range snapshot {
		if l.Promoted || l.ID <= cursor {
			continue
		}
		kept = append(kept, l)
		if l.ID > next {
			next = l.ID
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID > kept[j].ID })
	return kept, next
}

// SeedCursor returns the cursor a freshly tracked keyword should start from:
// the id of the newest non-promoted listing in the snapshot. Seeding from the
// current snapshot keeps a new subscriber from being flooded with historical
// results. Returns 0 when the snapshot holds no such listing, so any future
// listing still counts as new.
func SeedCursor(snapshot []model.Listing) int64 {
	var seed int64
	for _, l := range snapshot {
		if !l.Promoted && l.ID > seed {
			seed = l.ID
		}
	}
	return seed
}
