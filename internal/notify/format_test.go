package notify

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"carouspot/internal/model"
)

func TestFormatListing(t *testing.T) {
	tests := []struct {
		name    string
		listing model.Listing
		want    string
	}{
		{
			name: "short title",
			listing: model.Listing{
				ID:        5503290,
				Title:     "Xbox Series S",
				Price:     "S$380",
				Condition: "Lightly used",
				URL:       "https://www.carousell.sg/p/xbox-series-s-5503290/",
			},
			want: "<b>Xbox Series S\n</b>S$380 (Lightly used)\nhttps://www.carousell.sg/p/xbox-series-s-5503290/",
		},
		{
			name: "long title truncated with ellipsis",
			listing: model.Listing{
				Title:     strings.Repeat("x", 50),
				Price:     "S$1",
				Condition: "New",
				URL:       "https://example.com/p/x-1/",
			},
			want: "<b>" + strings.Repeat("x", 36) + "...\n</b>S$1 (New)\nhttps://example.com/p/x-1/",
		},
		{
			name: "html in fields escaped",
			listing: model.Listing{
				Title:     "Cables <new>",
				Price:     "S$5",
				Condition: "Brand new & sealed",
				URL:       "https://example.com/p/cables-2/",
			},
			want: "<b>Cables &lt;new&gt;\n</b>S$5 (Brand new &amp; sealed)\nhttps://example.com/p/cables-2/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatListing(tt.listing)); diff != "" {
				t.Errorf("block mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender(t *testing.T) {
	listings := []model.Listing{
		{ID: 102, Title: "Xbox Series X", Price: "S$650", Condition: "Like new", URL: "https://example.com/p/a-102/"},
		{ID: 101, Title: "Xbox One", Price: "S$200", Condition: "Well used", URL: "https://example.com/p/b-101/"},
	}

	chunks := Render("xbox", listings)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}

	msg := chunks[0]
	if !strings.HasPrefix(msg, "I found 2 new listings for xbox!") {
		t.Errorf("missing header, got: %q", msg)
	}
	for _, l := range listings {
		if !strings.Contains(msg, FormatListing(l)) {
			t.Errorf("missing block for listing %d", l.ID)
		}
	}
	// Blocks appear in input order.
	if strings.Index(msg, "a-102") > strings.Index(msg, "b-101") {
		t.Error("blocks out of order")
	}
}

func TestRenderEscapesKeywordInHeader(t *testing.T) {
	listings := []model.Listing{
		{ID: 101, Title: "PS5 disc edition", Price: "S$600", Condition: "Brand new", URL: "https://example.com/p/a-101/"},
	}

	chunks := Render("ps5 <brand new & sealed>", listings)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}

	// Messages go out with HTML parse mode, so the keyword must be
	// entity-escaped like every other text field.
	wantHeader := "I found 1 new listings for ps5 &lt;brand new &amp; sealed&gt;!"
	if !strings.HasPrefix(chunks[0], wantHeader) {
		t.Errorf("header not escaped:\n got: %q\nwant prefix: %q", chunks[0], wantHeader)
	}
	if strings.Contains(chunks[0], "<brand") {
		t.Errorf("raw keyword markup leaked into message: %q", chunks[0])
	}
}

func TestRenderEmptyBatch(t *testing.T) {
	if got := Render("xbox", nil); got != nil {
		t.Errorf("expected nil for empty batch, got %v", got)
	}
}

func TestRenderSplitsLargeBatches(t *testing.T) {
	var listings []model.Listing
	for i := 0; i < 200; i++ {
		listings = append(listings, model.Listing{
			ID:        int64(1000 + i),
			Title:     strings.Repeat("t", 30),
			Price:     "S$100",
			Condition: "Brand new",
			URL:       "https://www.carousell.sg/p/some-fairly-long-listing-slug-here-1000/",
		})
	}

	chunks := Render("xbox", listings)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for 200 listings, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > MaxMessageLength {
			t.Errorf("chunk %d exceeds cap: %d", i, len(c))
		}
	}
}
