// Package source implements the Carousell listing source: it turns a keyword
// into the current snapshot of search results.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"carouspot/internal/model"
)

const (
	defaultBaseURL = "https://www.carousell.sg"
	searchPath     = "/ds/filter/cf/4.0/search/"

	// Sort by "recent": newest listings first.
	sortRecent = "3"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches listing snapshots from the Carousell search API.
type Client struct {
	client  HTTPClient
	baseURL string
}

// New creates a Client with the given HTTP client.
func New(client HTTPClient) *Client {
	return &Client{client: client, baseURL: defaultBaseURL}
}

// NewWithBaseURL creates a Client against a custom site base (useful for testing).
func NewWithBaseURL(client HTTPClient, baseURL string) *Client {
	return &Client{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type searchRequest struct {
	Query            string         `json:"query"`
	Count            int            `json:"count"`
	CountryCode      string         `json:"countryCode"`
	BestMatchEnabled bool           `json:"bestMatchEnabled"`
	SortParam        searchSort     `json:"sortParam"`
	Filters          []searchFilter `json:"filters"`
}

type searchSort struct {
	FieldName string `json:"fieldName"`
}

type searchFilter struct{}

type searchResponse struct {
	Data struct {
		Results []struct {
			// Absent for spotlight promotions ("promotedListingCard").
			ListingCard *listingCard `json:"listingCard"`
		} `json:"results"`
	} `json:"data"`
}

type listingCard struct {
	ID     json.Number `json:"id"`
	Seller struct {
		Username string `json:"username"`
	} `json:"seller"`
	AboveFold []cardComponent `json:"aboveFold"`
	BelowFold []cardComponent `json:"belowFold"`
}

type cardComponent struct {
	Component     string `json:"component"`
	StringContent string `json:"stringContent"`
}

// Search returns the current snapshot of listings for keyword. The keyword is
// quoted so the marketplace matches the exact phrase. No ordering guarantee
// is made on the returned slice.
func (c *Client) Search(ctx context.Context, keyword string) ([]model.Listing, error) {
	payload := searchRequest{
		Query:       fmt.Sprintf("%q", keyword),
		Count:       40,
		CountryCode: "SG",
		SortParam:   searchSort{FieldName: sortRecent},
		Filters:     []searchFilter{},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CarouSpotBot/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	var listings []model.Listing
	for _, r := range parsed.Data.Results {
		l, ok := c.toListing(r.ListingCard)
		if !ok {
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// toListing maps a listing card to the domain type. Spotlight entries (no
// card) and cards missing the expected fields are dropped from the snapshot.
func (c *Client) toListing(card *listingCard) (model.Listing, bool) {
	if card == nil || len(card.BelowFold) < 4 {
		return model.Listing{}, false
	}
	id, err := card.ID.Int64()
	if err != nil {
		return model.Listing{}, false
	}

	title := card.BelowFold[0].StringContent
	promoted := len(card.AboveFold) > 0 && card.AboveFold[0].Component == "active_bump"

	return model.Listing{
		ID:        id,
		Title:     title,
		Price:     card.BelowFold[1].StringContent,
		Condition: card.BelowFold[3].StringContent,
		Seller:    card.Seller.Username,
		URL:       fmt.Sprintf("%s/p/%s-%d/", c.baseURL, slugify(title), id),
		Promoted:  promoted,
	}, true
}

// slugify lowercases s and collapses every non-alphanumeric run into a single
// hyphen, matching the marketplace's listing URL scheme.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
