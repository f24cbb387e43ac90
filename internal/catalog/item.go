package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// ListingStatus is the marketplace listing state of a scanned item.
type ListingStatus string

const (
	ListingNone      ListingStatus = "none"      // Not listed
	ListingDraft     ListingStatus = "draft"     // Draft created, not published
	ListingPublished ListingStatus = "published" // Live listing
	ListingFailed    ListingStatus = "failed"    // Listing attempt failed
)

// ListingInfo carries the listing metadata attached to an item. Payload
// is opaque to the core: enrichment and export layers own its schema.
type ListingInfo struct {
	Status     ListingStatus   `json:"status"`
	ListingID  string          `json:"listing_id,omitempty"`
	ListingURL string          `json:"listing_url,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ScannedItem is one distinct physical object in the catalog. The ID is
// assigned on first acceptance and never changes across merges; merges
// only fold newer observations into the existing record.
type ScannedItem struct {
	ID         string              `json:"id"`
	Category   track.Category      `json:"category"`
	Label      string              `json:"label,omitempty"`
	Confidence float64             `json:"confidence"`
	Box        geom.NormalizedRect `json:"box"`
	Thumbnail  *track.Thumbnail    `json:"thumbnail,omitempty"`
	Listing    ListingInfo         `json:"listing"`

	// LastTouched is the time of the most recent acceptance or merge,
	// used by stale-item removal.
	LastTouched time.Time `json:"last_touched"`
}

// NewItemFromCandidate converts a confirmed tracker candidate into an
// item ready for the catalog. A fresh ID is assigned; the candidate's
// InternalID is session-scoped and must not leak into the catalog.
func NewItemFromCandidate(cand track.ObjectCandidate) ScannedItem {
	return ScannedItem{
		ID:         uuid.New().String(),
		Category:   cand.Category,
		Label:      cand.Label,
		Confidence: cand.MaxConfidence,
		Box:        cand.Box,
		Thumbnail:  cand.Thumbnail,
		Listing:    ListingInfo{Status: ListingNone},
	}
}

// AggregationStats counts catalog outcomes. Both counters are monotonic
// and reset only by Clear.
type AggregationStats struct {
	TotalItems  int64 `json:"total_items"`
	TotalMerges int64 `json:"total_merges"`
}
