// Package dedup owns session-level duplicate detection for confirmed
// candidates.
//
// Responsibilities: deciding whether a newly sighted object is the same
// physical object as one already accepted this session, even when the
// vendor tracking ID changed between sightings. The decision blends a
// closed set of comparators (category equality, thumbnail size ratio,
// bounding-box overlap) into one weighted score; there is no dynamic
// predicate registry.
//
// Dependency rule: dedup may depend on geom and track, never on catalog.
// Callers serialize access; the catalog's writer lock is the single
// writer for dedup history.
package dedup

import (
	"math"

	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// SimilarityConfig holds the weights and tolerances of the duplicate
// score. Weights should sum to 1 so the blended score stays in [0, 1].
type SimilarityConfig struct {
	// OverlapWeight scales the bounding-box IoU term.
	OverlapWeight float64
	// SizeWeight scales the thumbnail size-ratio term.
	SizeWeight float64
	// SizeTolerance is the maximum relative difference in linear
	// thumbnail scale before two sightings can never be duplicates.
	// 0.4 means a 40% size delta disqualifies the pair outright.
	SizeTolerance float64
}

// DefaultSimilarityConfig returns the blend used by the realtime preset.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{
		OverlapWeight: 0.5,
		SizeWeight:    0.5,
		SizeTolerance: 0.4,
	}
}

// Sighting is the footprint of one observed object: exactly the fields
// the similarity comparators consume. Both confirmed tracker candidates
// and externally supplied items reduce to a Sighting.
type Sighting struct {
	Category  track.Category
	Box       geom.NormalizedRect
	Thumbnail *track.Thumbnail
}

// SightingFromCandidate reduces a confirmed candidate to its dedup
// footprint.
func SightingFromCandidate(cand track.ObjectCandidate) Sighting {
	return Sighting{
		Category:  cand.Category,
		Box:       cand.Box,
		Thumbnail: cand.Thumbnail,
	}
}

// Entry is one accepted item's footprint in the session history.
type Entry struct {
	ItemID   string
	Sighting Sighting
}

// Deduplicator gates new sightings against the session history.
// History applies only within one session: Reset starts a new one.
type Deduplicator struct {
	config  SimilarityConfig
	history []Entry
}

// NewDeduplicator creates a deduplicator with the given blend.
func NewDeduplicator(config SimilarityConfig) *Deduplicator {
	return &Deduplicator{config: config}
}

// Config returns the similarity blend in use.
func (d *Deduplicator) Config() SimilarityConfig { return d.config }

// BestMatch returns the history item the sighting most resembles and its
// score. Returns "" and 0 when nothing in the history is comparable.
//
// A sighting without a thumbnail never matches anything: with no pixels
// to compare, treating it as a duplicate risks silently dropping a real
// object.
func (d *Deduplicator) BestMatch(s Sighting) (itemID string, score float64) {
	if s.Thumbnail == nil {
		return "", 0
	}
	for _, entry := range d.history {
		// Ties go to the most recent entry: after a manual removal the
		// same shape may appear twice in the history, and the later,
		// still-live item must win.
		if got := d.Score(s, entry.Sighting); got > 0 && got >= score {
			score = got
			itemID = entry.ItemID
		}
	}
	return itemID, score
}

// ShouldAccept decides whether a sighting is a new object or a duplicate
// of an already-accepted item. threshold is sampled once by the caller
// at the start of the add operation. Returns the item ID the sighting
// duplicates and false, or "" and true to accept as new.
func (d *Deduplicator) ShouldAccept(s Sighting, threshold float64) (duplicateOf string, accept bool) {
	itemID, score := d.BestMatch(s)
	if itemID != "" && score >= threshold {
		return itemID, false
	}
	return "", true
}

// Score computes the blended similarity of two sightings, in [0, 1].
// Cross-category pairs, pairs missing a thumbnail on either side, and
// pairs whose thumbnail scale differs beyond SizeTolerance score 0.
func (d *Deduplicator) Score(a, b Sighting) float64 {
	if a.Category != b.Category {
		return 0
	}
	if a.Thumbnail == nil || b.Thumbnail == nil {
		return 0
	}

	sizeRatio := thumbnailScaleRatio(a.Thumbnail, b.Thumbnail)
	if 1-sizeRatio > d.config.SizeTolerance {
		return 0
	}

	overlap := geom.IoU(a.Box, b.Box)
	return d.config.OverlapWeight*overlap + d.config.SizeWeight*sizeRatio
}

// Record adds an accepted item to the session history. It must be called
// before the next ShouldAccept of the same batch so that earlier batch
// elements gate later ones in submission order.
func (d *Deduplicator) Record(itemID string, s Sighting) {
	d.history = append(d.history, Entry{ItemID: itemID, Sighting: s})
}

// Remove purges all history for an item so an identical object scanned
// later is accepted as new. Used by stale-item removal; plain item
// removal deliberately leaves history in place.
func (d *Deduplicator) Remove(itemID string) {
	kept := d.history[:0]
	for _, entry := range d.history {
		if entry.ItemID != itemID {
			kept = append(kept, entry)
		}
	}
	d.history = kept
}

// Reset drops the whole session history, permitting re-acceptance of
// previously seen shapes.
func (d *Deduplicator) Reset() {
	d.history = nil
}

// HistorySize returns the number of entries in the session history.
func (d *Deduplicator) HistorySize() int { return len(d.history) }

// thumbnailScaleRatio returns the linear scale ratio of two thumbnails
// in [0, 1], where 1 means identical size. The linear scale is the
// geometric mean of the dimension ratios, so a crop twice as wide and
// twice as tall ratios to 0.5, not 0.25.
func thumbnailScaleRatio(a, b *track.Thumbnail) float64 {
	areaA := float64(a.Width) * float64(a.Height)
	areaB := float64(b.Width) * float64(b.Height)
	if areaA <= 0 || areaB <= 0 {
		return 0
	}
	if areaA < areaB {
		return math.Sqrt(areaA / areaB)
	}
	return math.Sqrt(areaB / areaA)
}
