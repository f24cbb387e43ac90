package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/ilpeppino/scanium-sub009/internal/dedup"
)

// Aggregator folds accepted duplicates into canonical item records and
// keeps the per-session aggregation counters. It owns the dedup history
// alongside the items so the two can never diverge: every path that
// drops an item or an entry goes through one Aggregator method.
//
// The Aggregator is not self-locking; the Catalog's writer lock
// serializes all access.
type Aggregator struct {
	dedup *dedup.Deduplicator
	items map[string]*ScannedItem
	order []string // item IDs in first-acceptance order
	stats AggregationStats
}

// NewAggregator creates an aggregator over a fresh dedup history.
func NewAggregator(sim dedup.SimilarityConfig) *Aggregator {
	return &Aggregator{
		dedup: dedup.NewDeduplicator(sim),
		items: make(map[string]*ScannedItem),
	}
}

// AddOrMerge routes one incoming item through the session deduplicator.
// A new object gets a fresh record (keeping the incoming ID, or a
// generated one when empty); a duplicate merges into the existing record
// in place. Returns a copy of the canonical record, whether it was a
// merge, and the best similarity score observed (for session metrics).
//
// threshold is sampled once by the caller; now stamps LastTouched.
func (a *Aggregator) AddOrMerge(item ScannedItem, threshold float64, now time.Time) (ScannedItem, bool, float64) {
	s := dedup.Sighting{Category: item.Category, Box: item.Box, Thumbnail: item.Thumbnail}
	matchID, score := a.dedup.BestMatch(s)

	if matchID != "" && score >= threshold {
		// Manual removal keeps dedup history, so the best match can
		// name an item that no longer exists. Such a sighting is a new
		// object, not a merge into a ghost.
		if existing, ok := a.items[matchID]; ok {
			if item.Confidence > existing.Confidence {
				existing.Confidence = item.Confidence
			}
			// The latest observation always wins for position.
			existing.Box = item.Box
			if item.Thumbnail != nil {
				existing.Thumbnail = item.Thumbnail
			}
			if item.Label != "" {
				existing.Label = item.Label
			}
			existing.LastTouched = now
			a.stats.TotalMerges++
			return *existing, true, score
		}
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Listing.Status == "" {
		item.Listing.Status = ListingNone
	}
	item.LastTouched = now

	stored := item
	a.items[stored.ID] = &stored
	a.order = append(a.order, stored.ID)
	a.dedup.Record(stored.ID, s)
	a.stats.TotalItems++
	return stored, false, score
}

// Get returns a copy of the item and whether it exists.
func (a *Aggregator) Get(id string) (ScannedItem, bool) {
	item, ok := a.items[id]
	if !ok {
		return ScannedItem{}, false
	}
	return *item, true
}

// Update applies fn to the named item in place. Returns false when the
// item does not exist.
func (a *Aggregator) Update(id string, fn func(*ScannedItem)) bool {
	item, ok := a.items[id]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// Remove drops an item by ID. The dedup history for its shape is
// deliberately kept: a later visually identical detection is a new
// object, which is the confirmed product behavior for manual removal.
func (a *Aggregator) Remove(id string) bool {
	if _, ok := a.items[id]; !ok {
		return false
	}
	delete(a.items, id)
	a.removeFromOrder(id)
	return true
}

// RemoveStale removes items last touched before now-maxAge and purges
// their dedup history so an identical object scanned later is accepted
// as new. Returns the removed IDs.
func (a *Aggregator) RemoveStale(now time.Time, maxAge time.Duration) []string {
	cutoff := now.Add(-maxAge)
	var removed []string
	for id, item := range a.items {
		if item.LastTouched.Before(cutoff) {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(a.items, id)
		a.removeFromOrder(id)
		a.dedup.Remove(id)
	}
	return removed
}

// Clear resets items, stats, and dedup history as one unit. Partial
// resets are an invariant violation: the three share a session epoch.
func (a *Aggregator) Clear() {
	a.items = make(map[string]*ScannedItem)
	a.order = nil
	a.stats = AggregationStats{}
	a.dedup.Reset()
}

// Items returns copies of all items in first-acceptance order.
func (a *Aggregator) Items() []ScannedItem {
	out := make([]ScannedItem, 0, len(a.order))
	for _, id := range a.order {
		if item, ok := a.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}

// Len returns the number of items in the catalog.
func (a *Aggregator) Len() int { return len(a.items) }

// Has reports whether an item with the given ID exists.
func (a *Aggregator) Has(id string) bool {
	_, ok := a.items[id]
	return ok
}

// Stats returns the aggregation counters.
func (a *Aggregator) Stats() AggregationStats { return a.stats }

func (a *Aggregator) removeFromOrder(id string) {
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}
