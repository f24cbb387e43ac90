// Package catalog owns the authoritative, ordered collection of scanned
// items.
//
// Responsibilities: routing confirmed candidates and externally supplied
// items through session deduplication and aggregation, the single shared
// session epoch (tracker + dedup history + item collection reset as one
// unit), the live-tunable similarity threshold, and the copy-on-publish
// snapshot stream consumed by UI and export layers.
//
// Concurrency model: one writer lock serializes every mutation; readers
// only ever see immutable snapshot copies, never references into mutable
// state. The similarity threshold is a single atomically swapped value
// sampled once at the start of each add operation.
package catalog

import (
	"encoding/json"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ilpeppino/scanium-sub009/internal/dedup"
	"github.com/ilpeppino/scanium-sub009/internal/monitoring"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// DefaultSimilarityThreshold is the realtime preset's duplicate gate.
const DefaultSimilarityThreshold = 0.55

// ItemAnnotations is what an enricher may attach to an item. Identity
// fields (ID, category, box) are not annotatable by construction, so
// enrichment can never alter dedup or aggregation outcomes.
type ItemAnnotations struct {
	Label          string
	ListingPayload json.RawMessage
}

// Enricher annotates newly accepted items after the fact. Implementations
// typically call out to pricing or recognition services; the catalog
// itself never blocks on them beyond the synchronous call.
type Enricher interface {
	Enrich(item ScannedItem) (ItemAnnotations, error)
}

// Catalog is the orchestrator over tracker, deduplicator, and aggregator.
type Catalog struct {
	mu  sync.Mutex
	agg *Aggregator

	// tracker is optional; when attached, ClearAllItems resets it in the
	// same epoch as the item collection and dedup history.
	tracker  *track.Tracker
	enricher Enricher

	// threshold holds math.Float64bits of the similarity threshold.
	threshold atomic.Uint64

	// count mirrors the collection size for O(1) reads without the lock.
	count atomic.Int64

	scores []float64 // similarity scores sampled per add, for metrics

	watchMu  sync.Mutex
	watchers map[int]chan []ScannedItem
	nextSub  int

	now func() time.Time
}

// NewCatalog creates a catalog with the given similarity blend and the
// default threshold.
func NewCatalog(sim dedup.SimilarityConfig) *Catalog {
	c := &Catalog{
		agg:      NewAggregator(sim),
		watchers: make(map[int]chan []ScannedItem),
		now:      time.Now,
	}
	c.threshold.Store(math.Float64bits(DefaultSimilarityThreshold))
	return c
}

// AttachTracker ties a tracker into the catalog's session epoch so that
// ClearAllItems resets candidate state, dedup history, and the item
// collection together. Resetting one without the others is an invariant
// violation, never a valid partial state.
func (c *Catalog) AttachTracker(t *track.Tracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracker = t
}

// SetEnricher installs the post-hoc enrichment hook. Enrichment failures
// are logged, never fatal, and never alter item identity.
func (c *Catalog) SetEnricher(e Enricher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enricher = e
}

// SimilarityThreshold returns the current duplicate gate.
func (c *Catalog) SimilarityThreshold() float64 {
	return math.Float64frombits(c.threshold.Load())
}

// SetSimilarityThreshold updates the duplicate gate, clamped into [0, 1].
// The new value applies to subsequent add operations only; existing
// items are never re-evaluated.
func (c *Catalog) SetSimilarityThreshold(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.threshold.Store(math.Float64bits(v))
}

// AddItem routes one item through dedup and aggregation. An incoming ID
// equal to an existing item's ID is a no-op (the item is already
// cataloged). Returns the canonical record and whether the call merged
// into an existing item.
func (c *Catalog) AddItem(item ScannedItem) (ScannedItem, bool) {
	threshold := c.SimilarityThreshold()

	c.mu.Lock()
	if item.ID != "" && c.agg.Has(item.ID) {
		existing, _ := c.agg.Get(item.ID)
		c.mu.Unlock()
		return existing, false
	}
	result, merged := c.addLocked(item, threshold)
	snapshot := c.agg.Items()
	c.count.Store(int64(c.agg.Len()))
	c.mu.Unlock()

	c.publish(snapshot)
	return result, merged
}

// AddItems routes a batch through dedup and aggregation as one atomic
// unit: each element is compared against prior session history plus the
// already-accepted elements earlier in the same batch, in submission
// order. The threshold is sampled once for the whole batch. An empty
// batch is a no-op.
func (c *Catalog) AddItems(items []ScannedItem) []ScannedItem {
	if len(items) == 0 {
		return nil
	}
	threshold := c.SimilarityThreshold()

	c.mu.Lock()
	results := make([]ScannedItem, 0, len(items))
	for _, item := range items {
		if item.ID != "" && c.agg.Has(item.ID) {
			existing, _ := c.agg.Get(item.ID)
			results = append(results, existing)
			continue
		}
		result, _ := c.addLocked(item, threshold)
		results = append(results, result)
	}
	snapshot := c.agg.Items()
	c.count.Store(int64(c.agg.Len()))
	c.mu.Unlock()

	c.publish(snapshot)
	return results
}

// AddCandidates converts confirmed tracker candidates to items and adds
// them as one batch.
func (c *Catalog) AddCandidates(cands []track.ObjectCandidate) []ScannedItem {
	if len(cands) == 0 {
		return nil
	}
	items := make([]ScannedItem, len(cands))
	for i, cand := range cands {
		items[i] = NewItemFromCandidate(cand)
	}
	return c.AddItems(items)
}

// addLocked performs one dedup-gated insert or merge. Callers hold c.mu.
func (c *Catalog) addLocked(item ScannedItem, threshold float64) (ScannedItem, bool) {
	result, merged, score := c.agg.AddOrMerge(item, threshold, c.now())
	c.scores = append(c.scores, score)

	if !merged && c.enricher != nil {
		if ann, err := c.enricher.Enrich(result); err != nil {
			monitoring.Logf("catalog: enrichment failed for item %s: %v", result.ID, err)
		} else {
			c.agg.Update(result.ID, func(it *ScannedItem) {
				if ann.Label != "" {
					it.Label = ann.Label
				}
				if ann.ListingPayload != nil {
					it.Listing.Payload = ann.ListingPayload
				}
			})
			result, _ = c.agg.Get(result.ID)
		}
	}
	return result, merged
}

// RemoveItem removes one item by ID; unknown IDs are a no-op. The dedup
// history for the removed shape is kept, so a subsequent visually
// identical detection is accepted as a new item.
func (c *Catalog) RemoveItem(id string) bool {
	c.mu.Lock()
	removed := c.agg.Remove(id)
	snapshot := c.agg.Items()
	c.count.Store(int64(c.agg.Len()))
	c.mu.Unlock()

	if removed {
		c.publish(snapshot)
	}
	return removed
}

// RemoveStaleItems removes items last touched before now-maxAge and
// purges their dedup history. Time is caller-supplied; the catalog owns
// no timers.
func (c *Catalog) RemoveStaleItems(now time.Time, maxAge time.Duration) []string {
	c.mu.Lock()
	removed := c.agg.RemoveStale(now, maxAge)
	snapshot := c.agg.Items()
	c.count.Store(int64(c.agg.Len()))
	c.mu.Unlock()

	if len(removed) > 0 {
		c.publish(snapshot)
	}
	return removed
}

// ClearAllItems atomically empties the collection and resets aggregation
// stats, dedup history, session metrics, and the attached tracker.
func (c *Catalog) ClearAllItems() {
	c.mu.Lock()
	c.agg.Clear()
	c.scores = nil
	if c.tracker != nil {
		c.tracker.Reset()
	}
	c.count.Store(0)
	c.mu.Unlock()

	c.publish(nil)
}

// GetItemCount returns the collection size. O(1) and always consistent
// with the published snapshots.
func (c *Catalog) GetItemCount() int {
	return int(c.count.Load())
}

// GetItem returns a copy of the item and whether it exists. Unknown IDs
// are a normal not-found outcome, never an error.
func (c *Catalog) GetItem(id string) (ScannedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.Get(id)
}

// GetListingStatus returns the item's listing metadata and whether the
// item exists.
func (c *Catalog) GetListingStatus(id string) (ListingInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.agg.Get(id)
	if !ok {
		return ListingInfo{}, false
	}
	return item.Listing, true
}

// UpdateListingStatus mutates exactly one item's listing metadata in
// place. Empty listingID/listingURL leave the stored values unchanged.
// Returns false for unknown IDs.
func (c *Catalog) UpdateListingStatus(id string, status ListingStatus, listingID, listingURL string) bool {
	c.mu.Lock()
	ok := c.agg.Update(id, func(item *ScannedItem) {
		item.Listing.Status = status
		if listingID != "" {
			item.Listing.ListingID = listingID
		}
		if listingURL != "" {
			item.Listing.ListingURL = listingURL
		}
	})
	snapshot := c.agg.Items()
	c.mu.Unlock()

	if ok {
		c.publish(snapshot)
	}
	return ok
}

// Items returns a snapshot of the collection in stable first-acceptance
// order. Merges update records in place without repositioning them.
func (c *Catalog) Items() []ScannedItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.Items()
}

// GetAggregationStats returns the session's aggregation counters.
func (c *Catalog) GetAggregationStats() AggregationStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.Stats()
}

// Watch subscribes to catalog snapshots. The channel carries the latest
// full snapshot; a slow consumer sees only the most recent value, never
// a backlog. The returned cancel function must be called to release the
// subscription.
func (c *Catalog) Watch() (<-chan []ScannedItem, func()) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan []ScannedItem, 1)
	c.watchers[id] = ch

	cancel := func() {
		c.watchMu.Lock()
		defer c.watchMu.Unlock()
		if _, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// publish pushes a snapshot to every watcher, replacing any undelivered
// previous value.
func (c *Catalog) publish(snapshot []ScannedItem) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	for _, ch := range c.watchers {
		select {
		case <-ch: // drop the stale snapshot
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
