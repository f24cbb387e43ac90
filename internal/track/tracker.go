// Package track owns the frame-level confirmation state machine of the
// scanning pipeline.
//
// Responsibilities: matching raw per-frame detections to accumulating
// candidates (vendor tracking ID first, spatial overlap as fallback),
// candidate lifecycle (creation, confirmation, expiry), and emitting each
// confirmed candidate exactly once.
//
// Dependency rule: track may depend on geom, but never on dedup or
// catalog. Session-level deduplication happens above this layer.
package track

import (
	"fmt"
	"sync"

	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/monitoring"
)

// CandidateState represents the lifecycle state of a candidate.
type CandidateState string

const (
	CandidateTentative CandidateState = "tentative" // Accumulating frames, not yet visible outside the tracker
	CandidateConfirmed CandidateState = "confirmed" // Reached the frame threshold, emitted once
	CandidateExpired   CandidateState = "expired"   // Aged out, pending removal
)

// TrackerConfig holds configuration parameters for the tracker.
type TrackerConfig struct {
	MinFramesToConfirm int     // Frames a candidate must be seen before confirmation
	MinConfidence      float64 // Detections below this confidence are dropped
	MinBoxArea         float64 // Detections with a smaller normalized box area are dropped
	MaxFrameGap        int     // Upper bound on frames a candidate may go unseen
	MinMatchScore      float64 // Minimum IoU for a spatial detection-to-candidate match
	ExpiryFrames       int     // Frames unseen before a candidate is evicted
}

// DefaultTrackerConfig returns the production tracker configuration used
// by the realtime preset.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MinFramesToConfirm: 3,
		MinConfidence:      0.5,
		MinBoxArea:         0.0005,
		MaxFrameGap:        10,
		MinMatchScore:      0.3,
		ExpiryFrames:       5,
	}
}

// ObjectCandidate is a single physical object accumulating evidence
// across frames. Candidates are tracker-owned: created on first sight,
// mutated every frame, destroyed on expiry or Reset.
type ObjectCandidate struct {
	// InternalID is unique within one tracker session only. Reset
	// restarts the namespace.
	InternalID string
	TrackingID string // Latest vendor tracking ID, empty if never assigned
	State      CandidateState

	Category Category
	Label    string

	// MaxConfidence is the highest confidence observed for this
	// candidate over its lifetime.
	MaxConfidence float64

	// Box and Thumbnail always hold the most recent observation.
	Box       geom.NormalizedRect
	Thumbnail *Thumbnail

	FramesSeen          int
	FramesSinceLastSeen int

	// Confirmed is set on the frame FramesSeen first reaches the
	// confirmation threshold. A confirmed candidate is never
	// re-emitted.
	Confirmed bool
}

// Tracker turns noisy per-frame detections into confirmed candidates.
// All methods are safe for concurrent use; mutations serialize on one
// writer lock.
type Tracker struct {
	mu sync.RWMutex

	candidates map[string]*ObjectCandidate
	nextID     int64
	config     TrackerConfig
}

// NewTracker creates a tracker with the specified configuration.
func NewTracker(config TrackerConfig) *Tracker {
	return &Tracker{
		candidates: make(map[string]*ObjectCandidate),
		nextID:     1,
		config:     config,
	}
}

// Config returns the tracker's configuration.
func (t *Tracker) Config() TrackerConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.config
}

// ProcessFrame ingests one frame of detections and returns copies of the
// candidates confirmed by this frame. Each candidate is returned exactly
// once, on the frame its FramesSeen first reaches MinFramesToConfirm.
// An empty detection list still advances aging and eviction.
func (t *Tracker) ProcessFrame(detections []DetectionInfo) []ObjectCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Step 1: Drop detections below the confidence or area floor.
	survivors := make([]DetectionInfo, 0, len(detections))
	for _, d := range detections {
		d.Box = d.Box.Clamp()
		if d.Confidence < t.config.MinConfidence {
			continue
		}
		if d.Area() < t.config.MinBoxArea {
			continue
		}
		survivors = append(survivors, d)
	}

	// Step 2: Associate detections to live candidates.
	matched := make(map[string]bool, len(t.candidates))
	var confirmed []ObjectCandidate

	for _, d := range survivors {
		cand := t.associate(d, matched)
		if cand == nil {
			cand = t.initCandidate(d)
			matched[cand.InternalID] = true
			// A config of 1 frame confirms immediately.
			if t.maybeConfirm(cand) {
				confirmed = append(confirmed, *cand)
			}
			continue
		}

		// Step 3: Fold the observation into the matched candidate.
		matched[cand.InternalID] = true
		cand.FramesSeen++
		cand.FramesSinceLastSeen = 0
		if d.Confidence > cand.MaxConfidence {
			cand.MaxConfidence = d.Confidence
		}
		cand.Box = d.Box
		if d.Thumbnail != nil {
			cand.Thumbnail = d.Thumbnail
		}
		if d.Label != "" {
			cand.Label = d.Label
		}
		if d.TrackingID != "" {
			cand.TrackingID = d.TrackingID
		}

		if t.maybeConfirm(cand) {
			confirmed = append(confirmed, *cand)
		}
	}

	// Step 4: Age unmatched candidates and evict the stale ones.
	expiry := t.config.ExpiryFrames
	if t.config.MaxFrameGap > 0 && t.config.MaxFrameGap < expiry {
		expiry = t.config.MaxFrameGap
	}
	for id, cand := range t.candidates {
		if matched[id] {
			continue
		}
		cand.FramesSinceLastSeen++
		if cand.FramesSinceLastSeen > expiry {
			cand.State = CandidateExpired
			if cand.Confirmed {
				monitoring.Logf("track: evicting confirmed candidate %s after %d unseen frames", id, cand.FramesSinceLastSeen)
			}
			delete(t.candidates, id)
		}
	}

	return confirmed
}

// associate finds the live candidate matching a detection. Vendor
// tracking ID equality wins when both sides carry one; otherwise the
// best spatial overlap at or above MinMatchScore. Returns nil when the
// detection matches nothing.
func (t *Tracker) associate(d DetectionInfo, taken map[string]bool) *ObjectCandidate {
	if d.TrackingID != "" {
		for id, cand := range t.candidates {
			if taken[id] {
				continue
			}
			if cand.TrackingID != "" && cand.TrackingID == d.TrackingID {
				return cand
			}
		}
	}

	var best *ObjectCandidate
	bestScore := t.config.MinMatchScore
	for id, cand := range t.candidates {
		if taken[id] {
			continue
		}
		score := geom.IoU(cand.Box, d.Box)
		if score >= bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

// maybeConfirm flips a candidate to confirmed on the frame it first
// reaches the threshold. Returns true only on that frame.
func (t *Tracker) maybeConfirm(cand *ObjectCandidate) bool {
	if cand.Confirmed || cand.FramesSeen < t.config.MinFramesToConfirm {
		return false
	}
	cand.Confirmed = true
	cand.State = CandidateConfirmed
	return true
}

// initCandidate creates a new tentative candidate from an unmatched
// detection.
func (t *Tracker) initCandidate(d DetectionInfo) *ObjectCandidate {
	internalID := fmt.Sprintf("cand_%d", t.nextID)
	t.nextID++

	cand := &ObjectCandidate{
		InternalID:    internalID,
		TrackingID:    d.TrackingID,
		State:         CandidateTentative,
		Category:      d.Category,
		Label:         d.Label,
		MaxConfidence: d.Confidence,
		Box:           d.Box,
		Thumbnail:     d.Thumbnail,
		FramesSeen:    1,
	}
	t.candidates[internalID] = cand
	return cand
}

// Reset drops all live candidates and restarts the InternalID namespace.
// The next session's IDs may collide with the previous session's; callers
// holding candidates across a reset must not mix the two.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.candidates = make(map[string]*ObjectCandidate)
	t.nextID = 1
}

// ActiveCandidates returns copies of all live candidates, confirmed or
// tentative.
func (t *Tracker) ActiveCandidates() []ObjectCandidate {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ObjectCandidate, 0, len(t.candidates))
	for _, cand := range t.candidates {
		out = append(out, *cand)
	}
	return out
}

// CandidateCount returns counts of live candidates by state.
func (t *Tracker) CandidateCount() (total, tentative, confirmed int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, cand := range t.candidates {
		total++
		switch cand.State {
		case CandidateTentative:
			tentative++
		case CandidateConfirmed:
			confirmed++
		}
	}
	return
}
