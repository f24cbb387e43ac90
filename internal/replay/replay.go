// Package replay drives the scanning pipeline from a recorded detection
// log, for offline tuning and reporting.
//
// A detection log is a JSON array of frames, each frame an array of
// detections, exactly as an app would feed ProcessFrame during a live
// session.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ilpeppino/scanium-sub009/internal/catalog"
	"github.com/ilpeppino/scanium-sub009/internal/config"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// FrameStats captures the pipeline state after one replayed frame.
type FrameStats struct {
	Frame          int   `json:"frame"`
	Detections     int   `json:"detections"`
	LiveCandidates int   `json:"live_candidates"`
	ItemCount      int   `json:"item_count"`
	TotalMerges    int64 `json:"total_merges"`
}

// LoadFrames reads a detection log from a JSON file.
func LoadFrames(path string) ([][]track.DetectionInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read detection log: %w", err)
	}
	var frames [][]track.DetectionInfo
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse detection log: %w", err)
	}
	return frames, nil
}

// Run replays frames through a fresh tracker and catalog built from the
// tuning config, returning the catalog and per-frame statistics.
func Run(frames [][]track.DetectionInfo, tuning *config.TuningConfig) (*catalog.Catalog, []FrameStats, error) {
	if tuning == nil {
		var err error
		if tuning, err = config.Preset(""); err != nil {
			return nil, nil, err
		}
	}

	tracker := track.NewTracker(tuning.TrackerConfig())
	cat := catalog.NewCatalog(tuning.SimilarityConfig())
	cat.AttachTracker(tracker)
	cat.SetSimilarityThreshold(tuning.Threshold())

	stats := make([]FrameStats, 0, len(frames))
	for i, detections := range frames {
		confirmed := tracker.ProcessFrame(detections)
		cat.AddCandidates(confirmed)

		live, _, _ := tracker.CandidateCount()
		stats = append(stats, FrameStats{
			Frame:          i + 1,
			Detections:     len(detections),
			LiveCandidates: live,
			ItemCount:      cat.GetItemCount(),
			TotalMerges:    cat.GetAggregationStats().TotalMerges,
		})
	}
	return cat, stats, nil
}
