// Package config loads tuning parameters for the scanning pipeline.
//
// All fields are pointers so a partial JSON file overrides only what it
// sets; everything else keeps the preset's value. The same schema is
// used for startup configuration and runtime re-tuning.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilpeppino/scanium-sub009/internal/dedup"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// TuningConfig is the root tuning document for tracker, deduplicator,
// and catalog parameters.
type TuningConfig struct {
	// Tracker params
	MinFramesToConfirm *int     `json:"min_frames_to_confirm,omitempty"`
	MinConfidence      *float64 `json:"min_confidence,omitempty"`
	MinBoxArea         *float64 `json:"min_box_area,omitempty"`
	MaxFrameGap        *int     `json:"max_frame_gap,omitempty"`
	MinMatchScore      *float64 `json:"min_match_score,omitempty"`
	ExpiryFrames       *int     `json:"expiry_frames,omitempty"`

	// Similarity params
	OverlapWeight *float64 `json:"overlap_weight,omitempty"`
	SizeWeight    *float64 `json:"size_weight,omitempty"`
	SizeTolerance *float64 `json:"size_tolerance,omitempty"`

	// Catalog params
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// RealtimePreset returns the tuning used for live camera sessions:
// three-frame confirmation and a 0.55 duplicate gate.
func RealtimePreset() *TuningConfig {
	return &TuningConfig{
		MinFramesToConfirm:  ptrInt(3),
		MinConfidence:       ptrFloat64(0.5),
		MinBoxArea:          ptrFloat64(0.0005),
		MaxFrameGap:         ptrInt(10),
		MinMatchScore:       ptrFloat64(0.3),
		ExpiryFrames:        ptrInt(5),
		OverlapWeight:       ptrFloat64(0.5),
		SizeWeight:          ptrFloat64(0.5),
		SizeTolerance:       ptrFloat64(0.4),
		SimilarityThreshold: ptrFloat64(0.55),
	}
}

// BatchPreset returns the tuning used for offline replays, where frames
// arrive without drops: confirmation is cheaper and the duplicate gate
// slightly stricter.
func BatchPreset() *TuningConfig {
	preset := RealtimePreset()
	preset.MinFramesToConfirm = ptrInt(2)
	preset.ExpiryFrames = ptrInt(3)
	preset.SimilarityThreshold = ptrFloat64(0.6)
	return preset
}

// Preset returns a named preset, defaulting to realtime for the empty
// name. Unknown names are an error.
func Preset(name string) (*TuningConfig, error) {
	switch name {
	case "", "realtime":
		return RealtimePreset(), nil
	case "batch":
		return BatchPreset(), nil
	default:
		return nil, fmt.Errorf("unknown tuning preset %q", name)
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields
// omitted from the file stay nil, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg TuningConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Merge overlays non-nil fields of other onto a copy of c. The receiver
// is not modified.
func (c *TuningConfig) Merge(other *TuningConfig) *TuningConfig {
	merged := *c
	if other == nil {
		return &merged
	}
	if other.MinFramesToConfirm != nil {
		merged.MinFramesToConfirm = other.MinFramesToConfirm
	}
	if other.MinConfidence != nil {
		merged.MinConfidence = other.MinConfidence
	}
	if other.MinBoxArea != nil {
		merged.MinBoxArea = other.MinBoxArea
	}
	if other.MaxFrameGap != nil {
		merged.MaxFrameGap = other.MaxFrameGap
	}
	if other.MinMatchScore != nil {
		merged.MinMatchScore = other.MinMatchScore
	}
	if other.ExpiryFrames != nil {
		merged.ExpiryFrames = other.ExpiryFrames
	}
	if other.OverlapWeight != nil {
		merged.OverlapWeight = other.OverlapWeight
	}
	if other.SizeWeight != nil {
		merged.SizeWeight = other.SizeWeight
	}
	if other.SizeTolerance != nil {
		merged.SizeTolerance = other.SizeTolerance
	}
	if other.SimilarityThreshold != nil {
		merged.SimilarityThreshold = other.SimilarityThreshold
	}
	return &merged
}

// TrackerConfig materializes the tracker parameters, starting from the
// package defaults for any unset field.
func (c *TuningConfig) TrackerConfig() track.TrackerConfig {
	out := track.DefaultTrackerConfig()
	if c.MinFramesToConfirm != nil {
		out.MinFramesToConfirm = *c.MinFramesToConfirm
	}
	if c.MinConfidence != nil {
		out.MinConfidence = *c.MinConfidence
	}
	if c.MinBoxArea != nil {
		out.MinBoxArea = *c.MinBoxArea
	}
	if c.MaxFrameGap != nil {
		out.MaxFrameGap = *c.MaxFrameGap
	}
	if c.MinMatchScore != nil {
		out.MinMatchScore = *c.MinMatchScore
	}
	if c.ExpiryFrames != nil {
		out.ExpiryFrames = *c.ExpiryFrames
	}
	return out
}

// SimilarityConfig materializes the dedup blend, starting from the
// package defaults for any unset field.
func (c *TuningConfig) SimilarityConfig() dedup.SimilarityConfig {
	out := dedup.DefaultSimilarityConfig()
	if c.OverlapWeight != nil {
		out.OverlapWeight = *c.OverlapWeight
	}
	if c.SizeWeight != nil {
		out.SizeWeight = *c.SizeWeight
	}
	if c.SizeTolerance != nil {
		out.SizeTolerance = *c.SizeTolerance
	}
	return out
}

// Threshold returns the similarity threshold, falling back to the
// realtime default when unset.
func (c *TuningConfig) Threshold() float64 {
	if c.SimilarityThreshold != nil {
		return *c.SimilarityThreshold
	}
	return 0.55
}
