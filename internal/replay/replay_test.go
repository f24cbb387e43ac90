package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ilpeppino/scanium-sub009/internal/config"
	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/testutil"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

func sampleFrames() [][]track.DetectionInfo {
	box := geom.NewRect(0.1, 0.1, 0.2, 0.2)
	churned := geom.NewRect(0.105, 0.105, 0.205, 0.205)
	frames := [][]track.DetectionInfo{
		{testutil.Detection("t1", box, 0.6)},
		{testutil.Detection("t1", box, 0.7)},
		{testutil.Detection("t1", box, 0.8)},
	}
	// A dropout long enough to evict the first candidate, so the same
	// object comes back under a new vendor ID and only the session
	// deduplicator can reconcile the two.
	for i := 0; i < 6; i++ {
		frames = append(frames, []track.DetectionInfo{})
	}
	frames = append(frames,
		[]track.DetectionInfo{testutil.Detection("t2", churned, 0.7)},
		[]track.DetectionInfo{testutil.Detection("t2", churned, 0.7)},
		[]track.DetectionInfo{testutil.Detection("t2", churned, 0.8)},
	)
	return frames
}

func TestLoadFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	data, err := json.Marshal(sampleFrames())
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, os.WriteFile(path, data, 0o644))

	frames, err := LoadFrames(path)
	testutil.AssertNoError(t, err)
	if len(frames) != 12 {
		t.Fatalf("expected 12 frames, got %d", len(frames))
	}
	if frames[0][0].TrackingID != "t1" {
		t.Errorf("expected tracking ID round-trip, got %q", frames[0][0].TrackingID)
	}
}

func TestLoadFrames_MissingFile(t *testing.T) {
	_, err := LoadFrames(filepath.Join(t.TempDir(), "absent.json"))
	testutil.AssertError(t, err)
}

func TestRun_DefaultPreset(t *testing.T) {
	cat, stats, err := Run(sampleFrames(), nil)
	testutil.AssertNoError(t, err)

	if len(stats) != 12 {
		t.Fatalf("expected stats for 12 frames, got %d", len(stats))
	}

	// One physical object seen under two vendor IDs: exactly one item.
	if got := cat.GetItemCount(); got != 1 {
		t.Errorf("expected 1 item, got %d", got)
	}
	agg := cat.GetAggregationStats()
	if agg.TotalItems != 1 || agg.TotalMerges != 1 {
		t.Errorf("expected stats {1,1}, got %+v", agg)
	}

	// Item appears on frame 3 when the first candidate confirms.
	if stats[1].ItemCount != 0 || stats[2].ItemCount != 1 {
		t.Errorf("expected confirmation on frame 3, got counts %d then %d",
			stats[1].ItemCount, stats[2].ItemCount)
	}
}

func TestRun_BatchPreset(t *testing.T) {
	tuning, err := config.Preset("batch")
	testutil.AssertNoError(t, err)

	cat, stats, err := Run(sampleFrames(), tuning)
	testutil.AssertNoError(t, err)

	// Batch preset confirms after 2 frames.
	if stats[1].ItemCount != 1 {
		t.Errorf("expected confirmation on frame 2 with batch preset, got %d", stats[1].ItemCount)
	}
	if got := cat.GetItemCount(); got != 1 {
		t.Errorf("expected 1 item, got %d", got)
	}
}
