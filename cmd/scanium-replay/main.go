// Command scanium-replay runs a recorded detection log through the
// scanning pipeline and prints the resulting item catalog.
package main

import (
	"flag"
	"log"

	"github.com/ilpeppino/scanium-sub009/internal/config"
	"github.com/ilpeppino/scanium-sub009/internal/replay"
	"github.com/ilpeppino/scanium-sub009/internal/store"
)

func main() {
	logPath := flag.String("log", "detections.json", "detection log to replay")
	configPath := flag.String("config", "", "tuning config overriding the preset")
	preset := flag.String("preset", "realtime", "tuning preset (realtime or batch)")
	dbPath := flag.String("db", "", "optional sqlite file to persist the catalog")
	threshold := flag.Float64("threshold", -1, "similarity threshold override (0..1)")
	verbose := flag.Bool("v", false, "print per-frame statistics")
	flag.Parse()

	tuning, err := config.Preset(*preset)
	if err != nil {
		log.Fatalf("preset: %v", err)
	}
	if *configPath != "" {
		overlay, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		tuning = tuning.Merge(overlay)
	}
	if *threshold >= 0 {
		tuning.SimilarityThreshold = threshold
	}

	frames, err := replay.LoadFrames(*logPath)
	if err != nil {
		log.Fatalf("load detection log: %v", err)
	}

	cat, stats, err := replay.Run(frames, tuning)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}

	if *verbose {
		for _, s := range stats {
			log.Printf("frame %3d: detections=%d live=%d items=%d merges=%d",
				s.Frame, s.Detections, s.LiveCandidates, s.ItemCount, s.TotalMerges)
		}
	}

	items := cat.Items()
	agg := cat.GetAggregationStats()
	metrics := cat.GetSessionMetrics()
	log.Printf("replayed %d frames: %d items, %d merges", len(frames), agg.TotalItems, agg.TotalMerges)
	log.Printf("similarity scores: samples=%d mean=%.3f p50=%.3f p90=%.3f",
		metrics.Samples, metrics.MeanScore, metrics.P50Score, metrics.P90Score)
	for _, item := range items {
		log.Printf("  %s  %-12s %-20s conf=%.2f box=[%.3f %.3f %.3f %.3f]",
			item.ID, item.Category, item.Label, item.Confidence,
			item.Box.Left, item.Box.Top, item.Box.Right, item.Box.Bottom)
	}

	if *dbPath != "" {
		db, err := store.OpenSQLite(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		for _, item := range items {
			if err := db.SaveItem(item); err != nil {
				log.Fatalf("save item %s: %v", item.ID, err)
			}
		}
		log.Printf("✓ Saved %d items to %s", len(items), *dbPath)
	}
}
