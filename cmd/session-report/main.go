// Command session-report replays a detection log and renders an HTML
// report of catalog growth and duplicate merges over the session.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ilpeppino/scanium-sub009/internal/config"
	"github.com/ilpeppino/scanium-sub009/internal/replay"
)

func main() {
	logPath := flag.String("log", "detections.json", "detection log to replay")
	preset := flag.String("preset", "batch", "tuning preset (realtime or batch)")
	out := flag.String("out", "report.html", "output HTML file")
	flag.Parse()

	tuning, err := config.Preset(*preset)
	if err != nil {
		log.Fatalf("preset: %v", err)
	}

	frames, err := replay.LoadFrames(*logPath)
	if err != nil {
		log.Fatalf("load detection log: %v", err)
	}

	cat, stats, err := replay.Run(frames, tuning)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}

	x := make([]string, 0, len(stats))
	items := make([]opts.LineData, 0, len(stats))
	merges := make([]opts.LineData, 0, len(stats))
	live := make([]opts.LineData, 0, len(stats))
	for _, s := range stats {
		x = append(x, fmt.Sprintf("%d", s.Frame))
		items = append(items, opts.LineData{Value: s.ItemCount})
		merges = append(merges, opts.LineData{Value: s.TotalMerges})
		live = append(live, opts.LineData{Value: s.LiveCandidates})
	}

	metrics := cat.GetSessionMetrics()
	subtitle := fmt.Sprintf("frames=%d items=%d merges=%d score p50=%.2f p90=%.2f",
		len(frames), cat.GetItemCount(), cat.GetAggregationStats().TotalMerges,
		metrics.P50Score, metrics.P90Score)

	growth := charts.NewLine()
	growth.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan Session Report", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Catalog Growth", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	growth.SetXAxis(x).
		AddSeries("items", items).
		AddSeries("merges", merges)

	candidates := charts.NewLine()
	candidates.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Live Candidates"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
	)
	candidates.SetXAxis(x).
		AddSeries("candidates", live)

	page := components.NewPage()
	page.AddCharts(growth, candidates)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("✓ Created: %s", *out)
}
