// Package main summarizes a profile.csv produced by a game run: frame time
// distribution, per-section averages and shares, and the slowest frames.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/rockfall/telemetry"
)

func main() {
	path := flag.String("profile", "profile.csv", "Path to a run's profile.csv")
	topN := flag.Int("top", 5, "Number of slowest frames to list")
	flag.Parse()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("opening profile: %v", err)
	}
	defer f.Close()

	var rows []telemetry.FrameRowCSV
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		log.Fatalf("parsing profile: %v", err)
	}
	if len(rows) == 0 {
		fmt.Println("no data rows")
		return
	}

	totals := make([]float64, len(rows))
	for i := range rows {
		totals[i] = rows[i].TotalMS
	}
	sorted := append([]float64(nil), totals...)
	sort.Float64s(sorted)

	avg := stat.Mean(totals, nil)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, sorted, nil)

	fmt.Println("=== Frame Summary ===")
	fmt.Printf("Frames:              %d\n", len(rows))
	fmt.Printf("Avg frame (ms):      %.3f\n", avg)
	fmt.Printf("Median frame (ms):   %.3f\n", med)
	fmt.Printf("95th pct frame (ms): %.3f\n", p95)
	if avg > 0 {
		fmt.Printf("Approx mean FPS:     %.2f\n", 1000.0/avg)
	}
	fmt.Println()

	fmt.Println("=== Section Stats ===")
	fmt.Printf("%-14s %8s %8s %8s %8s\n", "section", "avg", "med", "max", "share%")
	totalAvgSum := 0.0
	for _, name := range telemetry.Sections {
		vals := make([]float64, len(rows))
		for i := range rows {
			vals[i] = rows[i].SectionMS(name)
		}
		secSorted := append([]float64(nil), vals...)
		sort.Float64s(secSorted)

		secAvg := stat.Mean(vals, nil)
		secMed := stat.Quantile(0.5, stat.Empirical, secSorted, nil)
		secMax := secSorted[len(secSorted)-1]
		share := 0.0
		if avg > 0 {
			share = secAvg / avg * 100
		}
		totalAvgSum += secAvg
		fmt.Printf("%-14s %8.3f %8.3f %8.3f %8.1f\n", name, secAvg, secMed, secMax, share)
	}
	other := avg - totalAvgSum
	if other < 0 {
		other = 0
	}
	fmt.Printf("%-14s %8.3f %8s %8s %8.1f\n", "other", other, "-", "-", other/avg*100)
	fmt.Println()

	fmt.Printf("=== Top %d Slow Frames ===\n", *topN)
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return totals[order[a]] > totals[order[b]] })
	for i := 0; i < *topN && i < len(order); i++ {
		row := rows[order[i]]
		fmt.Printf("frame %-8d total %8.3f ms\n", row.Frame, row.TotalMS)
	}
}
