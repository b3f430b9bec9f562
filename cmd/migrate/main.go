package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"boxcounter/internal/config"
	"boxcounter/internal/repository/sqlite"
	"boxcounter/internal/service/storage"
)

func main() {
	cfg := config.Load()
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	resultsDir := flag.String("results", cfg.ResultDirectory, "Directory containing annotated result images")
	prune := flag.Bool("prune", false, "Delete result images that belong to no stored analysis")
	flag.Parse()

	fmt.Printf("Migrating history database %s\n", *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	analyses := sqlite.NewAnalysisRepository(db)

	orphans, skipped := findOrphans(analyses, *resultsDir)
	if len(orphans) > 0 {
		fmt.Printf("⚠️  %d result image(s) without a stored analysis\n", len(orphans))
		for _, path := range orphans {
			if !*prune {
				fmt.Printf("      - %s\n", path)
				continue
			}
			if err := os.Remove(path); err != nil {
				log.Printf("⚠️  Failed to delete %s: %v", path, err)
			}
		}
		if *prune {
			fmt.Printf("🗑️  Pruned %d orphaned image(s)\n", len(orphans))
		}
	}
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (invalid name format)\n", skipped)
	}

	stats, err := analyses.GetStats()
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	fmt.Printf("\n📊 Database Statistics:\n")
	fmt.Printf("   Total analyses: %d\n", stats.TotalAnalyses)
	fmt.Printf("   618 boxes: %d confirmed, %d visual\n", stats.Confirmed618, stats.Visual618)
	fmt.Printf("   623 boxes: %d confirmed, %d visual\n", stats.Confirmed623, stats.Visual623)
	fmt.Printf("   Stored images: %d bytes\n", stats.TotalSizeBytes)
	fmt.Printf("   Average analysis time: %.0f ms\n", stats.AvgDurationMs)
	if stats.LastAnalysisAt != nil {
		fmt.Printf("   Last analysis: %s\n", stats.LastAnalysisAt.Local().Format("2006-01-02 15:04:05"))
	}
	if len(stats.EvidenceCounts) > 0 {
		fmt.Printf("   Identified by:\n")
		evidence := make([]string, 0, len(stats.EvidenceCounts))
		for e := range stats.EvidenceCounts {
			evidence = append(evidence, e)
		}
		sort.Strings(evidence)
		for _, e := range evidence {
			fmt.Printf("      - %s: %d\n", e, stats.EvidenceCounts[e])
		}
	}
}

// findOrphans lists result images whose analysis id is not in the database.
func findOrphans(analyses *sqlite.AnalysisRepository, dir string) ([]string, int) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️  Failed to read results directory: %v", err)
		}
		return nil, 0
	}

	var orphans []string
	skipped := 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		_, id, err := storage.ParseResultFilename(file.Name())
		if err != nil {
			skipped++
			continue
		}

		rec, err := analyses.GetByID(id)
		if err != nil {
			log.Printf("⚠️  Failed to look up %s: %v", id, err)
			continue
		}
		if rec == nil {
			orphans = append(orphans, filepath.Join(dir, file.Name()))
		}
	}
	return orphans, skipped
}
