// Command count runs the whole-box detector over one image and prints how
// many boxes of each class it found.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/disintegration/imaging"

	"boxcounter/internal/config"
	"boxcounter/internal/logger"
	"boxcounter/internal/model"
	"boxcounter/internal/service/ai"
	"boxcounter/internal/service/analyzer"
)

func main() {
	cfg := config.Load()
	modelPath := flag.String("model", cfg.BoxModelPath, "Whole-box ONNX model")
	out := flag.String("out", "", "Write the image with detections to this JPEG file")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <image>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	var logOut io.Writer = io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	log := logger.NewWithWriter(logOut, *verbose)

	if err := run(cfg, log, *modelPath, flag.Arg(0), *out); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, modelPath, imagePath, out string) error {
	detector, err := ai.NewYOLODetector(ai.Options{
		ModelPath:    modelPath,
		Classes:      cfg.BoxClasses,
		InputSize:    cfg.ModelInputSize,
		Threshold:    cfg.DetectionThreshold,
		NMSThreshold: cfg.NMSThreshold,
	}, log)
	if err != nil {
		return fmt.Errorf("could not load model %s: %w", modelPath, err)
	}
	defer detector.Close()

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("could not read image %s: %w", imagePath, err)
	}

	detections, err := detector.Detect(context.Background(), img)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", imagePath, err)
	}

	printCounts(os.Stdout, countByClass(detections))

	if out != "" {
		data, err := ai.Annotate(img, boxFindings(detections))
		if err != nil {
			return fmt.Errorf("annotate: %w", err)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Image with detections saved as '%s'\n", out)
	}
	return nil
}

// Counter tallies detections per class label.
type Counter map[string]int

func countByClass(detections []model.Detection) Counter {
	counts := make(Counter)
	for _, d := range detections {
		counts[d.Label]++
	}
	return counts
}

func printCounts(w io.Writer, counts Counter) {
	fmt.Fprintln(w, "\n--- BOX COUNT ---")
	if len(counts) == 0 {
		fmt.Fprintln(w, "No boxes were detected in the image.")
	} else {
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "%s: %d unit(s)\n", label, counts[label])
		}
	}
	fmt.Fprintln(w, "-----------------")
}

// boxFindings turns raw detections into findings for annotation.
func boxFindings(detections []model.Detection) []model.Finding {
	findings := make([]model.Finding, 0, len(detections))
	for _, d := range detections {
		findings = append(findings, model.Finding{
			Stage:      model.StageBox,
			Region:     d.Region,
			Label:      d.Label,
			Confidence: d.Confidence,
			Outcome:    analyzer.MatchClassLabel(d.Label),
			Evidence:   model.EvidenceClassifier,
		})
	}
	return findings
}
