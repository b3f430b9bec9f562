package analyzer

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"boxcounter/internal/logger"
	"boxcounter/internal/model"
)

// Analyzer counts boxes in one image. It runs a label pass classified
// through the cascade, then a whole-box pass deduplicated against the
// labels identified in the first pass.
type Analyzer struct {
	labelDetector Detector
	boxDetector   Detector
	cascade       *Cascade
	logger        *logger.Logger
}

// New builds an Analyzer. Either detector may be nil, in which case Ready
// reports false and Analyze fails with ErrDetectorUnavailable.
func New(labelDetector, boxDetector Detector, cascade *Cascade, log *logger.Logger) *Analyzer {
	return &Analyzer{
		labelDetector: labelDetector,
		boxDetector:   boxDetector,
		cascade:       cascade,
		logger:        log,
	}
}

// Ready reports whether both detectors are present.
func (a *Analyzer) Ready() bool {
	return a != nil && a.labelDetector != nil && a.boxDetector != nil && a.cascade != nil
}

// Analyze returns a complete result or an *AnalysisError, never both.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (result *model.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analysis panic: %v", r)
			result, err = nil, stageError("analyze", fmt.Errorf("internal error: %v", r))
		}
	}()

	if !a.Ready() {
		return nil, stageError("setup", ErrDetectorUnavailable)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, stageError("input", ErrEmptyImage)
	}

	result = &model.AnalysisResult{}
	confirmed := &ConfirmedRegionSet{}

	if err := a.labelStage(ctx, img, result, confirmed, NewPayloadSet()); err != nil {
		return nil, err
	}
	if err := a.boxStage(ctx, img, result, confirmed); err != nil {
		return nil, err
	}

	a.logger.Info("Analysis done: confirmed 618=%d 623=%d, visual 618=%d 623=%d, boxes detected=%d",
		result.Confirmed.Boxes618, result.Confirmed.Boxes623,
		result.Visual.Boxes618, result.Visual.Boxes623, result.TotalBoxesDetected)
	return result, nil
}

func (a *Analyzer) labelStage(ctx context.Context, img image.Image, result *model.AnalysisResult, confirmed *ConfirmedRegionSet, payloads *PayloadSet) error {
	detections, err := a.labelDetector.Detect(ctx, img)
	if err != nil {
		return stageError(model.StageLabel, fmt.Errorf("%w: %w", ErrDetection, err))
	}
	result.LabelsDetected = len(detections)
	bounds := img.Bounds()

	for i, det := range detections {
		if err := ctx.Err(); err != nil {
			return stageError(model.StageLabel, err)
		}

		region := det.Region.Clip(bounds)
		if region.Empty() {
			a.logger.Warning("Label %d has an empty crop %+v, skipping", i, det.Region)
			continue
		}

		crop := imaging.Crop(img, region.Rect())
		match, evidence := a.cascade.Classify(ctx, crop)
		outcome := match.Outcome

		finding := model.Finding{
			Stage:      model.StageLabel,
			Region:     region,
			Label:      det.Label,
			Confidence: det.Confidence,
			Outcome:    outcome,
			Evidence:   evidence,
		}

		// A repeated payload is the same unit read twice: it still shields
		// overlapping boxes but is counted once.
		if !payloads.Add(match.Payload) {
			a.logger.Debug("Label %d repeats barcode %s, not counted again", i, match.Payload)
			finding.Deduplicated = true
			result.Findings = append(result.Findings, finding)
			confirmed.Add(region)
			continue
		}
		result.Findings = append(result.Findings, finding)

		switch {
		case outcome.IsConfirmed():
			result.Confirmed.Add(outcome.ProductType())
		case outcome.IsVisual():
			result.Visual.Add(outcome.ProductType())
		default:
			result.UnidentifiedLabels++
			continue
		}
		confirmed.Add(region)
	}
	return nil
}

func (a *Analyzer) boxStage(ctx context.Context, img image.Image, result *model.AnalysisResult, confirmed *ConfirmedRegionSet) error {
	detections, err := a.boxDetector.Detect(ctx, img)
	if err != nil {
		return stageError(model.StageBox, fmt.Errorf("%w: %w", ErrDetection, err))
	}
	result.TotalBoxesDetected = len(detections)
	bounds := img.Bounds()

	for i, det := range detections {
		if err := ctx.Err(); err != nil {
			return stageError(model.StageBox, err)
		}

		region := det.Region.Clip(bounds)
		if region.Empty() {
			a.logger.Warning("Box %d has an empty region %+v, skipping", i, det.Region)
			continue
		}

		finding := model.Finding{
			Stage:      model.StageBox,
			Region:     region,
			Label:      det.Label,
			Confidence: det.Confidence,
		}

		if confirmed.Covers(region) {
			finding.Deduplicated = true
			result.Findings = append(result.Findings, finding)
			continue
		}

		finding.Outcome = MatchClassLabel(det.Label)
		if finding.Outcome != model.Unidentified {
			finding.Evidence = model.EvidenceClassifier
			result.Visual.Add(finding.Outcome.ProductType())
		}
		result.Findings = append(result.Findings, finding)
	}
	return nil
}
