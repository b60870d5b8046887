package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/openadas/go-signcam/internal/log"
	"github.com/openadas/go-signcam/pkg/classify"
	"github.com/openadas/go-signcam/pkg/preprocess"
)

// File classifies a single still image with the same preprocessing,
// inference and decision contract as a live cycle. The decode step
// stands in for capture in the stage timings.
func File(path string, cls classify.Classifier, threshold float64) Result {
	cycle := Cycle{Classifier: cls, Threshold: threshold}
	res := Result{
		Timestamp: time.Now(),
		Model:     cycle.modelInfo(),
	}

	decodeStart := time.Now()
	img, err := imaging.Open(path)
	if err != nil {
		res.FailedStage = StageCapture
		res.Err = fmt.Errorf("open %s: %w", path, err)
		return res
	}
	res.Timings.Capture = time.Since(decodeStart)
	res.Timings.Completed = 1
	b := img.Bounds()
	res.Resolution = [2]int{b.Dx(), b.Dy()}

	preprocessStart := time.Now()
	tensor, err := preprocess.Prepare(img, cls.InputSize())
	if err != nil {
		res.FailedStage = StagePreprocess
		res.Err = err
		return res
	}
	res.Timings.Preprocess = time.Since(preprocessStart)
	res.Timings.Completed = 2

	inferStart := time.Now()
	confidences, err := cls.Infer(tensor)
	if err != nil {
		res.FailedStage = StageInference
		res.Err = err
		return res
	}
	res.Timings.Inference = time.Since(inferStart)
	res.Timings.Completed = 3

	res.Detected, res.Primary, res.TopPredictions = decide(confidences, threshold)
	return res
}

// imageExts lists the still formats batch detection accepts.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Batch classifies every supported image in dir, in name order, and
// aggregates the outcomes into the session summary schema. When
// outPath is non-empty the aggregate is persisted there.
func Batch(dir string, cls classify.Classifier, threshold float64, outPath string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("detect: read batch dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		res := File(p, cls, threshold)
		results = append(results, res)
		switch {
		case res.Err != nil:
			log.Warn("batch image failed", "path", p, "error", res.Err)
		case res.Detected:
			log.Info("batch detection", "path", p,
				"label", res.Primary.Label, "confidence", res.Primary.Confidence)
		default:
			log.Info("batch no detection", "path", p)
		}
	}

	sum := summarize("", results, [2]int{}, 0, time.Now())
	if outPath != "" {
		if err := Save(outPath, sum, results); err != nil {
			return &sum, err
		}
	}
	return &sum, nil
}
