// signcam - GTSRB traffic sign detection for the dash camera.
//
// Commands:
//
//	signcam run     continuous detection from the camera
//	signcam detect  classify a single image file
//	signcam batch   classify every image in a directory
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openadas/go-signcam/internal/config"
	"github.com/openadas/go-signcam/internal/log"
	"github.com/openadas/go-signcam/pkg/camera"
	"github.com/openadas/go-signcam/pkg/classify"
	"github.com/openadas/go-signcam/pkg/detect"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: signcam <run|detect|batch> [flags]")
	fmt.Fprintln(os.Stderr, "  run            continuous detection from the camera")
	fmt.Fprintln(os.Stderr, "  detect <image> classify a single image file")
	fmt.Fprintln(os.Stderr, "  batch <dir>    classify every image in a directory")
}

func main() {
	log.Init(config.LogLevel())

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "detect":
		err = detectCmd(os.Args[2:])
	case "batch":
		err = batchCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "signcam %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// parseResolution parses a WxH string like "1920x1080".
func parseResolution(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q, want WxH", s)
	}
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q, want WxH", s)
	}
	return w, h, nil
}

func loadClassifier(modelPath string) (*classify.ONNXClassifier, error) {
	cfg := classify.DefaultConfig()
	cfg.ModelPath = config.ModelPath(modelPath)
	return classify.New(cfg)
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	model := fs.String("model", config.DefaultModelPath, "Path to ONNX model")
	confidence := fs.Float64("confidence", config.DefaultConfidenceThreshold, "Confidence threshold in [0,1]")
	resolution := fs.String("resolution", "1920x1080", "Camera resolution WxH")
	interval := fs.Float64("interval", config.DefaultDetectionInterval, "Seconds between cycle starts")
	duration := fs.Float64("duration", 0, "Run duration in seconds (0 = until interrupted)")
	device := fs.Int("device", 0, "Camera device index")
	outputDir := fs.String("output", config.DefaultOutputDir, "Directory for session results")
	noSave := fs.Bool("no-save", false, "Do not persist results")
	fs.Parse(args)

	w, h, err := parseResolution(*resolution)
	if err != nil {
		return err
	}

	cls, err := loadClassifier(*model)
	if err != nil {
		// Model load failure is fatal: nothing useful can run without it.
		return err
	}
	defer cls.Close()

	camCfg := camera.DefaultConfig()
	camCfg.Device = *device
	camCfg.Width = w
	camCfg.Height = h

	var src camera.Source
	src, err = camera.Open(camCfg)
	if err != nil {
		// Degrade instead of aborting: every cycle records the camera
		// error and the session still produces a summary.
		log.Warn("camera unavailable, cycles will fail", "error", err)
		src = camera.Unavailable(camCfg)
	}

	sessCfg := detect.SessionConfig{
		Threshold: *confidence,
		Interval:  time.Duration(*interval * float64(time.Second)),
		Duration:  time.Duration(*duration * float64(time.Second)),
		Persist:   !*noSave,
		OutputDir: config.OutputDir(*outputDir),
	}
	session, err := detect.NewSession(sessCfg, src, cls)
	if err != nil {
		src.Close()
		return err
	}

	fmt.Println("🚦 signcam traffic sign detection")
	fmt.Printf("   Model:      %s\n", config.ModelPath(*model))
	fmt.Printf("   Camera:     %s\n", camCfg)
	fmt.Printf("   Threshold:  %.2f\n", sessCfg.Threshold)
	fmt.Printf("   Interval:   %s\n", sessCfg.Interval)
	if sessCfg.Duration > 0 {
		fmt.Printf("   Duration:   %s\n", sessCfg.Duration)
	} else {
		fmt.Println("   Duration:   until Ctrl+C")
	}
	fmt.Println()

	cycles := 0
	session.OnResult = func(res detect.Result) {
		cycles++
		switch {
		case res.Err != nil:
			fmt.Printf("⚠️  cycle %d failed at %s: %v\n", cycles, res.FailedStage, res.Err)
		case res.Detected:
			fmt.Printf("🚦 DETECTED: %s (%.2f) [cycle %d]\n",
				res.Primary.Label, res.Primary.Confidence, cycles)
			for i, p := range res.TopPredictions {
				if i == 0 {
					continue
				}
				fmt.Printf("      %d. %s (%.2f)\n", i+1, p.Label, p.Confidence)
			}
		default:
			fmt.Printf("⚪ no sign detected [cycle %d] (%.1fms)\n",
				cycles, res.Timings.Total().Seconds()*1000)
		}
	}

	// Ctrl+C ends the session cooperatively at the next wait point.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 stopping...")
		cancel()
	}()

	summary, err := session.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println("\n📈 Detection summary")
	fmt.Printf("   Cycles:       %d\n", summary.Total)
	fmt.Printf("   Detections:   %d\n", summary.Successful)
	fmt.Printf("   Failures:     %d\n", summary.Failed)
	fmt.Printf("   Success rate: %.2f%%\n", summary.SuccessRate)
	fmt.Printf("   Avg total:    %.1fms\n", summary.AvgTotalMS)
	return nil
}

func detectCmd(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	model := fs.String("model", config.DefaultModelPath, "Path to ONNX model")
	confidence := fs.Float64("confidence", config.DefaultConfidenceThreshold, "Confidence threshold in [0,1]")
	out := fs.String("o", "", "Write the result JSON to this file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: signcam detect [flags] <image>")
	}
	path := fs.Arg(0)

	cls, err := loadClassifier(*model)
	if err != nil {
		return err
	}
	defer cls.Close()

	res := detect.File(path, cls, *confidence)
	switch {
	case res.Err != nil:
		fmt.Printf("⚠️  %s: %v\n", path, res.Err)
	case res.Detected:
		fmt.Printf("🚦 %s: %s (%.2f)\n", path, res.Primary.Label, res.Primary.Confidence)
	default:
		fmt.Printf("⚪ %s: no sign detected\n", path)
	}

	if *out != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("📁 result saved to %s\n", *out)
	}
	if res.Err != nil {
		return res.Err
	}
	return nil
}

func batchCmd(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	model := fs.String("model", config.DefaultModelPath, "Path to ONNX model")
	confidence := fs.Float64("confidence", config.DefaultConfidenceThreshold, "Confidence threshold in [0,1]")
	out := fs.String("o", "output/batch_results.json", "Output JSON file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: signcam batch [flags] <directory>")
	}
	dir := fs.Arg(0)

	cls, err := loadClassifier(*model)
	if err != nil {
		return err
	}
	defer cls.Close()

	summary, err := detect.Batch(dir, cls, *confidence, *out)
	if err != nil {
		return err
	}

	fmt.Printf("📈 %d images, %d detections (%.2f%%), results in %s\n",
		summary.Total, summary.Successful, summary.SuccessRate, *out)
	return nil
}
