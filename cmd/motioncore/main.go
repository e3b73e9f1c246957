// Command motioncore drives the motion-detection pipeline over a camera
// or file-backed video source, writing an optional annotated output video
// and/or a preview window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"gocv.io/x/gocv"
	"golang.org/x/term"
	ini "gopkg.in/ini.v1"

	"github.com/motioncore/motioncore"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	source := flag.String("source", "", "Video file path or camera device index (required)")
	iniPath := flag.String("ini", "", "Legacy INI file overriding camera/output fields")
	outPath := flag.String("out", "", "Path to write an annotated output video (optional)")
	preview := flag.Bool("preview", false, "Show a live preview window")
	verbose := flag.Bool("verbose", false, "Enable verbose per-frame logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "motioncore - motion detection and region consolidation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -source <path|device-index> [options]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *source == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := motioncore.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	overrides, err := loadIniOverrides(*iniPath)
	if err != nil {
		log.Fatalf("failed to load ini overrides: %v", err)
	}
	if overrides.outPath != "" {
		*outPath = overrides.outPath
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	motionProc, err := motioncore.NewMotionProcessor(cfg.MotionConfig(), logger)
	if err != nil {
		log.Fatalf("failed to construct motion processor: %v", err)
	}
	tracker, err := motioncore.NewObjectTracker(cfg.TrackerConfig(), logger, nil)
	if err != nil {
		log.Fatalf("failed to construct object tracker: %v", err)
	}
	region, err := motioncore.NewRegionConsolidator(cfg.RegionConfig(), logger)
	if err != nil {
		log.Fatalf("failed to construct region consolidator: %v", err)
	}

	sink := newAnnotatingSink(*outPath, *preview, *verbose)
	defer sink.Close()

	pipeline := motioncore.NewPipeline(motioncore.PipelineStages{
		Motion:  motionProc,
		Tracker: tracker,
		Region:  region,
	}, sink)

	capture, cameraID, err := openSource(*source, overrides.cameraID)
	if err != nil {
		log.Fatalf("failed to open source: %v", err)
	}
	defer capture.Close()

	bar := setupProgressBar(capture, cameraID, *source)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case sig := <-sigCh:
			log.Printf("received signal %v, shutting down", sig)
			return
		default:
		}

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}

		_, regions := pipeline.ProcessFrame(motioncore.NewFrame(frame.Clone()))
		if bar != nil {
			bar.Add(1)
		}
		if *verbose {
			log.Printf("regions: %d", len(regions))
		}

		if *preview && sink.WaitKey(1) == 'q' {
			break
		}
	}
}

// openSource opens capture either against a numeric camera device index or
// a file path, returning whether it resolved to a camera (the progress bar
// is shaped differently for an unbounded camera stream vs. a file with a
// known frame count).
func openSource(source string, iniCameraID *int) (*gocv.VideoCapture, bool, error) {
	if iniCameraID != nil {
		capture, err := gocv.OpenVideoCapture(*iniCameraID)
		return capture, true, err
	}
	if id, err := strconv.Atoi(source); err == nil {
		capture, err := gocv.OpenVideoCapture(id)
		return capture, true, err
	}
	capture, err := gocv.OpenVideoCapture(source)
	return capture, false, err
}

func setupProgressBar(capture *gocv.VideoCapture, isCamera bool, source string) *progressbar.ProgressBar {
	termCols, _ := term.GetSize(int(os.Stdout.Fd()))
	if termCols <= 0 {
		termCols = 80
	}
	desc := source
	maxLen := termCols - 25
	if len(desc) > maxLen && maxLen > 10 {
		desc = desc[:maxLen-3] + "..."
	}

	if isCamera {
		return progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("fps"),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}
	frameCount := int(capture.Get(gocv.VideoCaptureFrameCount))
	return progressbar.NewOptions(frameCount,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("fps"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// iniOverrides holds the handful of camera/output fields the legacy ini
// path may override; it is deliberately narrower than the primary TOML
// document and only ever supplements it.
type iniOverrides struct {
	cameraID *int
	outPath  string
}

func loadIniOverrides(path string) (iniOverrides, error) {
	if path == "" {
		return iniOverrides{}, nil
	}
	doc, err := ini.Load(path)
	if err != nil {
		return iniOverrides{}, fmt.Errorf("loading ini file %s: %w", path, err)
	}
	section := doc.Section("Camera")
	var out iniOverrides
	if id := section.Key("deviceID").MustInt(-1); id >= 0 {
		out.cameraID = &id
	}
	out.outPath = doc.Section("Output").Key("path").MustString("")
	return out, nil
}
