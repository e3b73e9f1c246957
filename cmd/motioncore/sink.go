package main

import (
	"fmt"
	"image"
	"log"

	"gocv.io/x/gocv"

	"github.com/motioncore/motioncore"
	"github.com/motioncore/motioncore/internal/imaging"
)

// annotatingSink is the reference SinkAdapter implementation: it draws
// consolidated-region boxes onto the frame (tracking data and lost ids are
// only logged, in verbose mode) and,
// depending on configuration, shows them in a preview window and/or
// writes them to an output video file. Kept out of the core package so
// the core stays free of drawing-specific gocv calls beyond what Frame
// itself needs.
type annotatingSink struct {
	outPath string
	preview bool
	verbose bool

	window *gocv.Window
	writer *gocv.VideoWriter
}

func newAnnotatingSink(outPath string, preview, verbose bool) *annotatingSink {
	s := &annotatingSink{outPath: outPath, preview: preview, verbose: verbose}
	if preview {
		s.window = gocv.NewWindow("motioncore")
	}
	return s
}

func (s *annotatingSink) OnTrackingData(trackerID int, uuid string, crop motioncore.Frame, bounds motioncore.Rect, point motioncore.Point, confidence float64, class motioncore.ClassificationResult) {
	if s.verbose {
		log.Printf("tracker %d (%s): bounds=%v confidence=%.2f class=%s", trackerID, uuid, bounds, confidence, class.Label)
	}
}

func (s *annotatingSink) OnObjectLost(trackerID int) {
	if s.verbose {
		log.Printf("tracker %d lost", trackerID)
	}
}

func (s *annotatingSink) OnFrameArtifacts(original, annotated motioncore.Frame, regions []motioncore.ConsolidatedRegion, metadata motioncore.FrameMetadata) {
	defer original.Close()
	if original.Empty() {
		return
	}

	mat := original.Mat()
	for _, r := range regions {
		color := imaging.PaletteColor(r.MemberIDs[0])
		rect := image.Rect(r.BoundingBox.X, r.BoundingBox.Y, r.BoundingBox.Right(), r.BoundingBox.Bottom())
		gocv.Rectangle(&mat, rect, color, 2)
		label := fmt.Sprintf("region (%d)", len(r.MemberIDs))
		gocv.PutText(&mat, label, image.Pt(rect.Min.X, rect.Min.Y-8), gocv.FontHersheySimplex, 0.5, color, 1)
	}

	if s.preview && s.window != nil {
		s.window.IMShow(mat)
	}

	if s.outPath != "" {
		if s.writer == nil {
			writer, err := gocv.VideoWriterFile(s.outPath, "mp4v", 30, mat.Cols(), mat.Rows(), true)
			if err != nil {
				log.Printf("failed to open output video %s: %v", s.outPath, err)
			} else {
				s.writer = writer
			}
		}
		if s.writer != nil {
			if err := s.writer.Write(mat); err != nil {
				log.Printf("failed to write output frame: %v", err)
			}
		}
	}
}

// WaitKey forwards to the preview window's key poll, or returns -1 if no
// window is open.
func (s *annotatingSink) WaitKey(delay int) int {
	if s.window == nil {
		return -1
	}
	return s.window.WaitKey(delay)
}

func (s *annotatingSink) Close() {
	if s.window != nil {
		s.window.Close()
	}
	if s.writer != nil {
		s.writer.Close()
	}
}
