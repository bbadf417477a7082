// Package locator resolves UI elements to screen coordinates. Three
// interchangeable strategies share one result shape: exact text against the
// UI hierarchy, OCR-recognized text, and image template matching.
package locator

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/png" // screenshot decoding

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// DefaultThreshold is the image-match confidence threshold used when the
// caller does not specify one.
const DefaultThreshold = 0.85

// Strategy locates a target on the current screen. "Not found" is a normal
// result (Found=false); only transport-level capture failures are errors.
type Strategy interface {
	Locate(conn core.Connection) (core.LocateResult, error)
}

// Word is one OCR-recognized text region.
type Word struct {
	Text       string
	Bounds     core.Bounds
	Confidence float64 // normalized [0,1]
}

// Recognizer is the OCR engine boundary.
type Recognizer interface {
	Recognize(img image.Image) ([]Word, error)
}

// Matcher is the image template matching boundary. It returns the best match
// location and its normalized [0,1] confidence.
type Matcher interface {
	Match(ref, screen image.Image) (core.Bounds, float64, error)
}

// Exact text strategy

type exactText struct {
	text string
}

// ExactText locates the first element in document order whose text attribute
// equals the expected string exactly (case-sensitive, surrounding whitespace
// trimmed). An expected string that trims to empty is rejected, since it
// could never match any element.
func ExactText(text string) Strategy {
	return &exactText{text: text}
}

func (s *exactText) Locate(conn core.Connection) (core.LocateResult, error) {
	want := strings.TrimSpace(s.text)
	if want == "" {
		return core.LocateResult{}, fmt.Errorf("expected text is empty")
	}

	source, err := conn.Source()
	if err != nil {
		return core.LocateResult{}, core.ErrCapture.WithCause(err)
	}

	elements, err := ParseHierarchy(source)
	if err != nil {
		return core.LocateResult{}, core.ErrCapture.WithCause(err)
	}

	for _, elem := range elements {
		if text := strings.TrimSpace(elem.Text); text != "" && text == want {
			return core.LocateResult{
				Found:  true,
				Point:  elem.Bounds.Center(),
				Bounds: elem.Bounds,
			}, nil
		}
	}

	return core.LocateResult{}, nil
}

// OCR text strategy

type textOCR struct {
	text string
	ocr  Recognizer
}

// TextOCR locates text by running the OCR engine over a screenshot. Both
// sides of the comparison are normalized (trimmed, casefolded) to tolerate
// recognition noise.
func TextOCR(text string, ocr Recognizer) Strategy {
	return &textOCR{text: text, ocr: ocr}
}

func (s *textOCR) Locate(conn core.Connection) (core.LocateResult, error) {
	want := normalize(s.text)
	if want == "" {
		return core.LocateResult{}, fmt.Errorf("expected text is empty")
	}

	img, err := captureImage(conn)
	if err != nil {
		return core.LocateResult{}, err
	}

	words, err := s.ocr.Recognize(img)
	if err != nil {
		return core.LocateResult{}, err
	}

	for _, w := range words {
		if normalize(w.Text) == want {
			return core.LocateResult{
				Found:      true,
				Point:      w.Bounds.Center(),
				Bounds:     w.Bounds,
				Confidence: w.Confidence,
			}, nil
		}
	}

	return core.LocateResult{}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Image template strategy

type imageTemplate struct {
	ref       image.Image
	matcher   Matcher
	threshold float64
}

// ImageTemplate locates a region matching the reference image. A non-positive
// threshold selects DefaultThreshold. The best confidence is reported even
// when it falls below the threshold, for diagnostics.
func ImageTemplate(ref image.Image, matcher Matcher, threshold float64) Strategy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &imageTemplate{ref: ref, matcher: matcher, threshold: threshold}
}

func (s *imageTemplate) Locate(conn core.Connection) (core.LocateResult, error) {
	screen, err := captureImage(conn)
	if err != nil {
		return core.LocateResult{}, err
	}

	bounds, confidence, err := s.matcher.Match(s.ref, screen)
	if err != nil {
		return core.LocateResult{}, err
	}

	result := core.LocateResult{
		Bounds:     bounds,
		Confidence: confidence,
	}
	if confidence >= s.threshold {
		result.Found = true
		result.Point = bounds.Center()
	}
	return result, nil
}

// captureImage takes a screenshot and decodes it. Capture and decode failures
// both surface as capture errors, distinct from "not found".
func captureImage(conn core.Connection) (image.Image, error) {
	data, err := conn.Screenshot()
	if err != nil {
		return nil, core.ErrCapture.WithCause(err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, core.ErrCapture.WithCause(err)
	}
	return img, nil
}
