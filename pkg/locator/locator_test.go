package locator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/devicelab-dev/appium-vision/pkg/core"
	"github.com/devicelab-dev/appium-vision/pkg/driver/mock"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Exact text

func TestExactText_Found(t *testing.T) {
	conn := &mock.Conn{SourceXML: sampleHierarchy}

	result, err := ExactText("Bluetooth").Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found {
		t.Fatal("expected element to be found")
	}
	if result.Point != (core.Point{X: 170, Y: 280}) {
		t.Errorf("expected center (170,280), got %+v", result.Point)
	}
}

func TestExactText_CaseSensitive(t *testing.T) {
	conn := &mock.Conn{SourceXML: sampleHierarchy}

	result, err := ExactText("bluetooth").Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Error("exact-text match must be case-sensitive")
	}
}

func TestExactText_FirstInDocumentOrderWins(t *testing.T) {
	xml := `<hierarchy>
  <node text="OK" bounds="[0,0][100,100]"/>
  <node text="OK" bounds="[0,500][100,600]"/>
</hierarchy>`
	conn := &mock.Conn{SourceXML: xml}

	result, err := ExactText("OK").Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Point.Y != 50 {
		t.Errorf("expected first match in document order, got %+v", result.Point)
	}
}

func TestExactText_NotFound(t *testing.T) {
	conn := &mock.Conn{SourceXML: sampleHierarchy}

	result, err := ExactText("Wi-Fi").Locate(conn)
	if err != nil {
		t.Fatalf("not-found must not be an error, got %v", err)
	}
	if result.Found {
		t.Error("expected Found=false")
	}
}

func TestExactText_EmptyExpectedText(t *testing.T) {
	conn := &mock.Conn{SourceXML: sampleHierarchy}

	for _, text := range []string{"", "   "} {
		_, err := ExactText(text).Locate(conn)
		if err == nil {
			t.Errorf("expected error for expected text %q, which can match nothing", text)
		}
	}
}

func TestExactText_CaptureError(t *testing.T) {
	conn := &mock.Conn{SourceErr: fmt.Errorf("socket hang up")}

	_, err := ExactText("Bluetooth").Locate(conn)
	if !errors.Is(err, core.ErrCapture) {
		t.Fatalf("expected ErrCapture, got %v", err)
	}
}

// OCR

type fakeOCR struct {
	words []Word
	err   error
}

func (f *fakeOCR) Recognize(img image.Image) ([]Word, error) {
	return f.words, f.err
}

func TestTextOCR_CaseInsensitiveMatch(t *testing.T) {
	box1 := core.Bounds{X: 100, Y: 200, Width: 80, Height: 40}
	box2 := core.Bounds{X: 100, Y: 400, Width: 60, Height: 40}
	ocr := &fakeOCR{words: []Word{
		{Text: "bluetooth", Bounds: box1, Confidence: 0.92},
		{Text: "wifi", Bounds: box2, Confidence: 0.88},
	}}
	conn := &mock.Conn{PNG: pngBytes(t, 10, 10)}

	result, err := TextOCR("Bluetooth", ocr).Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found {
		t.Fatal("expected match")
	}
	if result.Point != box1.Center() {
		t.Errorf("expected box1 center %+v, got %+v", box1.Center(), result.Point)
	}
	if result.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", result.Confidence)
	}
}

func TestTextOCR_NormalizesWhitespace(t *testing.T) {
	ocr := &fakeOCR{words: []Word{
		{Text: "  Sign In \n", Bounds: core.Bounds{X: 0, Y: 0, Width: 10, Height: 10}},
	}}
	conn := &mock.Conn{PNG: pngBytes(t, 10, 10)}

	result, err := TextOCR("sign in", ocr).Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found {
		t.Error("expected normalized match")
	}
}

func TestTextOCR_NotFound(t *testing.T) {
	ocr := &fakeOCR{words: []Word{{Text: "wifi"}}}
	conn := &mock.Conn{PNG: pngBytes(t, 10, 10)}

	result, err := TextOCR("Bluetooth", ocr).Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Error("expected Found=false after scanning all regions")
	}
}

func TestTextOCR_EmptyExpectedText(t *testing.T) {
	conn := &mock.Conn{PNG: pngBytes(t, 10, 10)}
	ocr := &fakeOCR{}

	_, err := TextOCR("  ", ocr).Locate(conn)
	if err == nil {
		t.Error("expected error for whitespace-only expected text")
	}
}

func TestTextOCR_CaptureError(t *testing.T) {
	ocr := &fakeOCR{}
	conn := &mock.Conn{ScreenshotErr: fmt.Errorf("connection reset")}

	_, err := TextOCR("Bluetooth", ocr).Locate(conn)
	if !errors.Is(err, core.ErrCapture) {
		t.Fatalf("expected ErrCapture, got %v", err)
	}
}

func TestTextOCR_BadScreenshotBytes(t *testing.T) {
	ocr := &fakeOCR{}
	conn := &mock.Conn{PNG: []byte("not a png")}

	_, err := TextOCR("Bluetooth", ocr).Locate(conn)
	if !errors.Is(err, core.ErrCapture) {
		t.Fatalf("expected ErrCapture for undecodable screenshot, got %v", err)
	}
}

// Image template

type fakeMatcher struct {
	bounds     core.Bounds
	confidence float64
	err        error
}

func (f *fakeMatcher) Match(ref, screen image.Image) (core.Bounds, float64, error) {
	return f.bounds, f.confidence, f.err
}

func TestImageTemplate_AboveThreshold(t *testing.T) {
	m := &fakeMatcher{
		bounds:     core.Bounds{X: 200, Y: 300, Width: 100, Height: 50},
		confidence: 0.93,
	}
	ref := image.NewGray(image.Rect(0, 0, 10, 10))
	conn := &mock.Conn{PNG: pngBytes(t, 100, 100)}

	result, err := ImageTemplate(ref, m, 0).Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found {
		t.Fatal("expected match above default threshold")
	}
	if result.Point != (core.Point{X: 250, Y: 325}) {
		t.Errorf("expected match center, got %+v", result.Point)
	}
}

func TestImageTemplate_BelowThresholdReportsConfidence(t *testing.T) {
	m := &fakeMatcher{confidence: 0.41}
	ref := image.NewGray(image.Rect(0, 0, 10, 10))
	conn := &mock.Conn{PNG: pngBytes(t, 100, 100)}

	result, err := ImageTemplate(ref, m, 0).Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Error("expected Found=false below threshold")
	}
	if result.Confidence != 0.41 {
		t.Errorf("confidence must be reported on failure, got %f", result.Confidence)
	}
}

func TestImageTemplate_CustomThreshold(t *testing.T) {
	m := &fakeMatcher{confidence: 0.75}
	ref := image.NewGray(image.Rect(0, 0, 10, 10))
	conn := &mock.Conn{PNG: pngBytes(t, 100, 100)}

	result, err := ImageTemplate(ref, m, 0.7).Locate(conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found {
		t.Error("expected match with lowered threshold")
	}
}
