package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/devicelab-dev/appium-vision/pkg/core"
	"github.com/devicelab-dev/appium-vision/pkg/locator"
)

// envTesseract overrides the tesseract binary location.
const envTesseract = "TESSERACT_CMD"

// Tesseract implements locator.Recognizer by shelling out to the tesseract
// binary with TSV output.
type Tesseract struct {
	path string
}

// NewTesseract locates the tesseract binary via $TESSERACT_CMD or PATH.
func NewTesseract() (*Tesseract, error) {
	path, err := FindTesseract()
	if err != nil {
		return nil, err
	}
	return &Tesseract{path: path}, nil
}

// FindTesseract returns the tesseract binary path.
func FindTesseract() (string, error) {
	if env := os.Getenv(envTesseract); env != "" {
		return env, nil
	}
	if path, err := exec.LookPath("tesseract"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("tesseract not found in PATH; install it or set %s", envTesseract)
}

// Recognize implements locator.Recognizer.
func (t *Tesseract) Recognize(img image.Image) ([]locator.Word, error) {
	dir, err := os.MkdirTemp("", "appium-vision-ocr")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	imgPath := filepath.Join(dir, "screen.png")
	f, err := os.Create(imgPath) //#nosec G304 -- temp dir created above
	if err != nil {
		return nil, err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()

	cmd := exec.Command(t.path, imgPath, "stdout", "tsv") //#nosec G204 -- binary resolved at construction
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, stderr.String())
	}

	return parseTSV(stdout.String()), nil
}

// parseTSV extracts word-level rows from tesseract TSV output.
// Columns: level page block par line word left top width height conf text.
func parseTSV(out string) []locator.Word {
	var words []locator.Word

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 12 || fields[0] != "5" {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}

		left, _ := strconv.Atoi(fields[6])
		top, _ := strconv.Atoi(fields[7])
		width, _ := strconv.Atoi(fields[8])
		height, _ := strconv.Atoi(fields[9])

		words = append(words, locator.Word{
			Text:       text,
			Bounds:     core.Bounds{X: left, Y: top, Width: width, Height: height},
			Confidence: conf / 100.0,
		})
	}

	return words
}
