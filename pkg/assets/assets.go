// Package assets resolves named coordinate and reference-image assets from a
// resources directory.
package assets

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/png" // reference image decoding

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// Store looks up assets under a base directory:
//
//	<base>/coordinates/<dataset>.json  named {x,y} points
//	<base>/images/<name>               reference images for template matching
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Coordinate returns the named point from a coordinate dataset.
func (s *Store) Coordinate(dataset, key string) (core.Point, error) {
	if !strings.HasSuffix(dataset, ".json") {
		dataset += ".json"
	}
	path := filepath.Join(s.baseDir, "coordinates", dataset)

	data, err := os.ReadFile(path) //#nosec G304 -- test-authored asset file
	if err != nil {
		return core.Point{}, core.ErrAssetNotFound.
			WithMessage("coordinate dataset not found: " + dataset).
			WithCause(err)
	}

	var entries map[string]map[string]interface{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return core.Point{}, core.ErrAssetNotFound.
			WithMessage("malformed coordinate dataset: " + dataset).
			WithCause(err)
	}

	entry, ok := entries[key]
	if !ok {
		return core.Point{}, core.ErrAssetNotFound.
			WithMessage("key not found in " + dataset + ": " + key)
	}

	x, xok := toInt(entry["x"])
	y, yok := toInt(entry["y"])
	if !xok || !yok {
		return core.Point{}, core.ErrAssetNotFound.
			WithMessage("entry has no numeric x/y in " + dataset + ": " + key)
	}

	return core.Point{X: x, Y: y}, nil
}

// Image loads a named reference image.
func (s *Store) Image(name string) (image.Image, error) {
	path := filepath.Join(s.baseDir, "images", name)

	f, err := os.Open(path) //#nosec G304 -- test-authored asset file
	if err != nil {
		return nil, core.ErrAssetNotFound.
			WithMessage("reference image not found: " + name).
			WithCause(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, core.ErrAssetNotFound.
			WithMessage("undecodable reference image: " + name).
			WithCause(err)
	}
	return img, nil
}

// toInt accepts the number and string encodings coordinate files use.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
