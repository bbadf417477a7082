package validator

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func setupValid(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	configPath := filepath.Join(dir, "devices.yaml")
	writeFile(t, configPath, "devices:\n  pixel:\n    port: 4723\n")

	assetsDir := filepath.Join(dir, "assets")
	writeFile(t, filepath.Join(assetsDir, "coordinates", "launcher.json"),
		`{"home": {"x": 540, "y": 1800}}`)

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(assetsDir, "images"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(assetsDir, "images", "logo.png"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	return configPath, assetsDir
}

func TestValidate_CleanSetup(t *testing.T) {
	configPath, assetsDir := setupValid(t)

	result := New(configPath, assetsDir).Validate()
	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if len(result.Devices) != 1 || result.Devices[0] != "pixel" {
		t.Errorf("unexpected devices: %+v", result.Devices)
	}
}

func TestValidate_MissingConfig(t *testing.T) {
	result := New(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir()).Validate()
	if result.IsValid() {
		t.Fatal("expected errors for missing config")
	}
}

func TestValidate_MalformedConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "devices.yaml")
	writeFile(t, configPath, "devices: [not a map")

	result := New(configPath, dir).Validate()
	if result.IsValid() {
		t.Fatal("expected errors for malformed YAML")
	}
	if !strings.Contains(result.Errors[0].Error(), "malformed YAML") {
		t.Errorf("unexpected error: %v", result.Errors[0])
	}
}

func TestValidate_NoDevices(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "devices.yaml")
	writeFile(t, configPath, "devices: {}\n")

	result := New(configPath, dir).Validate()
	if result.IsValid() {
		t.Fatal("expected error for empty device list")
	}
}

func TestValidate_PortOutOfRange(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "devices.yaml")
	writeFile(t, configPath, "devices:\n  pixel:\n    port: 99999\n")

	result := New(configPath, dir).Validate()
	if result.IsValid() {
		t.Fatal("expected error for out-of-range port")
	}
	if !strings.Contains(result.Errors[0].Error(), "out of range") {
		t.Errorf("unexpected error: %v", result.Errors[0])
	}
}

func TestValidate_CoordinateMissingAxis(t *testing.T) {
	configPath, assetsDir := setupValid(t)
	writeFile(t, filepath.Join(assetsDir, "coordinates", "broken.json"),
		`{"button": {"x": 10}}`)

	result := New(configPath, assetsDir).Validate()
	if result.IsValid() {
		t.Fatal("expected error for missing y")
	}
	if !strings.Contains(result.Errors[0].Error(), "missing y") {
		t.Errorf("unexpected error: %v", result.Errors[0])
	}
}

func TestValidate_MalformedDataset(t *testing.T) {
	configPath, assetsDir := setupValid(t)
	writeFile(t, filepath.Join(assetsDir, "coordinates", "broken.json"), "{oops")

	result := New(configPath, assetsDir).Validate()
	if result.IsValid() {
		t.Fatal("expected error for malformed dataset")
	}
}

func TestValidate_UndecodableImage(t *testing.T) {
	configPath, assetsDir := setupValid(t)
	writeFile(t, filepath.Join(assetsDir, "images", "junk.png"), "not a png")

	result := New(configPath, assetsDir).Validate()
	if result.IsValid() {
		t.Fatal("expected error for undecodable image")
	}
	if !strings.Contains(result.Errors[0].Error(), "not a decodable image") {
		t.Errorf("unexpected error: %v", result.Errors[0])
	}
}

func TestValidate_MissingAssetsDirIsFine(t *testing.T) {
	configPath, _ := setupValid(t)

	result := New(configPath, filepath.Join(t.TempDir(), "absent")).Validate()
	if !result.IsValid() {
		t.Fatalf("assets directory is optional, got errors: %v", result.Errors)
	}
}
