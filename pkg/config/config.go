// Package config handles device configuration for appium-vision.
package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// DeviceProfile holds the connection parameters for one logical device (DUT).
type DeviceProfile struct {
	Name         string                 `yaml:"-"`
	Host         string                 `yaml:"host"`
	Port         int                    `yaml:"port"`
	Capabilities map[string]interface{} `yaml:"capabilities"`
}

// ServerURL returns the automation server URL for this device.
func (p DeviceProfile) ServerURL() string {
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := p.Port
	if port == 0 {
		port = 4723
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// File is the on-disk shape of devices.yaml.
type File struct {
	Devices map[string]DeviceProfile `yaml:"devices"`
}

// Registry resolves logical device names to profiles. The configuration file
// is read once, lazily, on first resolve; it is never reloaded. Malformed or
// missing files surface as unknown-device errors at resolve time, not at
// construction time.
type Registry struct {
	path string

	once    sync.Once
	devices map[string]DeviceProfile
	loadErr error
}

// NewRegistry creates a registry backed by the given devices.yaml path.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Resolve returns the profile for a logical device name.
func (r *Registry) Resolve(name string) (DeviceProfile, error) {
	r.once.Do(r.load)

	if r.loadErr != nil {
		return DeviceProfile{}, core.ErrUnknownDevice.
			WithDevice(name, "resolve").
			WithCause(r.loadErr)
	}

	profile, ok := r.devices[name]
	if !ok {
		return DeviceProfile{}, core.ErrUnknownDevice.WithDevice(name, "resolve")
	}
	profile.Name = name
	return profile, nil
}

// Names returns the configured logical device names.
func (r *Registry) Names() ([]string, error) {
	r.once.Do(r.load)
	if r.loadErr != nil {
		return nil, r.loadErr
	}

	names := make([]string, 0, len(r.devices))
	for name := range r.devices {
		names = append(names, name)
	}
	return names, nil
}

func (r *Registry) load() {
	data, err := os.ReadFile(r.path) //#nosec G304 -- user-provided config file
	if err != nil {
		r.loadErr = err
		return
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		r.loadErr = fmt.Errorf("parse %s: %w", r.path, err)
		return
	}

	r.devices = f.Devices
}

// DefaultPath returns the devices.yaml location.
//
// Resolution order:
//  1. $APPIUM_VISION_CONFIG environment variable
//  2. devices.yaml in the current working directory
func DefaultPath() string {
	if env := os.Getenv("APPIUM_VISION_CONFIG"); env != "" {
		return env
	}
	return "devices.yaml"
}
