// Package session owns the live automation sessions, one per logical device.
package session

import (
	"sync"
	"time"

	"github.com/devicelab-dev/appium-vision/pkg/config"
	"github.com/devicelab-dev/appium-vision/pkg/core"
	"github.com/devicelab-dev/appium-vision/pkg/driver/appium"
	"github.com/devicelab-dev/appium-vision/pkg/logger"
)

// Session is a live connection to the automation server for one DUT. The
// connection is lent to other components for the duration of one operation;
// ownership stays with the Manager.
type Session struct {
	Name      string
	Conn      core.Connection
	CreatedAt time.Time
}

// Resolver resolves logical device names to connection profiles.
type Resolver interface {
	Resolve(name string) (config.DeviceProfile, error)
}

// DialFunc opens a new connection for a device profile.
type DialFunc func(profile config.DeviceProfile) (core.Connection, error)

// DialAppium is the default DialFunc, connecting through the Appium client.
func DialAppium(profile config.DeviceProfile) (core.Connection, error) {
	client := appium.NewClient(profile.ServerURL())
	if err := client.Connect(profile.Capabilities); err != nil {
		return nil, err
	}
	return client, nil
}

// Manager creates, reuses, and tears down sessions. At most one live session
// exists per logical name. Each name has its own lock, so a slow probe or
// dial against one device never stalls session acquisition for another; the
// manager mutex only guards the two maps.
type Manager struct {
	mu       sync.Mutex
	registry Resolver
	dial     DialFunc
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

// NewManager creates a session manager. A nil dial uses DialAppium.
func NewManager(registry Resolver, dial DialFunc) *Manager {
	if dial == nil {
		dial = DialAppium
	}
	return &Manager{
		registry: registry,
		dial:     dial,
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-device lock, creating it on first use.
func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

func (m *Manager) lookup(name string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[name]
	return s, ok
}

func (m *Manager) remove(name string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[name]
	if ok {
		delete(m.sessions, name)
	}
	return s, ok
}

// GetOrCreate returns the live session for a device, creating one if needed.
// An existing session gets a liveness probe first; a failed probe forces one
// silent recreation instead of surfacing an error. The check-then-act runs
// under the device's own lock, keeping the at-most-one-session invariant.
func (m *Manager) GetOrCreate(name string) (*Session, error) {
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if s, ok := m.lookup(name); ok {
		if s.Conn.Live() {
			return s, nil
		}
		logger.Warn("session for %s failed liveness probe, recreating", name)
		// Close before replacing so the remote session is not leaked.
		_ = s.Conn.Close()
		m.remove(name)
	}

	profile, err := m.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	conn, err := m.dial(profile)
	if err != nil {
		return nil, core.ErrSessionStart.WithDevice(name, "get_or_create").WithCause(err)
	}

	s := &Session{
		Name:      name,
		Conn:      conn,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[name] = s
	m.mu.Unlock()
	logger.Info("started session for %s", name)
	return s, nil
}

// Stop closes the session for a device. Calling it on an already-stopped or
// never-started device is a no-op.
func (m *Manager) Stop(name string) error {
	lock := m.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	s, ok := m.remove(name)
	if !ok {
		return nil
	}
	logger.Info("stopped session for %s", name)
	return s.Conn.Close()
}

// StopAll closes every active session. Used for suite teardown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		_ = m.Stop(name)
	}
}

// Active reports whether a live session is tracked for the device. It does
// not probe the connection.
func (m *Manager) Active(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[name]
	return ok
}
