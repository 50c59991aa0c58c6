package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// ManifestFile names the manifest every plugin directory carries.
const ManifestFile = "plugin.json"

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrActionUnsupported is returned when a plugin does not declare a required action.
	ErrActionUnsupported = errors.New("plugin does not support action")
	// ErrInvalidManifest marks a plugin.json that cannot describe a runnable plugin.
	ErrInvalidManifest = errors.New("invalid plugin manifest")
	// ErrNotExecutable marks a plugin whose executable is missing or cannot be run.
	ErrNotExecutable = errors.New("plugin executable not runnable")
)

// Manager finds action plugins under a directory, one plugin per
// subdirectory. A plugin is usable when its manifest names it and an
// executable inside its directory, the executable can be run, and it
// declares every action the manager was created with. Plugins failing a
// check are kept aside with the reason.
type Manager struct {
	dir      string
	required []string

	mu      sync.RWMutex
	plugins map[string]*Plugin
	skipped map[string]error
}

// NewManager creates a Manager for dir. Plugins that do not declare every
// required action are skipped by Discover.
func NewManager(dir string, required ...string) *Manager {
	return &Manager{
		dir:      dir,
		required: required,
		plugins:  make(map[string]*Plugin),
		skipped:  make(map[string]error),
	}
}

// Discover rescans the plugin directory, replacing what an earlier scan
// found. A missing directory, or a file in its place, holds no plugins.
// Subdirectories without a manifest are ignored.
func (m *Manager) Discover() error {
	plugins := make(map[string]*Plugin)
	skipped := make(map[string]error)

	info, err := os.Stat(m.dir)
	switch {
	case errors.Is(err, fs.ErrNotExist), err == nil && !info.IsDir():
		m.replace(plugins, skipped)
		return nil
	case err != nil:
		return err
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := m.load(filepath.Join(m.dir, entry.Name()))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			key := entry.Name()
			if p != nil && p.Manifest.Name != "" {
				key = p.Manifest.Name
			}
			skipped[key] = err
		default:
			plugins[p.Manifest.Name] = p
		}
	}

	m.replace(plugins, skipped)
	return nil
}

func (m *Manager) replace(plugins map[string]*Plugin, skipped map[string]error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = plugins
	m.skipped = skipped
}

// load reads the plugin in dir. It returns fs.ErrNotExist when dir has no
// manifest, and the partly loaded plugin alongside any later failure.
func (m *Manager) load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	p := &Plugin{Manifest: manifest, Path: dir}
	switch {
	case manifest.Name == "":
		return p, fmt.Errorf("%w: missing name", ErrInvalidManifest)
	case manifest.Executable == "":
		return p, fmt.Errorf("%w: missing executable", ErrInvalidManifest)
	case !filepath.IsLocal(manifest.Executable):
		return p, fmt.Errorf("%w: executable %q outside plugin directory", ErrInvalidManifest, manifest.Executable)
	}

	p.Executable = filepath.Join(dir, manifest.Executable)
	if err := checkExecutable(p.Executable); err != nil {
		return p, err
	}

	for _, action := range m.required {
		if !manifest.Supports(action) {
			return p, fmt.Errorf("%s: %w", action, ErrActionUnsupported)
		}
	}

	return p, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotExecutable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotExecutable, path)
	}
	// Windows has no execute bit.
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s has no execute permission", ErrNotExecutable, path)
	}
	return nil
}

// Get returns a usable plugin by manifest name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return plugin, nil
}

// Require returns the named plugin if it declares action. For a plugin that
// Discover skipped, the error carries the reason it was skipped.
func (m *Manager) Require(name, action string) (*Plugin, error) {
	m.mu.RLock()
	plugin, ok := m.plugins[name]
	reason, skipped := m.skipped[name]
	m.mu.RUnlock()

	switch {
	case ok:
	case skipped:
		return nil, fmt.Errorf("%s: %w", name, reason)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrPluginNotFound)
	}

	if !plugin.Manifest.Supports(action) {
		return nil, fmt.Errorf("%s %s: %w", name, action, ErrActionUnsupported)
	}
	return plugin, nil
}

// List returns the usable plugins ordered by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Manifest.Name < plugins[j].Manifest.Name })
	return plugins
}

// Skipped maps each plugin Discover passed over to the reason. Plugins are
// keyed by manifest name, or by directory name when the manifest has none.
func (m *Manager) Skipped() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	skipped := make(map[string]error, len(m.skipped))
	for name, reason := range m.skipped {
		skipped[name] = reason
	}
	return skipped
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.dir
}
