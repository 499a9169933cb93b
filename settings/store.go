// Package settings persists the indicator palette and unit labels in a YAML
// file and serves them to the indicator workers.
//
// The file lives at ~/.config/menu-meters/settings.yaml by default and is
// seeded from the embedded defaults on first use:
//
//	processorUserUsedGraphColor: "#2ecc71"
//	networkRateUnit: "Ko/s"
//	...
package settings

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/menu-meters/display/canvas"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// ErrMissingKey is returned for keys absent from the settings file.
	ErrMissingKey = errors.New("settings: missing key")

	// ErrInvalidColor is returned when a value cannot be read as a colour.
	ErrInvalidColor = errors.New("settings: invalid color")
)

// Store is a concurrency-safe view of the settings file. Reads take a shared
// lock; Set and reloads take the exclusive lock.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	values map[string]string

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// DefaultPath returns the settings file location under the XDG config
// directory.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "menu-meters", "settings.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "menu-meters", "settings.yaml")
	}
	return filepath.Join(home, ".config", "menu-meters", "settings.yaml")
}

// Defaults returns the packaged palette.
func Defaults() (map[string]string, error) {
	return decode(defaultsYAML)
}

// Open loads the settings file at path, creating it from the packaged
// defaults when it does not exist.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if path == "" {
		path = DefaultPath()
	}
	s := &Store{path: filepath.Clean(path), logger: logger}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		values, derr := Defaults()
		if derr != nil {
			return nil, derr
		}
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return nil, fmt.Errorf("settings: create directory: %w", err)
		}
		if err := writeAtomic(s.path, defaultsYAML); err != nil {
			return nil, err
		}
		logger.Info("settings: seeded defaults", "path", s.path)
		s.values = values
	case err != nil:
		return nil, fmt.Errorf("settings: read %s: %w", s.path, err)
	default:
		values, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %w", s.path, err)
		}
		s.values = values
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the raw value for key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

// String returns the value for key as plain text.
func (s *Store) String(key string) (string, error) {
	return s.Get(key)
}

// Color returns the value for key as an opaque colour.
func (s *Store) Color(key string) (canvas.Color, error) {
	v, err := s.Get(key)
	if err != nil {
		return canvas.Color{}, err
	}
	c, err := ParseColor(v)
	if err != nil {
		return canvas.Color{}, fmt.Errorf("%s: %w", key, err)
	}
	return c, nil
}

// Set stores value under key and rewrites the file. Keys ending in "Color"
// must hold a parseable colour.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return errors.New("settings: empty key")
	}
	if strings.HasSuffix(key, "Color") {
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[key] = value

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Missing returns the subset of keys that are not stored.
func (s *Store) Missing(keys ...string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var missing []string
	for _, k := range keys {
		if _, ok := s.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Reload re-reads the file. On a read or parse error, or when the file is
// empty (caught mid-write), the current values are kept and the error
// returned.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("settings: %s is empty", s.path)
	}
	values, err := decode(data)
	if err != nil {
		return fmt.Errorf("settings: %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// ParseColor accepts "#rrggbb", "#rgb", "0xRRGGBB" or a decimal integer
// holding 0xRRGGBB.
func ParseColor(v string) (canvas.Color, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "#") {
		c, err := colorful.Hex(v)
		if err != nil {
			return canvas.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
		}
		r, g, b := c.RGB255()
		return canvas.Color{R: r, G: g, B: b, A: 0xff}, nil
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil || n < 0 || n > 0xffffff {
		return canvas.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}
	return canvas.Hex(int(n)), nil
}

// decode reads a flat YAML mapping. Scalar values of any type are kept in
// their textual form so integers written by older versions still parse as
// colours.
func decode(data []byte) (map[string]string, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %s: expected a scalar value", k)
		}
		values[k] = node.Value
	}
	return values, nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place with 0600 permissions.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-settings-*.yaml")
	if err != nil {
		return fmt.Errorf("settings: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("settings: chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("settings: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("settings: rename temp: %w", err)
	}
	success = true
	return nil
}
