package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OCharnyshevich/planet-generator/internal/config"
	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
)

const presetExt = ".json"

var (
	// ErrPresetNotFound is returned when no preset file exists for a name.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrInvalidPresetName is returned for names that are not a plain file stem.
	ErrInvalidPresetName = errors.New("invalid preset name")
)

// Storage handles file-based persistence for config and planet presets.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a new Storage rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	dirs := []string{
		dir,
		filepath.Join(dir, "presets"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return &Storage{dir: dir, log: log}, nil
}

// PresetDir returns the directory preset files live in.
func (s *Storage) PresetDir() string {
	return filepath.Join(s.dir, "presets")
}

// LoadConfig reads config.json into cfg. If the file does not exist, cfg is unchanged.
func (s *Storage) LoadConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	s.log.Info("loaded config from file", "path", path)
	return nil
}

// SaveConfig writes cfg to config.json atomically.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	return s.atomicWriteJSON(path, cfg)
}

// LoadPreset reads presets/<name>.json.
func (s *Storage) LoadPreset(name string) (mesh.Spec, error) {
	path, err := s.presetPath(name)
	if err != nil {
		return mesh.Spec{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mesh.Spec{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return mesh.Spec{}, fmt.Errorf("read preset %s: %w", name, err)
	}

	var spec mesh.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return mesh.Spec{}, fmt.Errorf("parse preset %s: %w", name, err)
	}
	return spec, nil
}

// SavePreset validates spec and writes it to presets/<name>.json atomically.
func (s *Storage) SavePreset(name string, spec mesh.Spec) error {
	path, err := s.presetPath(name)
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", name, err)
	}
	if err := s.atomicWriteJSON(path, spec); err != nil {
		return err
	}
	s.log.Info("saved preset", "name", name, "path", path)
	return nil
}

// ListPresets returns the sorted names of all stored presets.
func (s *Storage) ListPresets() ([]string, error) {
	entries, err := os.ReadDir(s.PresetDir())
	if err != nil {
		return nil, fmt.Errorf("read preset dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != presetExt {
			continue
		}
		name := strings.TrimSuffix(e.Name(), presetExt)
		if validName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// InstallBuiltins writes every builtin preset that is not already stored.
// It returns the number of presets written.
func (s *Storage) InstallBuiltins() (int, error) {
	written := 0
	for _, name := range BuiltinNames() {
		path, err := s.presetPath(name)
		if err != nil {
			return written, err
		}
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := s.atomicWriteJSON(path, Builtins[name]); err != nil {
			return written, fmt.Errorf("install preset %s: %w", name, err)
		}
		written++
	}
	if written > 0 {
		s.log.Info("installed builtin presets", "count", written)
	}
	return written, nil
}

func (s *Storage) presetPath(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPresetName, name)
	}
	return filepath.Join(s.PresetDir(), name+presetExt), nil
}

// validName accepts ASCII letters, digits, '-' and '_' only, so a name can
// never escape the preset directory.
func validName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// atomicWriteJSON marshals v to JSON and writes it atomically using a temp file + rename.
func (s *Storage) atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
