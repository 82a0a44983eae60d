package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/storage"
)

// importPresets walks dir for *.json files and saves every one that parses
// as a valid spec. Invalid files are logged and skipped. dir may be a
// symlink, which is what local sources are fetched as.
func importPresets(store *storage.Storage, dir string, log *slog.Logger) (imported, skipped int, err error) {
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve %s: %w", dir, err)
	}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), ".json")
		spec, err := readSpec(path)
		if err != nil {
			log.Warn("skip preset", "path", path, "error", err)
			skipped++
			return nil
		}
		if err := store.SavePreset(name, spec); err != nil {
			log.Warn("skip preset", "path", path, "error", err)
			skipped++
			return nil
		}
		imported++
		return nil
	})
	if err != nil {
		return imported, skipped, fmt.Errorf("walk %s: %w", dir, err)
	}
	return imported, skipped, nil
}

func readSpec(path string) (mesh.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mesh.Spec{}, err
	}
	var spec mesh.Spec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return mesh.Spec{}, fmt.Errorf("parse: %w", err)
	}
	return spec, nil
}
