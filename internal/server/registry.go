package server

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/OCharnyshevich/planet-generator/internal/config"
	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
)

type generatorKey struct {
	kernel string
	seed   int64
}

// Registry caches mesh generators per (kernel, seed), keeping at most a fixed
// number and evicting the least recently used. Generators are read-only after
// construction, so a cached one serves any number of concurrent requests.
// Meshes themselves are never cached.
type Registry struct {
	generators *lru.Cache[generatorKey, *mesh.Generator]
	log        *slog.Logger
}

// NewRegistry creates an empty Registry holding up to size generators.
// A non-positive size selects config.DefaultMaxGenerators.
func NewRegistry(size int, log *slog.Logger) *Registry {
	if size <= 0 {
		size = config.DefaultMaxGenerators
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[generatorKey, *mesh.Generator](size)
	return &Registry{generators: cache, log: log}
}

// GetOrCreate returns the generator for kernel and seed, creating and caching
// it if needed. An empty kernel selects noise.DefaultKernel.
func (r *Registry) GetOrCreate(kernel string, seed int64) (*mesh.Generator, error) {
	if kernel == "" {
		kernel = noise.DefaultKernel
	}
	key := generatorKey{kernel: kernel, seed: seed}

	if g, ok := r.generators.Get(key); ok {
		return g, nil
	}

	field, err := noise.New(kernel, seed)
	if err != nil {
		return nil, err
	}
	g := mesh.NewGenerator(field, r.log)

	// Another request may have created the same generator meanwhile.
	if existing, ok, _ := r.generators.PeekOrAdd(key, g); ok {
		return existing, nil
	}

	r.log.Debug("noise generator created", "kernel", kernel, "seed", seed, "cached", r.generators.Len())
	return g, nil
}

// Len returns the number of cached generators.
func (r *Registry) Len() int {
	return r.generators.Len()
}
