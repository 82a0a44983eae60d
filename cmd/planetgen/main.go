package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OCharnyshevich/planet-generator/internal/config"
	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
	"github.com/OCharnyshevich/planet-generator/internal/storage"
	"github.com/OCharnyshevich/planet-generator/internal/wire"
)

func main() {
	spec := config.DefaultSpec()

	flag.Float64Var(&spec.Radius, "radius", spec.Radius, "planet radius")
	flag.IntVar(&spec.Divisions, "divisions", spec.Divisions, "total subdivisions (points per cube edge = divisions/2)")
	flag.Float64Var(&spec.Wavelength, "wavelength", spec.Wavelength, "noise wavelength")
	flag.Float64Var(&spec.Amplitude, "amplitude", spec.Amplitude, "noise amplitude (0 = smooth sphere)")
	flag.Float64Var(&spec.Offset, "offset", spec.Offset, "noise sampling offset")
	flag.Float64Var(&spec.Oceans, "oceans", spec.Oceans, "ocean exponent")
	flag.Float64Var(&spec.Mountains, "mountains", spec.Mountains, "mountain exponent")
	seed := flag.Int64("seed", 0, "noise seed (0 = time seeded)")
	kernel := flag.String("kernel", noise.DefaultKernel, "noise kernel")
	preset := flag.String("preset", "", "load the spec from <data>/presets/<name>.json; explicit flags override it")
	dataDir := flag.String("data", "data", "data directory")
	out := flag.String("o", "", "write the mesh frame to this file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if *preset != "" {
		store, err := storage.New(*dataDir, log)
		if err != nil {
			log.Error("open data directory", "error", err)
			os.Exit(1)
		}
		p, err := store.LoadPreset(*preset)
		if err != nil {
			log.Error("load preset", "error", err)
			os.Exit(1)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		spec = overrideSpec(p, spec, explicit)
	}

	if *seed == 0 {
		*seed = noise.TimeSeed()
	}
	field, err := noise.New(*kernel, *seed)
	if err != nil {
		log.Error("create noise field", "error", err, "available", noise.Kernels())
		os.Exit(1)
	}

	start := time.Now()
	b, err := mesh.NewGenerator(field, log).GeneratePlanet(spec)
	if err != nil {
		log.Error("generate planet", "error", err)
		os.Exit(1)
	}

	st := b.Stats()
	log.Info("planet generated",
		"seed", *seed,
		"kernel", *kernel,
		"vertices", st.Vertices,
		"triangles", st.Triangles,
		"minRadius", st.MinRadius,
		"maxRadius", st.MaxRadius,
		"elapsed", time.Since(start),
	)

	if *out != "" {
		if err := writeMesh(*out, wire.MeshHeader{Seed: *seed, Kernel: *kernel, Radius: spec.Radius}, b); err != nil {
			log.Error("write mesh", "error", err)
			os.Exit(1)
		}
		log.Info("mesh written", "path", *out)
	}
}

// overrideSpec starts from the preset and applies the flags set on the
// command line.
func overrideSpec(preset, flags mesh.Spec, explicit map[string]bool) mesh.Spec {
	if explicit["radius"] {
		preset.Radius = flags.Radius
	}
	if explicit["divisions"] {
		preset.Divisions = flags.Divisions
	}
	if explicit["wavelength"] {
		preset.Wavelength = flags.Wavelength
	}
	if explicit["amplitude"] {
		preset.Amplitude = flags.Amplitude
	}
	if explicit["offset"] {
		preset.Offset = flags.Offset
	}
	if explicit["oceans"] {
		preset.Oceans = flags.Oceans
	}
	if explicit["mountains"] {
		preset.Mountains = flags.Mountains
	}
	return preset
}

func writeMesh(path string, h wire.MeshHeader, b *mesh.Buffers) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := wire.WriteMesh(f, h, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
