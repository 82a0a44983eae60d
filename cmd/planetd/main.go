package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/planet-generator/internal/config"
	"github.com/OCharnyshevich/planet-generator/internal/planet/noise"
	"github.com/OCharnyshevich/planet-generator/internal/server"
	"github.com/OCharnyshevich/planet-generator/internal/storage"
)

func main() {
	cfg := config.DefaultConfig()

	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "noise seed (0 = time seeded)")
	flag.StringVar(&cfg.Kernel, "kernel", cfg.Kernel, "noise kernel")
	flag.IntVar(&cfg.MaxDivisions, "max-divisions", cfg.MaxDivisions, "largest divisions value accepted from clients")
	flag.IntVar(&cfg.MaxGenerators, "max-generators", cfg.MaxGenerators, "noise generators kept in the (kernel, seed) cache")
	flag.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory for config and presets")
	saveConfig := flag.Bool("save-config", false, "write the effective config to <data>/config.json")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := storage.New(cfg.DataDir, log)
	if err != nil {
		log.Error("open data directory", "error", err)
		os.Exit(1)
	}

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fromFile := config.DefaultConfig()
	if err := store.LoadConfig(fromFile); err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	config.Merge(cfg, fromFile, explicit)

	if *saveConfig {
		if err := store.SaveConfig(cfg); err != nil {
			log.Error("save config", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Seed == 0 {
		cfg.Seed = noise.TimeSeed()
		log.Info("no seed configured, using time seed", "seed", cfg.Seed)
	}
	if _, err := noise.New(cfg.Kernel, cfg.Seed); err != nil {
		log.Error("invalid kernel", "kernel", cfg.Kernel, "error", err, "available", noise.Kernels())
		os.Exit(1)
	}
	if err := cfg.DefaultSpec.Validate(); err != nil {
		log.Error("invalid default spec", "error", err)
		os.Exit(1)
	}

	if _, err := store.InstallBuiltins(); err != nil {
		log.Error("install builtin presets", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(cfg, store, log)
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
