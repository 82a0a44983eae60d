package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	getter "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/planet-generator/internal/storage"
)

func main() {
	var (
		src     = flag.String("src", "", "preset source (git::https://host/repo.git//presets, https://host/presets.zip, or a local path)")
		dataDir = flag.String("data", "data", "data directory")
		keep    = flag.Bool("keep", false, "keep the downloaded tree under <data>/.presetsync")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *src == "" {
		fmt.Fprintln(os.Stderr, "error: -src flag is required")
		flag.Usage()
		os.Exit(1)
	}

	store, err := storage.New(*dataDir, log)
	if err != nil {
		log.Error("open data directory", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dst := filepath.Join(*dataDir, ".presetsync")
	if err := os.RemoveAll(dst); err != nil {
		log.Error("clean download directory", "error", err)
		os.Exit(1)
	}
	if !*keep {
		defer os.RemoveAll(dst)
	}

	log.Info("start downloading presets", "src", *src, "dst", dst)
	if err := fetch(ctx, *src, dst); err != nil {
		log.Error("download presets", "error", err)
		os.Exit(1)
	}

	imported, skipped, err := importPresets(store, dst, log)
	if err != nil {
		log.Error("import presets", "error", err)
		os.Exit(1)
	}
	log.Info("done importing presets", "imported", imported, "skipped", skipped, "dir", store.PresetDir())
}

func fetch(ctx context.Context, src, dst string) error {
	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("get %s: %w", src, err)
	}
	return nil
}
