package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/sitenav/pkg/adapters/file"
	loamAdapter "github.com/aretw0/sitenav/pkg/adapters/loam"
	"github.com/aretw0/sitenav/pkg/domain"
)

// OpenNavigation loads the navigation described by cfg.Source.
// Files with a .yaml/.yml/.toml/.json extension are decoded directly; directories are
// read as markdown pages through Loam. With cfg.Watch the returned root follows the
// source until ctx is done. The returned close func releases the source.
func OpenNavigation(ctx context.Context, cfg Config, logger *slog.Logger) (*domain.Node, func(), error) {
	info, err := os.Stat(cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("navigation source: %w", err)
	}

	if !info.IsDir() {
		return openFile(ctx, cfg, logger)
	}
	return openDirectory(ctx, cfg, logger)
}

func openFile(ctx context.Context, cfg Config, logger *slog.Logger) (*domain.Node, func(), error) {
	src, err := file.New(cfg.Source, file.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Watch {
		root, err := src.Load(ctx)
		return root, func() {}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	root, err := src.Watch(ctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	logger.Info("Watching navigation file", "path", src.Path())
	return root, cancel, nil
}

func openDirectory(ctx context.Context, cfg Config, logger *slog.Logger) (*domain.Node, func(), error) {
	absPath, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid path: %w", err)
	}

	// Navigation never writes pages back.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	src := loamAdapter.New(loam.NewTypedRepository[loamAdapter.PageMetadata](repo), loamAdapter.WithLogger(logger))
	root, err := src.Load(ctx)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	if !cfg.Watch {
		return root, src.Close, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := src.Watch(ctx); err != nil {
		cancel()
		src.Close()
		return nil, nil, err
	}
	logger.Info("Watching navigation directory", "path", absPath)
	return root, func() {
		cancel()
		src.Close()
	}, nil
}
