package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/sitenav/internal/validator"
	"github.com/aretw0/sitenav/pkg/schema"
)

// RunValidate crawls the whole navigation and reports broken links, failing branches
// and headers that do not match the configured schema.
func RunValidate(ctx context.Context, cfg Config, logger *slog.Logger, out io.Writer) error {
	var opts []validator.Option
	if len(cfg.Validate.HeaderSchema) > 0 {
		s, err := schema.ParseTypeMap(cfg.Validate.HeaderSchema)
		if err != nil {
			return fmt.Errorf("invalid header schema: %w", err)
		}
		opts = append(opts, validator.WithHeaderSchema(s))
	}
	if cfg.Validate.MaxDepth > 0 {
		opts = append(opts, validator.WithMaxDepth(cfg.Validate.MaxDepth))
	}

	router, closeFn, err := openRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := validator.ValidateNavigation(ctx, router, opts...); err != nil {
		return fmt.Errorf("navigation %s is invalid: %w", cfg.Source, err)
	}
	fmt.Fprintf(out, "✓ Navigation %s is valid.\n", cfg.Source)
	return nil
}
