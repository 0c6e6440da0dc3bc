package objstore

import (
	"context"

	"github.com/yungbote/gma-backend/internal/platform/logger"
)

// New validates cfg and opens the matching backend.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeGCS, ModeGCSEmulator:
		return NewGCS(ctx, log, cfg)
	case ModeMinio:
		return NewMinio(ctx, log, cfg)
	default:
		return NewLocal(log, cfg.Root)
	}
}
