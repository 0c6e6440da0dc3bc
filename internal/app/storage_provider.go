package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
)

var newObjectStore = objstore.New

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorInvalidConfig StorageBootstrapErrorCode = "invalid_config"
	StorageBootstrapErrorConnectFailed StorageBootstrapErrorCode = "connect_failed"
)

// StorageBootstrapError explains why no video store could be opened.
type StorageBootstrapError struct {
	Code       StorageBootstrapErrorCode
	ConfigCode objstore.ConfigErrorCode
	Mode       string
	Cause      error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "video storage bootstrap failed"
	}
	return fmt.Sprintf("video storage bootstrap failed (code=%s config_code=%s mode=%q): %v",
		e.Code, e.ConfigCode, e.Mode, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveObjectStore(ctx context.Context, log *logger.Logger, cfg Config) (objstore.Store, error) {
	storeCfg := cfg.ObjectStore()
	log.Info("Selecting video storage backend",
		"mode", storeCfg.Mode,
		"root", storeCfg.Root,
		"bucket", storeCfg.Bucket,
		"emulator_host", storeCfg.EmulatorHost,
		"endpoint", storeCfg.Endpoint,
	)
	store, err := newObjectStore(ctx, log, storeCfg)
	if err != nil {
		classified := classifyStorageBootstrapError(storeCfg, err)
		log.Error("Video storage bootstrap failed", "mode", storeCfg.Mode, "error", classified)
		return nil, classified
	}
	return store, nil
}

func classifyStorageBootstrapError(storeCfg objstore.Config, err error) error {
	var cfgErr *objstore.ConfigError
	if errors.As(err, &cfgErr) {
		return &StorageBootstrapError{
			Code:       StorageBootstrapErrorInvalidConfig,
			ConfigCode: cfgErr.Code,
			Mode:       string(storeCfg.Mode),
			Cause:      err,
		}
	}
	return &StorageBootstrapError{
		Code:  StorageBootstrapErrorConnectFailed,
		Mode:  string(storeCfg.Mode),
		Cause: err,
	}
}
