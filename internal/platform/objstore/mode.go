package objstore

import (
	"fmt"
	"net/url"
	"strings"
)

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeMinio       Mode = "minio"
)

type Config struct {
	Mode Mode

	// local
	Root string

	// gcs / gcs_emulator
	Bucket          string
	EmulatorHost    string
	CredentialsFile string

	// minio
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeLocal, ModeGCS, ModeGCSEmulator, ModeMinio:
		return true
	default:
		return false
	}
}

func ParseMode(raw string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if m == "" {
		return ModeLocal
	}
	return m
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingRoot         ConfigErrorCode = "missing_root"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorMissingEndpoint     ConfigErrorCode = "missing_endpoint"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Mode  string
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf(
			"invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeLocal, ModeGCS, ModeGCSEmulator, ModeMinio,
		)
	case ConfigErrorMissingRoot:
		return "OBJECT_STORAGE_MODE=local requires UPLOADS_DIR to be set"
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires a bucket name", e.Mode)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ConfigErrorMissingEndpoint:
		return "OBJECT_STORAGE_MODE=minio requires MINIO_ENDPOINT to be set"
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func Validate(cfg Config) error {
	if !IsSupportedMode(cfg.Mode) {
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	switch cfg.Mode {
	case ModeLocal:
		if strings.TrimSpace(cfg.Root) == "" {
			return &ConfigError{Code: ConfigErrorMissingRoot, Mode: string(cfg.Mode)}
		}
	case ModeGCS:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode)}
		}
	case ModeGCSEmulator:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode)}
		}
		if strings.TrimSpace(cfg.EmulatorHost) == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
		}
		u, err := url.Parse(cfg.EmulatorHost)
		if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
			return &ConfigError{
				Code:  ConfigErrorInvalidEmulatorHost,
				Mode:  string(cfg.Mode),
				Value: cfg.EmulatorHost,
				Cause: err,
			}
		}
	case ModeMinio:
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return &ConfigError{Code: ConfigErrorMissingEndpoint, Mode: string(cfg.Mode)}
		}
		if strings.TrimSpace(cfg.Bucket) == "" {
			return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(cfg.Mode)}
		}
	}
	return nil
}
