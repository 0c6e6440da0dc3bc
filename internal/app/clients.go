package app

import (
	"fmt"

	"github.com/yungbote/gma-backend/internal/clients/redis"
	"github.com/yungbote/gma-backend/internal/platform/idcache"
	"github.com/yungbote/gma-backend/internal/platform/identity"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

type Clients struct {
	DoctorIDs idcache.Cache
	Verifier  identity.Verifier

	redisCache *redis.DoctorIDCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	verifier, err := resolveVerifier(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	out := Clients{Verifier: verifier}
	if cfg.RedisAddr != "" {
		c, err := redis.NewDoctorIDCache(log, cfg.RedisAddr, cfg.DoctorCacheTTL)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis doctor cache: %w", err)
		}
		out.DoctorIDs = c
		out.redisCache = c
	} else {
		out.DoctorIDs = idcache.NewMemory(cfg.DoctorCacheTTL)
	}
	return out, nil
}

// resolveVerifier picks the credential verifier for AUTH_MODE.
func resolveVerifier(log *logger.Logger, cfg Config) (identity.Verifier, error) {
	switch cfg.Auth.Mode {
	case AuthModeHS256:
		log.Warn("Using shared-secret token verification; not for production")
		return identity.NewHS256(cfg.Auth.SecretKey)
	default:
		project := cfg.Auth.FirebaseProjectID
		if project == "" {
			p, err := identity.ProjectIDFromCredentials(cfg.Auth.FirebaseCredentialsPath)
			if err != nil {
				return nil, fmt.Errorf("resolve firebase project: %w", err)
			}
			project = p
		}
		log.Info("Using Firebase token verification", "project_id", project)
		return identity.NewFirebase(identity.FirebaseOptions{ProjectID: project})
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.redisCache != nil {
		_ = c.redisCache.Close()
	}
}
