package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/gma-backend/internal/observability"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/platform/objstore"
	"github.com/yungbote/gma-backend/internal/services"
)

type Services struct {
	Doctor    services.DoctorService
	Upload    services.UploadService
	BlindTest services.BlindTestService
	Reconcile services.ReconcileService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	clients Clients,
	store objstore.Store,
	metrics *observability.Metrics,
) Services {
	log.Info("Wiring services...")

	seed := cfg.ScorerSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return Services{
		Doctor:    services.NewDoctorService(db, log, reposet.Doctor, clients.DoctorIDs),
		Upload:    services.NewUploadService(db, log, reposet.VideoUpload, store, metrics, cfg.Upload()),
		BlindTest: services.NewBlindTestService(db, log, reposet.VideoUpload, reposet.BlindTest, services.NewRandomScorer(seed), metrics),
		Reconcile: services.NewReconcileService(log, reposet.VideoUpload, store, services.DefaultReconcileGrace),
	}
}
