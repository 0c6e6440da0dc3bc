package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	datadb "github.com/yungbote/gma-backend/internal/data/db"
	"github.com/yungbote/gma-backend/internal/data/repos"
	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/doctor"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/idcache"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

// DoctorService maps external identities onto internal doctor rows.
type DoctorService interface {
	// ResolveOrCreate returns the doctor id for externalID, creating the row
	// from the hints on first sight. Safe under concurrent first requests.
	ResolveOrCreate(dbc dbctx.Context, externalID, emailHint, nameHint string) (uuid.UUID, error)
	UpsertProfile(dbc dbctx.Context, externalID, email, name string) (*types.Doctor, error)
	GetProfile(dbc dbctx.Context, externalID string) (*types.Doctor, error)
}

type doctorService struct {
	db         *gorm.DB
	log        *logger.Logger
	doctorRepo repos.DoctorRepo
	ids        idcache.Cache
	group      singleflight.Group
}

func NewDoctorService(db *gorm.DB, log *logger.Logger, doctorRepo repos.DoctorRepo, ids idcache.Cache) DoctorService {
	if ids == nil {
		ids = idcache.Nop{}
	}
	return &doctorService{
		db:         db,
		log:        log.With("service", "DoctorService"),
		doctorRepo: doctorRepo,
		ids:        ids,
	}
}

func (s *doctorService) ResolveOrCreate(dbc dbctx.Context, externalID, emailHint, nameHint string) (uuid.UUID, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return uuid.Nil, fmt.Errorf("%w: empty external id", apperrors.ErrInvalidArgument)
	}

	// Inside a caller's transaction the row may still roll back, so neither
	// the cache nor the shared flight may observe it.
	if dbc.Tx != nil {
		return s.resolve(dbc, externalID, emailHint, nameHint)
	}

	if id, ok := s.ids.Get(dbc.Ctx, externalID); ok {
		return id, nil
	}
	v, err, _ := s.group.Do(externalID, func() (any, error) {
		id, err := s.resolve(dbc, externalID, emailHint, nameHint)
		if err != nil {
			return uuid.Nil, err
		}
		s.ids.Set(dbc.Ctx, externalID, id)
		return id, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

func (s *doctorService) resolve(dbc dbctx.Context, externalID, emailHint, nameHint string) (uuid.UUID, error) {
	found, err := s.doctorRepo.GetByExternalID(dbc, externalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup doctor: %w", err)
	}
	if found != nil {
		return found.ID, nil
	}

	created, err := s.doctorRepo.CreateIfAbsent(dbc, &types.Doctor{
		ExternalID: externalID,
		Email:      strings.TrimSpace(emailHint),
		Name:       strings.TrimSpace(nameHint),
		Role:       doctor.DefaultRole,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create doctor: %w", err)
	}

	// Re-read so a concurrent winner's id is returned.
	found, err = s.doctorRepo.GetByExternalID(dbc, externalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reload doctor: %w", err)
	}
	if found == nil {
		return uuid.Nil, fmt.Errorf("doctor %w after create", apperrors.ErrNotFound)
	}
	if created {
		s.log.Info("Doctor created", "doctor_id", found.ID, "external_id", externalID)
	}
	return found.ID, nil
}

func (s *doctorService) UpsertProfile(dbc dbctx.Context, externalID, email, name string) (*types.Doctor, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: empty external id", apperrors.ErrInvalidArgument)
	}
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	var out *types.Doctor
	err := datadb.Transaction(dbc, s.db, func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		found, err := s.doctorRepo.GetByExternalID(inner, externalID)
		if err != nil {
			return err
		}
		if found == nil {
			created, err := s.doctorRepo.CreateIfAbsent(inner, &types.Doctor{
				ExternalID: externalID,
				Email:      email,
				Name:       name,
				Role:       doctor.DefaultRole,
			})
			if err != nil {
				return err
			}
			if !created {
				if found, err = s.doctorRepo.GetByExternalID(inner, externalID); err != nil {
					return err
				}
			}
		}
		if found != nil {
			if err := s.doctorRepo.UpdateProfile(inner, found.ID, email, name); err != nil {
				return err
			}
		}
		out, err = s.doctorRepo.GetByExternalID(inner, externalID)
		if err != nil {
			return err
		}
		if out == nil {
			return fmt.Errorf("doctor %w after upsert", apperrors.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		s.log.Error("UpsertProfile failed", "external_id", externalID, "error", err)
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	if dbc.Tx == nil {
		s.ids.Set(dbc.Ctx, externalID, out.ID)
	}
	return out, nil
}

func (s *doctorService) GetProfile(dbc dbctx.Context, externalID string) (*types.Doctor, error) {
	found, err := s.doctorRepo.GetByExternalID(dbc, strings.TrimSpace(externalID))
	if err != nil {
		return nil, fmt.Errorf("lookup doctor: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("doctor profile %w", apperrors.ErrNotFound)
	}
	return found, nil
}
