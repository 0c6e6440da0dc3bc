package domain

import (
	"github.com/yungbote/gma-backend/internal/domain/doctor"
	"github.com/yungbote/gma-backend/internal/domain/screening"
	"github.com/yungbote/gma-backend/internal/domain/uploads"
)

type (
	Doctor         = doctor.Doctor
	VideoUpload    = uploads.VideoUpload
	BlindTest      = screening.BlindTest
	Classification = screening.Classification
	SubScores      = screening.SubScores
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&doctor.Doctor{},
		&uploads.VideoUpload{},
		&screening.BlindTest{},
	}
}
