package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/domain/screening"
	"github.com/yungbote/gma-backend/internal/http/response"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/services"
)

type BlindTestHandler struct {
	log   *logger.Logger
	tests services.BlindTestService
}

func NewBlindTestHandler(log *logger.Logger, tests services.BlindTestService) *BlindTestHandler {
	return &BlindTestHandler{log: log.With("handler", "BlindTestHandler"), tests: tests}
}

type blindTestRequest struct {
	VideoIDs []uuid.UUID `json:"video_ids"`
}

// POST /api/tests/instant
func (h *BlindTestHandler) Instant(c *gin.Context) { h.run(c, screening.TestTypeInstant) }

// POST /api/tests/full
func (h *BlindTestHandler) Full(c *gin.Context) { h.run(c, screening.TestTypeFull) }

func (h *BlindTestHandler) run(c *gin.Context, testType string) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	var req blindTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	test, err := h.tests.Run(dbcFrom(c), doctorID, testType, req.VideoIDs)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, test)
}

// GET /api/tests/history
func (h *BlindTestHandler) History(c *gin.Context) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	rows, err := h.tests.History(dbcFrom(c), doctorID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []*types.BlindTest{}
	}
	response.RespondOK(c, rows)
}
