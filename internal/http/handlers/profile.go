package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gma-backend/internal/http/response"
	"github.com/yungbote/gma-backend/internal/platform/ctxutil"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/services"
)

type ProfileHandler struct {
	log     *logger.Logger
	doctors services.DoctorService
}

func NewProfileHandler(log *logger.Logger, doctors services.DoctorService) *ProfileHandler {
	return &ProfileHandler{log: log.With("handler", "ProfileHandler"), doctors: doctors}
}

type profileRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

// POST /api/auth/profile
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.SubjectID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNoIdentity)
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	doc, err := h.doctors.UpsertProfile(dbctx.Context{Ctx: c.Request.Context()}, rd.SubjectID, req.Email, req.Name)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, doc)
}

// GET /api/auth/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.SubjectID == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNoIdentity)
		return
	}
	doc, err := h.doctors.GetProfile(dbctx.Context{Ctx: c.Request.Context()}, rd.SubjectID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, doc)
}
