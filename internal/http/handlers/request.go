package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/gma-backend/internal/http/response"
	"github.com/yungbote/gma-backend/internal/platform/ctxutil"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
)

var errNoIdentity = errors.New("Not authenticated")

func dbcFrom(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// requireDoctorID reads the doctor resolved by the auth middleware and
// answers 401 itself when it is absent.
func requireDoctorID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.DoctorID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNoIdentity)
		return uuid.Nil, false
	}
	return rd.DoctorID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid %s: %q", name, raw))
		return uuid.Nil, false
	}
	return id, true
}
