package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/gma-backend/internal/http/response"
	apperrors "github.com/yungbote/gma-backend/internal/pkg/errors"
	"github.com/yungbote/gma-backend/internal/platform/ctxutil"
	"github.com/yungbote/gma-backend/internal/platform/dbctx"
	"github.com/yungbote/gma-backend/internal/platform/identity"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/services"
)

var (
	errMissingHeader = errors.New("Not authenticated - Missing Authorization header")
	errEmptyToken    = errors.New("Not authenticated - Empty token")
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier identity.Verifier
	doctors  services.DoctorService
}

func NewAuthMiddleware(log *logger.Logger, verifier identity.Verifier, doctors services.DoctorService) *AuthMiddleware {
	return &AuthMiddleware{
		log:      log.With("middleware", "AuthMiddleware"),
		verifier: verifier,
		doctors:  doctors,
	}
}

// RequireAuth verifies the caller's credential and attaches the verified
// identity to the request context. It does not touch the doctor table.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present := credentialFrom(c)
		if !present {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errMissingHeader)
			return
		}
		token := identity.ExtractToken(raw)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errEmptyToken)
			return
		}
		id, err := am.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("Credential rejected", "error", err)
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("Invalid token: %v", err))
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			SubjectID: id.SubjectID,
			Email:     id.Email,
			Name:      id.Name,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireDoctor maps the verified identity onto a doctor row, creating it on
// first sight. It must run after RequireAuth.
func (am *AuthMiddleware) RequireDoctor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.SubjectID == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errMissingHeader)
			return
		}
		if rd.DoctorID != uuid.Nil {
			c.Next()
			return
		}
		id, err := am.doctors.ResolveOrCreate(dbctx.Context{Ctx: c.Request.Context()}, rd.SubjectID, rd.Email, rd.Name)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidArgument) {
				response.AbortError(c, http.StatusUnauthorized, "unauthorized", err)
				return
			}
			am.log.Error("Resolve doctor failed", "external_id", rd.SubjectID, "error", err)
			response.AbortError(c, http.StatusInternalServerError, "internal", errors.New("could not resolve doctor"))
			return
		}
		rd.DoctorID = id
		c.Next()
	}
}

// credentialFrom reads the Authorization header, falling back to a ?token
// query parameter for media elements that cannot set headers.
func credentialFrom(c *gin.Context) (string, bool) {
	if h, ok := c.Request.Header["Authorization"]; ok && len(h) > 0 {
		return h[0], true
	}
	if q, ok := c.GetQuery("token"); ok {
		return strings.TrimSpace(q), true
	}
	return "", false
}
