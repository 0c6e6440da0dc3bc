package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/gma-backend/internal/platform/ctxutil"
	"github.com/yungbote/gma-backend/internal/platform/logger"
)

// Health and scrape routes answered with 200 are not access logged.
var quietRoutes = map[string]bool{
	"/health":      true,
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one access line per request, leveled by status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if quietRoutes[route] && status < 400 {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}
		log := log.With(accessFields(c)...)
		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_in", c.Request.ContentLength,
			"bytes_out", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "errors", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// accessFields collects the correlation ids set by earlier middleware.
func accessFields(c *gin.Context) []any {
	ctx := c.Request.Context()
	var out []any
	if td := ctxutil.GetTraceData(ctx); td != nil {
		out = append(out, "trace_id", td.TraceID, "request_id", td.RequestID)
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		if rd.SubjectID != "" {
			out = append(out, "external_id", rd.SubjectID)
		}
		if rd.DoctorID != uuid.Nil {
			out = append(out, "doctor_id", rd.DoctorID.String())
		}
	}
	return out
}
