package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/gma-backend/internal/observability"
)

const unmatchedRoute = "unmatched"

// Metrics labels each request by its route template. Unmatched paths share
// one label to keep scanner traffic from creating new series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		done := m.BeginRequest()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		done(c.Request.Method, route, c.Writer.Status())
	}
}
