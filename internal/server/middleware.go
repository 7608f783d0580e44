package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/timelineai/internal/types"
)

const requestIDHeader = "X-Request-ID"

// requestID tags each request with an id, honouring one sent by the client,
// and logs the request once it completes.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := types.RequestID(c.GetHeader(requestIDHeader))
		if id == "" {
			id = types.NewRequestID()
		}
		c.Header(requestIDHeader, string(id))
		c.Request = c.Request.WithContext(types.WithRequestID(c.Request.Context(), id))

		c.Next()

		slog.Info("http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// cors allows browser clients from origin to call the API.
func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// recovery turns a panic into a 500 response and keeps the process alive.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		slog.Error("handler panic", "request_id", types.RequestIDFrom(c.Request.Context()), "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, failure(msgInternal))
	})
}
