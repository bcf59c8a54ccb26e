package server

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaki95/streampay/internal/x402"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
)

var exposedHeaders = strings.Join([]string{
	x402.PaymentResponseHeader,
	headerDuration,
	headerPricePerMinute,
	headerTotalPrice,
	requestIDHeader,
}, ", ")

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+x402.PaymentHeader+", "+requestIDHeader)
		c.Header("Access-Control-Expose-Headers", exposedHeaders)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestID reuses a well-formed incoming X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func logger(c *gin.Context) *slog.Logger {
	return slog.With(requestIDKey, c.GetString(requestIDKey))
}
