// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RequestID ensures every request carries an X-Request-ID, echoing an inbound
// one or generating a UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		getOrCreateRequestID(c)
		c.Next()
	}
}

// RateLimit rejects requests beyond a token-bucket budget with 429.
//
// Description:
//
//	The bucket is shared by every client of the group it guards.
//
// Inputs:
//   - limiter: The shared bucket. Nil disables limiting.
//
// Outputs:
//   - gin.HandlerFunc: Middleware that aborts with ErrorResponse{Code: "RATE_LIMITED"}.
//
// Thread Safety: rate.Limiter is safe for concurrent use.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}

		slog.Warn("AI request rate limited",
			slog.String("request_id", getOrCreateRequestID(c)),
			slog.String("path", c.FullPath()),
		)
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "too many AI requests, try again shortly",
			Code:  "RATE_LIMITED",
		})
	}
}

// NewLimiter builds a limiter allowing perMinute requests per minute with
// the given burst. A non-positive perMinute returns nil (unlimited).
func NewLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// AccessLog logs one line per request at INFO, or WARN for 4xx/5xx.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "HTTP request",
			slog.String("request_id", getOrCreateRequestID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
