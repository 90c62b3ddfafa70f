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
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers the AI endpoints with the router.
//
// Description:
//
//	Registers all /ai/* endpoints under rg. Generation endpoints share the
//	given limiter; health is never limited.
//
// Inputs:
//
//	rg - Gin router group (/v1, or the engine root for unversioned clients)
//	handlers - The handlers instance
//	limiter - Shared rate limiter for generation endpoints. Nil disables it.
//
// Endpoints:
//
//	POST /v1/ai/club-description - Generate a club description
//	POST /v1/ai/event-suggestion - Suggest an event
//	POST /v1/ai/assistant - Ask the site assistant
//	GET  /v1/ai/models - List generation-capable models
//	GET  /v1/ai/health - Health check
//
// Example:
//
//	handlers := assistant.NewHandlers(router, cfg)
//	v1 := engine.Group("/v1")
//	assistant.RegisterRoutes(v1, handlers, assistant.NewLimiter(60, 10))
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, limiter *rate.Limiter) {
	ai := rg.Group("/ai")
	ai.Use(RequestID())
	{
		ai.GET("/health", handlers.HandleHealth)

		limited := ai.Group("")
		limited.Use(RateLimit(limiter))
		{
			limited.POST("/club-description", handlers.HandleClubDescription)
			limited.POST("/event-suggestion", handlers.HandleEventSuggestion)
			limited.POST("/assistant", handlers.HandleAssistant)
			limited.GET("/models", handlers.HandleModels)
		}
	}
}
