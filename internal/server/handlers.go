package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amorahq/amora/internal/chat"
	"github.com/amorahq/amora/internal/database"
	"github.com/amorahq/amora/internal/fal"
)

type handlers struct {
	logger   *slog.Logger
	chat     ChatRunner
	images   ImageService
	store    database.Store
	recorder chat.Recorder
}

func (h *handlers) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleChat serves POST /chat/:provider. The SSE headers are committed
// before anything can fail, so every error after that point is delivered
// as an in-band frame followed by the terminal marker.
func (h *handlers) handleChat(c *gin.Context) {
	var req chat.Request
	bindErr := c.ShouldBindJSON(&req)

	sink, err := newSSEWriter(c.Writer)
	if err != nil {
		h.logger.Error("SSE unsupported by connection", "error", err)
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}
	defer sink.Close()

	if provider := c.Param("provider"); provider != "gemini" {
		_ = sink.Send(chat.ErrorEvent{Error: "unsupported chat provider: " + provider})
		return
	}
	if bindErr != nil {
		h.logger.Warn("Invalid chat request body", "error", bindErr)
		_ = sink.Send(chat.ErrorEvent{Error: "invalid request body"})
		return
	}

	if err := h.chat.Run(c.Request.Context(), req, sink); err != nil {
		// The sink rejected a write, the client is gone.
		h.logger.Warn("Chat stream aborted", "error", err)
	}
}

type imageRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	BaseImage   string `json:"baseImage"`
	AspectRatio string `json:"aspect_ratio"`
}

// handleImages serves POST /images/:provider for the client's standalone
// image tools.
func (h *handlers) handleImages(c *gin.Context) {
	if provider := c.Param("provider"); provider != "fal" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image provider: " + provider})
		return
	}

	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	url, err := h.images.GenerateForModel(c.Request.Context(), req.Model, req.Prompt, req.BaseImage, req.AspectRatio)
	switch {
	case errors.Is(err, fal.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image generation service configuration error."})
		return
	case errors.Is(err, fal.ErrUnknownModel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The requested image model (" + req.Model + ") is not supported."})
		return
	case errors.Is(err, fal.ErrMissingPrompt), errors.Is(err, fal.ErrMissingBaseImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("Image generation failed", "model", req.Model, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image."})
		return
	case url == "":
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image."})
		return
	}

	if h.recorder != nil {
		h.recorder.RecordImage(c.Request.Context(), "direct", req.Prompt, url)
	}
	c.JSON(http.StatusOK, gin.H{"image": url})
}

// handleRecentImages serves GET /images/recent for the gallery screen.
func (h *handlers) handleRecentImages(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	images, err := h.store.RecentImages(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list recent images", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load images."})
		return
	}
	if images == nil {
		images = []database.GeneratedImage{}
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}
