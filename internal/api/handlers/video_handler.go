package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/services"
	"github.com/lectura-ai/backend/internal/utils"
)

type VideoHandler struct {
	svc      services.VideoService
	maxBytes int64
}

func NewVideoHandler(svc services.VideoService, maxBytes int64) *VideoHandler {
	return &VideoHandler{svc: svc, maxBytes: maxBytes}
}

type VideoListResponse struct {
	Videos []models.Video `json:"videos"`
	Total  int            `json:"total"`
}

func (h *VideoHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "VideoHandler.Upload", "missing multipart field 'file'", err))
		return
	}

	// The declared size gets its own status code; the service enforces
	// the cap again while streaming.
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, APIError{
			Code:    utils.CodeInvalidArgument,
			Message: fmt.Sprintf("File too large. Maximum size is %.1fGB", float64(h.maxBytes)/(1024*1024*1024)),
		})
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "VideoHandler.Upload", "failed to open upload", err))
		return
	}
	defer file.Close()

	receipt, err := h.svc.Upload(c.Request.Context(), fh.Filename, fh.Size, file)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func (h *VideoHandler) List(c *gin.Context) {
	videos, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, VideoListResponse{Videos: videos, Total: len(videos)})
}

func (h *VideoHandler) Get(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *VideoHandler) Status(c *gin.Context) {
	detail, err := h.svc.Status(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	videoID := c.Param("video_id")
	if err := h.svc.Delete(c.Request.Context(), videoID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Video %s deleted", videoID),
	})
}
