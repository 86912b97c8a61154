package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lectura-ai/backend/internal/models"
	"github.com/lectura-ai/backend/internal/services"
	"github.com/lectura-ai/backend/internal/utils"
)

type WSHandler struct {
	videos   services.VideoService
	upgrader websocket.Upgrader
}

func NewWSHandler(videos services.VideoService) *WSHandler {
	return &WSHandler{
		videos: videos,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// VideoStatusWS pushes the processing status payload once a second
// until the video reaches a terminal status or the client goes away.
func (h *WSHandler) VideoStatusWS(c *gin.Context) {
	videoID := c.Param("video_id")
	if videoID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.VideoStatusWS", "missing video_id", nil))
		return
	}

	detail, err := h.videos.Status(c.Request.Context(), videoID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade failures already wrote an HTTP response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// reader pump, consumed only to notice the client closing
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		payload, merr := json.Marshal(detail)
		if merr != nil {
			return
		}
		if werr := wc.writeText(payload); werr != nil {
			return
		}
		if models.ProcessingStatus(detail.Status).Terminal() {
			return
		}

		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		detail, err = h.videos.Status(ctx, videoID)
		if err != nil {
			return
		}
	}
}
