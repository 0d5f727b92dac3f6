package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/drobyshev/leadmart/internal/server/http/dto"
)

// FeedHandler streams live lead snapshots over server-sent events.
type FeedHandler struct {
	facade FeedFacade
}

// NewFeedHandler constructs FeedHandler.
func NewFeedHandler(facade FeedFacade) *FeedHandler {
	return &FeedHandler{facade: facade}
}

// Stream handles GET /api/leads/feed. Each event carries a full replacement
// snapshot; a terminal subscription failure is reported as an error event and
// the stream ends without auto-retry.
func (h *FeedHandler) Stream(c *gin.Context) {
	sub := h.facade.SubscribeFeed(c.Request.Context(), CurrentViewer(c))
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return false
			}
			if snap.Err != nil {
				c.SSEvent("error", dto.ErrorResponse{Error: snap.Err.Error()})
				return false
			}
			c.SSEvent("snapshot", dto.FeedSnapshot{
				Version: snap.Version,
				Leads:   toLeadResponses(snap.Leads),
			})
			return true
		}
	})
}
