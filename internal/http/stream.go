package http

import (
	"github.com/gin-gonic/gin"

	"complaint-service/internal/dashboard"
	"complaint-service/internal/model"
	"complaint-service/internal/realtime"
)

type snapshot struct {
	Complaints []model.Complaint `json:"complaints"`
	Stats      dashboard.Stats   `json:"stats"`
}

// streamDashboard sends a snapshot followed by one complaint and one stats
// event per change. The subscription is taken before the snapshot is read
// so no change between the two is lost.
func (h *Handler) streamDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	sub := h.hub.Subscribe(realtime.DefaultSubscriberBuffer)
	defer sub.Close()

	complaints, err := h.complaints.All(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	board := realtime.NewBoard(complaints)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.log.Debug().
		Int("complaints", board.Len()).
		Int("subscribers", h.hub.Subscribers()).
		Msg("dashboard stream opened")

	items := board.Items()
	c.SSEvent("snapshot", snapshot{Complaints: items, Stats: dashboard.Compute(items)})
	c.Writer.Flush()

	realtime.Sync(ctx, board, sub.Events(), func(ev realtime.Event, _ realtime.Outcome) {
		c.SSEvent("complaint", ev)
		c.SSEvent("stats", dashboard.Compute(board.Items()))
		c.Writer.Flush()
	})

	h.log.Debug().Msg("dashboard stream closed")
}
