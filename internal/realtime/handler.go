package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Stream holds the connection open and writes queued messages as SSE frames,
// with a comment line every heartbeat interval to keep proxies from timing out.
func (h *Hub) Stream(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}

	cl, ok := h.register(actor.OrgID, actor.MemberID, actor.SeesAll())
	if !ok {
		httpkit.HandleError(c, apperr.Unavailable("realtime feed is shutting down"))
		return
	}
	defer h.unregister(cl)

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeFrame(c, Message{Event: EventConnected, Data: gin.H{"memberId": actor.MemberID, "organizationId": actor.OrgID}})
	h.log.Debug("realtime client connected", "memberId", actor.MemberID, "organizationId", actor.OrgID)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	gone := c.Request.Context().Done()
	for {
		select {
		case <-gone:
			h.log.Debug("realtime client disconnected", "memberId", actor.MemberID)
			return
		case <-ticker.C:
			if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
				return
			}
			w.Flush()
		case msg, ok := <-cl.events:
			if !ok {
				return
			}
			writeFrame(c, msg)
		}
	}
}

func writeFrame(c *gin.Context, msg Message) {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return
	}
	c.SSEvent(msg.Event, string(data))
	c.Writer.Flush()
}

// StatsHandler reports the caller's organization connections. Admin only.
func (h *Hub) StatsHandler(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	if !actor.IsAdmin() {
		httpkit.HandleError(c, apperr.Forbidden("only admins can view realtime stats"))
		return
	}
	httpkit.OK(c, h.Stats(actor.OrgID))
}
