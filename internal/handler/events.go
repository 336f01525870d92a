package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"settlecore/internal/events"
	"settlecore/internal/models"
)

// EventReader is the backfill read path.
type EventReader interface {
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]models.LedgerEvent, error)
}

type EventHandler struct {
	Reader      EventReader
	Broadcaster *events.Broadcaster
	Logger      *zap.Logger
}

func (h *EventHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/events")
	group.GET("", h.list)
	group.GET("/stream", h.stream)
}

type eventView struct {
	Seq       uint64          `json:"seq"`
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

func (h *EventHandler) list(c *gin.Context) {
	afterSeq, _ := strconv.ParseUint(c.Query("after_seq"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.Reader.ListEvents(c.Request.Context(), afterSeq, limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	views := make([]eventView, 0, len(items))
	var lastSeq uint64
	for _, item := range items {
		views = append(views, eventView{
			Seq:       item.Seq,
			EventID:   item.EventID,
			Type:      item.Type,
			Payload:   json.RawMessage(item.Payload),
			CreatedAt: item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
		lastSeq = item.Seq
	}
	Ok(c, views, map[string]any{"last_seq": lastSeq, "count": len(views)})
}

// stream pushes live events over a websocket. Backfill first via the list
// endpoint; the stream starts at the moment of subscription.
func (h *EventHandler) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("event stream accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	ch, cancel := h.Broadcaster.Subscribe(64)
	defer cancel()

	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-ch:
			if !open {
				_ = conn.Close(websocket.StatusTryAgainLater, "subscriber lagged")
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}
	}
}
