package handlers

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/analytics/internal/modules/portfolio"
	"github.com/aristath/analytics/internal/utils"
)

const (
	readWait  = 10 * time.Second
	writeWait = 5 * time.Second
)

// Stream message types
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is sent to websocket clients
type StreamMessage struct {
	Type     string                 `json:"type"`
	Progress *portfolio.Progress    `json:"progress,omitempty"`
	Result   map[string]interface{} `json:"result,omitempty"`
	Error    *StreamError           `json:"error,omitempty"`
}

// StreamError mirrors the HTTP error body
type StreamError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HandleStream handles GET /api/portfolio/optimize/stream. The client sends
// one Request as JSON, receives progress messages while the portfolio is
// built and a final result or error message.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")

	ctx := r.Context()

	var body Request
	readCtx, cancel := context.WithTimeout(ctx, readWait)
	err = wsjson.Read(readCtx, conn, &body)
	cancel()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read stream request")
		conn.Close(websocket.StatusUnsupportedData, "expected a JSON request")
		return
	}

	req, err := h.toRequest(body)
	if err != nil {
		h.writeStreamError(ctx, conn, err)
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	// The client sends nothing more; a disconnect cancels the build
	ctx = conn.CloseRead(ctx)

	p, err := h.builder.Build(ctx, req, func(pr portfolio.Progress) {
		h.write(ctx, conn, StreamMessage{Type: MessageProgress, Progress: &pr})
	})
	if err != nil {
		h.writeStreamError(ctx, conn, err)
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	h.write(ctx, conn, StreamMessage{Type: MessageResult, Result: h.present(p, body.Series)})
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) writeStreamError(ctx context.Context, conn *websocket.Conn, err error) {
	h.log.Warn().Err(err).Msg("Streamed portfolio build failed")
	h.write(ctx, conn, StreamMessage{
		Type:  MessageError,
		Error: &StreamError{Kind: utils.ErrorKind(err), Message: err.Error()},
	})
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, msg StreamMessage) {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("Failed to write stream message")
	}
}
