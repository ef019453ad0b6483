package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/tripmate/internal/observe"
)

// handleChatWS serves a chat over one websocket. Each client text frame is a
// [ChatRequest]; the server answers every frame with a [ChatResponse] or an
// error frame. The conversation ID of the first frame (or the
// conversationId query parameter, or a new ID) sticks for frames that omit
// one.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		// Accept has already written the HTTP error.
		observe.Logger(r.Context()).Debug("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	s.metrics.ActiveStreams.Add(ctx, 1)
	defer s.metrics.ActiveStreams.Add(context.WithoutCancel(ctx), -1)

	sticky := r.URL.Query().Get("conversationId")
	for {
		var req ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if !isNormalClose(err) {
				observe.Logger(ctx).Debug("websocket read ended", "err", err)
			}
			return
		}
		if req.ConversationID == "" {
			req.ConversationID = sticky
		}
		if err := s.normalize(&req); err != nil {
			if err := wsjson.Write(ctx, conn, errorBody{Error: "invalid_request", Detail: err.Error()}); err != nil {
				return
			}
			continue
		}
		sticky = req.ConversationID

		res := s.agent.HandleTurn(ctx, req.ConversationID, req.Message)
		if err := wsjson.Write(ctx, conn, ChatResponse{ConversationID: req.ConversationID, Result: res}); err != nil {
			observe.Logger(ctx).Debug("websocket write failed", "conversation_id", req.ConversationID, "err", err)
			return
		}
	}
}

func isNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
