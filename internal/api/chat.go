package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/MrWong99/tripmate/internal/agent"
	"github.com/MrWong99/tripmate/internal/observe"
	"github.com/MrWong99/tripmate/internal/statestore"
	"github.com/MrWong99/tripmate/internal/trip"
)

var errMessageRequired = errors.New("message is required")

// ChatRequest is the body of POST /v1/chat and of every websocket frame
// sent by the client.
type ChatRequest struct {
	// ConversationID identifies the conversation. Empty starts a new one.
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// ChatResponse is the answer to a [ChatRequest].
type ChatResponse struct {
	ConversationID string `json:"conversationId"`
	agent.Result
}

// StateResponse is the body of GET /v1/conversations/{id}/state.
type StateResponse struct {
	ConversationID string     `json:"conversationId"`
	State          trip.State `json:"state"`
}

// normalize validates req and fills in a new conversation ID when needed.
func (s *Server) normalize(req *ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return errMessageRequired
	}
	if n := utf8.RuneCountInString(req.Message); n > MaxMessageRunes {
		return fmt.Errorf("message has %d characters; the limit is %d", n, MaxMessageRunes)
	}
	if req.ConversationID == "" {
		req.ConversationID = s.newID()
	}
	return statestore.ValidateID(req.ConversationID)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := s.normalize(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res := s.agent.HandleTurn(r.Context(), req.ConversationID, req.Message)
	observe.Logger(r.Context()).Debug("chat turn served",
		"conversation_id", req.ConversationID,
		"mode", res.Mode,
		"cards", len(res.Cards),
	)
	writeJSON(w, http.StatusOK, ChatResponse{ConversationID: req.ConversationID, Result: res})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := statestore.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	st, err := s.store.Load(r.Context(), id)
	if err != nil {
		observe.Logger(r.Context()).Error("load conversation state", "conversation_id", id, "err", err)
		s.metrics.RecordStoreError(r.Context(), "load")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{ConversationID: id, State: st})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := statestore.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		observe.Logger(r.Context()).Error("delete conversation", "conversation_id", id, "err", err)
		s.metrics.RecordStoreError(r.Context(), "delete")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
