package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/agent"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	AgentResponse string `json:"agent_response"`
	MessageID     string `json:"message_id"`
}

// exchangeResponse carries both transcript entries written by one turn.
type exchangeResponse struct {
	UserMessage  *models.Message `json:"user_message"`
	AgentMessage *models.Message `json:"agent_message"`
}

// turn decodes a chat message and runs it through the orchestrator. On
// failure the error has already been written to w.
func (s *Server) turn(w http.ResponseWriter, r *http.Request) (*agent.TurnResult, bool) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return nil, false
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, fmt.Errorf("%w: message must not be empty", common.ErrorInvalidArgument))
		return nil, false
	}

	res, err := s.deps.Orchestrator.Turn(r.Context(), agent.TurnInput{
		User:    currentUser(r.Context()),
		Token:   currentToken(r.Context()),
		Message: req.Message,
		Now:     s.now(),
	})
	if err != nil {
		s.logger.Error(r.Context(), "chat turn not recorded", "error", err)
		writeError(w, err)
		return nil, false
	}
	return res, true
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	res, ok := s.turn(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{AgentResponse: res.Reply, MessageID: res.MessageID})
}

// saveMessage is the transcript-centric form of chat: 201 with both stored
// entries.
func (s *Server) saveMessage(w http.ResponseWriter, r *http.Request) {
	res, ok := s.turn(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, exchangeResponse{UserMessage: res.UserMessage, AgentMessage: res.AgentMessage})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	msgs, err := s.deps.Transcripts.Recent(r.Context(), user.ConversationID, s.deps.HistoryLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) exportHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Archive == nil {
		writeDetail(w, http.StatusServiceUnavailable, "transcript export is not configured")
		return
	}

	export, err := s.deps.Archive.Export(r.Context(), currentUser(r.Context()), s.deps.HistoryLimit)
	if err != nil {
		s.logger.Error(r.Context(), "transcript export failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}
