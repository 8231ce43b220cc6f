package server

import (
	"encoding/json"
	"net/http"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

// turnRequest is the body for POST /sessions/{id}/turns.
type turnRequest struct {
	Input string `json:"input" validate:"required,min=1"`
}

// turnResponse is the reply for a processed turn.
type turnResponse struct {
	Reply        string         `json:"reply"`
	Answer       types.Answer   `json:"answer"`
	Stage        types.Stage    `json:"stage"`
	Advanced     bool           `json:"advanced"`
	Clarify      bool           `json:"clarify"`
	Completed    bool           `json:"completed"`
	NextQuestion string         `json:"next_question,omitempty"`
	Profile      *types.Profile `json:"profile,omitempty"`
}

// sessionSummary is the list-view projection of a session.
type sessionSummary struct {
	ID           string       `json:"id"`
	CurrentStage types.Stage  `json:"current_stage"`
	Status       types.Status `json:"status"`
	Turns        int          `json:"turns"`
	Progress     float64      `json:"progress"`
	UpdatedAt    string       `json:"updated_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.NewSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.engine.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, sessionSummary{
			ID:           session.ID,
			CurrentStage: session.CurrentStage,
			Status:       session.Status,
			Turns:        len(session.Answers),
			Progress:     s.engine.Progress(session),
			UpdatedAt:    session.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, &ErrValidation{Field: "input", Message: "input is required"})
		return
	}

	session, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	turn, err := s.engine.Advance(r.Context(), session, req.Input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		Reply:        turn.Reply,
		Answer:       turn.Answer,
		Stage:        turn.Session.CurrentStage,
		Advanced:     turn.Advanced,
		Clarify:      turn.Clarify,
		Completed:    turn.Completed,
		NextQuestion: turn.NextQuestion,
		Profile:      turn.Session.Profile,
	})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.engine.Abandon(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if session.Profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "session has no profile yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, session.Profile)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPStatus(err), map[string]string{"error": err.Error()})
}
