package server

import (
	"net/http"
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatAnswer struct {
	AiOutput string `json:"AiOutput"`
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.Assistant == nil {
		s.fail(w, r, errNotConfigured)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	answer, err := s.Assistant.Ask(r.Context(), s.session(r), req.Question)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, chatAnswer{AiOutput: answer}, "")
}

func (s *Service) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if s.Assistant == nil {
		s.fail(w, r, errNotConfigured)
		return
	}

	history, err := s.Assistant.History(r.Context(), s.session(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, history, "Chat history fetched successfully")
}

func (s *Service) handleClearChatContext(w http.ResponseWriter, r *http.Request) {
	if s.Assistant == nil {
		s.fail(w, r, errNotConfigured)
		return
	}

	if err := s.Assistant.ClearContext(r.Context(), s.session(r).ID); err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, http.StatusOK, nil, "Chat context removed successfully")
}
