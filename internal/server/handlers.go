package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sells-group/research-assistant/internal/assistant"
	"github.com/sells-group/research-assistant/internal/model"
)

type askRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type challengeRequest struct {
	SessionID string `json:"session_id"`
}

type evaluateRequest struct {
	SessionID  string `json:"session_id"`
	Question   string `json:"question"`
	UserAnswer string `json:"user_answer"`
}

type sessionsResponse struct {
	Sessions []model.SessionSummary `json:"sessions"`
}

type healthResponse struct {
	Status   string   `json:"status"`
	Backends []string `json:"backends"`
}

// decodeBody decodes a JSON body into v. It writes the error response and
// returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// requireFields checks name/value pairs in order and reports the first
// blank one with a 422.
func requireFields(w http.ResponseWriter, pairs ...string) bool {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			writeDetail(w, http.StatusUnprocessableEntity, pairs[i]+" is required")
			return false
		}
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backends: s.opts.Backends})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Sessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: list})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		writeDetail(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	res, err := s.svc.Upload(r.Context(), assistant.UploadInput{
		Filename:  header.Filename,
		Data:      data,
		SessionID: strings.TrimSpace(r.FormValue("session_id")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, "session_id", req.SessionID, "question", req.Question) {
		return
	}

	ans, err := s.svc.Ask(r.Context(), req.SessionID, req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// handleChallenge accepts session_id as a query parameter or in a JSON body.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("session_id")
	if key == "" && r.ContentLength != 0 {
		var req challengeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		key = req.SessionID
	}
	if !requireFields(w, "session_id", key) {
		return
	}

	set, err := s.svc.Challenge(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !requireFields(w, "session_id", req.SessionID, "question", req.Question) {
		return
	}

	ev, err := s.svc.Evaluate(r.Context(), req.SessionID, req.Question, req.UserAnswer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
