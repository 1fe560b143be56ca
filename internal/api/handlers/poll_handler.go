package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"live-voting/internal/domain"
	"live-voting/internal/services"
	"live-voting/pkg/logger"

	"github.com/gorilla/mux"
)

// PollHandler exposes the mock server's REST API.
type PollHandler struct {
	poll *services.Poll
	port int
	log  logger.Logger
}

type CandidateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewPollHandler(poll *services.Poll, port int, log logger.Logger) *PollHandler {
	return &PollHandler{
		poll: poll,
		port: port,
		log:  log,
	}
}

// RegisterRoutes mounts every endpoint on r. push serves the /ws upgrade.
func (h *PollHandler) RegisterRoutes(r *mux.Router, push http.Handler) {
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/candidates", h.GetCandidates).Methods(http.MethodGet)
	api.HandleFunc("/candidates", h.CreateCandidate).Methods(http.MethodPost)
	api.HandleFunc("/candidates/{id:[0-9]+}", h.UpdateCandidate).Methods(http.MethodPut)
	api.HandleFunc("/candidates/{id:[0-9]+}", h.DeleteCandidate).Methods(http.MethodDelete)
	api.HandleFunc("/vote", h.CastVote).Methods(http.MethodPost)
	api.HandleFunc("/vote/check", h.CheckVote).Methods(http.MethodPost)
	api.HandleFunc("/results", h.GetResults).Methods(http.MethodGet)
	api.HandleFunc("/admin/reset", h.Reset).Methods(http.MethodPost)
	api.HandleFunc("/admin/unlock", h.Unlock).Methods(http.MethodPost)
	api.HandleFunc("/admin/status", h.Status).Methods(http.MethodGet)
	api.HandleFunc("/settings/vote-title", h.GetVoteTitle).Methods(http.MethodGet)
	api.HandleFunc("/settings/vote-title", h.SetVoteTitle).Methods(http.MethodPost)

	if push != nil {
		r.Handle("/ws", push)
	}
}

func (h *PollHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"service": "live-voting mock server",
	})
}

func (h *PollHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.poll.Candidates())
}

func (h *PollHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := h.poll.AddCandidate(req.Name, req.Description)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, candidate)
}

func (h *PollHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := h.poll.UpdateCandidate(id, req.Name, req.Description)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, candidate)
}

func (h *PollHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.poll.DeleteCandidate(id); err != nil {
		http.Error(w, "Candidate not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, domain.AdminResponse{Success: true, Message: "Candidate deleted"})
}

func (h *PollHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req domain.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.poll.CastVote(voterID(r, req.ClientID), req.CandidateID))
}

func (h *PollHandler) CheckVote(w http.ResponseWriter, r *http.Request) {
	var req domain.VoteCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, domain.VoteCheckResponse{HasVoted: h.poll.HasVoted(voterID(r, req.ClientID))})
}

func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.poll.Results())
}

func (h *PollHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.poll.Reset())
}

func (h *PollHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.poll.Unlock())
}

func (h *PollHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.poll.Status(h.port))
}

func (h *PollHandler) GetVoteTitle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"title": h.poll.Title()})
}

func (h *PollHandler) SetVoteTitle(w http.ResponseWriter, r *http.Request) {
	title, err := h.poll.SetTitle(r.URL.Query().Get("title"))
	if err != nil {
		http.Error(w, "Title must not be empty", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "title": title})
}

// voterID identifies the voter by client id, falling back to the remote
// address for clients that do not send one.
func voterID(r *http.Request, clientID string) string {
	if clientID != "" {
		return clientID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
