package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ZertGraf/observ/internal/auth"
	"github.com/ZertGraf/observ/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AddMemberRequest struct {
	UserID int64 `json:"user_id"`
}

type MembershipResponse struct {
	ProjectID int64 `json:"project_id"`
	UserID    int64 `json:"user_id"`
}

type UsersResponse struct {
	ProjectID int64          `json:"project_id"`
	Users     []*domain.User `json:"users"`
}

func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	users, err := h.projectService.Members(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UsersResponse{ProjectID: id, Users: users}, h.logger)
}

func (h *ProjectHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	users, err := h.projectService.MemberCandidates(r.Context(), auth.ActorFromContext(r.Context()), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UsersResponse{ProjectID: id, Users: users}, h.logger)
}

func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", h.logger)
		return
	}
	if req.UserID <= 0 {
		writeBadRequest(w, "user_id is required", h.logger)
		return
	}

	if err := h.projectService.AddMember(r.Context(), auth.ActorFromContext(r.Context()), id, req.UserID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, MembershipResponse{ProjectID: id, UserID: req.UserID}, h.logger)
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	userID, ok := parseID(w, chi.URLParam(r, "userID"), "user id", h.logger)
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), auth.ActorFromContext(r.Context()), id, userID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if err := h.projectService.Join(r.Context(), actor, id); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, MembershipResponse{ProjectID: id, UserID: actor.ID}, h.logger)
}
