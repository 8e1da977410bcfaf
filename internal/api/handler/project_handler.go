package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ZertGraf/observ/internal/auth"
	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	logger         *logger.Logger
}

func NewProjectHandler(projectService *service.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger.Component("handler/project"),
	}
}

func (h *ProjectHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListProjects)
	r.Post("/", h.CreateProject)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetProject)
		r.Put("/", h.EditProject)
		r.Delete("/", h.DeleteProject)
		r.Get("/commits", h.GetCommits)

		r.Get("/members", h.ListMembers)
		r.Post("/members", h.AddMember)
		r.Get("/members/candidates", h.ListCandidates)
		r.Delete("/members/{userID}", h.RemoveMember)
		r.Post("/join", h.Join)
	})

	return r
}

// ProjectRequest is the create/edit body. Repos is kept raw so the
// service can decode it and report a malformed list as a validation error.
type ProjectRequest struct {
	Name    string          `json:"name"`
	OwnerID int64           `json:"owner_id"`
	Active  bool            `json:"active"`
	Repos   json.RawMessage `json:"repos"`
}

func (req *ProjectRequest) draft() *domain.ProjectDraft {
	return &domain.ProjectDraft{
		Name:    req.Name,
		OwnerID: req.OwnerID,
		Active:  req.Active,
		Repos:   string(req.Repos),
	}
}

type ProjectResponse struct {
	Project *domain.Project `json:"project"`
}

type ProjectDetailResponse struct {
	Project *domain.ProjectDetail `json:"project"`
}

type ProjectsResponse struct {
	Projects []*domain.Project `json:"projects"`
}

type CommitsResponse struct {
	ProjectID int64                 `json:"project_id"`
	Commits   []domain.CommitRecord `json:"commits"`
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ProjectsResponse{Projects: projects}, h.logger)
}

// GetProject serves a project by numeric id. A non-numeric reference is
// looked up by name and redirected to the canonical id URL.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		project, err := h.projectService.FindByName(r.Context(), ref)
		if err != nil {
			WriteError(w, err, h.logger)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/projects/%d", project.ID), http.StatusSeeOther)
		return
	}

	detail, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ProjectDetailResponse{Project: detail}, h.logger)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", h.logger)
		return
	}

	project, err := h.projectService.Create(r.Context(), auth.ActorFromContext(r.Context()), req.draft())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/projects/%d", project.ID))
	writeJSON(w, http.StatusCreated, ProjectResponse{Project: project}, h.logger)
}

func (h *ProjectHandler) EditProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body", h.logger)
		return
	}

	project, err := h.projectService.Edit(r.Context(), auth.ActorFromContext(r.Context()), id, req.draft())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ProjectResponse{Project: project}, h.logger)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCommits returns commits: null when the project has no supported
// repositories.
func (h *ProjectHandler) GetCommits(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	records, _, err := h.projectService.Commits(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, CommitsResponse{ProjectID: id, Commits: records}, h.logger)
}

func (h *ProjectHandler) projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return parseID(w, chi.URLParam(r, "id"), "project id", h.logger)
}

func parseID(w http.ResponseWriter, raw, what string, logger *logger.Logger) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, what+" must be a positive integer", logger)
		return 0, false
	}
	return id, true
}
