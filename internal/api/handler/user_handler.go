package handler

import (
	"net/http"

	"github.com/ZertGraf/observ/internal/auth"
	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	logger      *logger.Logger
}

func NewUserHandler(userService *service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.Component("handler/user"),
	}
}

func (h *UserHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/me", h.Me)
	r.Get("/{id}", h.GetUser)

	return r
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(auth.ActorFromContext(r.Context()))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user}, h.logger)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "user id", h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user}, h.logger)
}
